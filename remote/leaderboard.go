package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wavesurvival/protocol"
)

const (
	writeWait   = 10 * time.Second
	sendBufSize = 64
)

// LeaderboardOptions configures DialLeaderboard
type LeaderboardOptions struct {
	Encoding   protocol.Encoding
	Logger     *slog.Logger
	OnSnapshot func([]protocol.SnapshotEntry) // called from the read goroutine
}

// LeaderboardClient reports live progress to the leaderboard hub. It
// implements sim.Reporter. A nil *LeaderboardClient is valid and does
// nothing, which is what a failed dial leaves behind.
type LeaderboardClient struct {
	conn     *websocket.Conn
	username string
	opts     LeaderboardOptions
	log      *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	mu     sync.RWMutex
	latest []protocol.SnapshotEntry
}

// wsURL turns an http(s) server base into the /ws endpoint
func wsURL(server string, enc protocol.Encoding) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	if enc == protocol.MsgPack {
		u.RawQuery = "enc=msgpack"
	}
	return u.String(), nil
}

// DialLeaderboard connects once. On failure it returns a nil client with
// the error; there is no retry.
func DialLeaderboard(ctx context.Context, server, username string, opts LeaderboardOptions) (*LeaderboardClient, error) {
	u, err := wsURL(server, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("leaderboard url: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial leaderboard: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &LeaderboardClient{
		conn:     conn,
		username: protocol.CleanUsername(username),
		opts:     opts,
		log:      log,
		send:     make(chan []byte, sendBufSize),
		done:     make(chan struct{}),
	}
	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

// Username is the name sent with every report
func (c *LeaderboardClient) Username() string {
	if c == nil {
		return ""
	}
	return c.username
}

// Report sends the current score and wave without blocking
func (c *LeaderboardClient) Report(score, wave int) {
	if c == nil {
		return
	}
	c.enqueue(protocol.MsgReport, protocol.ReportMsg{
		Username: c.username,
		Score:    protocol.N(float64(score)),
		Wave:     protocol.N(float64(wave)),
	})
}

// Stop asks the hub to drop this connection's entry
func (c *LeaderboardClient) Stop() {
	if c == nil {
		return
	}
	c.enqueue(protocol.MsgStop, protocol.StopMsg{Username: c.username})
}

// Latest returns the most recent snapshot received
func (c *LeaderboardClient) Latest() []protocol.SnapshotEntry {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]protocol.SnapshotEntry, len(c.latest))
	copy(out, c.latest)
	return out
}

// Close shuts the connection down and waits for the pumps
func (c *LeaderboardClient) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}

func (c *LeaderboardClient) enqueue(t string, payload any) {
	b, err := json.Marshal(protocol.Envelope{T: t, Data: payload})
	if err != nil {
		c.log.Error("leaderboard: marshal", "type", t, "err", err)
		return
	}
	select {
	case <-c.done:
	case c.send <- b:
	default:
		// hub is slow; the next periodic report supersedes this one
	}
}

func (c *LeaderboardClient) writeLoop() {
	defer c.wg.Done()
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case b := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Warn("leaderboard: write", "err", err)
				c.once.Do(func() { close(c.done) })
				return
			}
		}
	}
}

// flush writes frames queued before Close, such as a final stop
func (c *LeaderboardClient) flush() {
	for {
		select {
		case b := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *LeaderboardClient) readLoop() {
	defer c.wg.Done()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.Warn("leaderboard: read", "err", err)
				}
				c.once.Do(func() { close(c.done) })
			}
			return
		}
		entries, err := protocol.DecodeSnapshot(c.opts.Encoding, raw)
		if errors.Is(err, protocol.ErrUnexpectedType) {
			continue
		}
		if err != nil {
			c.log.Debug("leaderboard: bad frame", "err", err)
			continue
		}
		c.mu.Lock()
		c.latest = entries
		c.mu.Unlock()
		if c.opts.OnSnapshot != nil {
			c.opts.OnSnapshot(entries)
		}
	}
}
