package main

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"wavesurvival/protocol"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// ActivePlayerEntry is one connection's live progress
type ActivePlayerEntry struct {
	Username     string
	Score        int
	Wave         int
	LastUpdate   time.Time
	ConnectionID string
}

// Hub commands, delivered in order through the inbox.

type registerCmd struct{ client *Client }

type unregisterCmd struct{ client *Client }

type reportCmd struct {
	client   *Client
	username string
	score    int
	wave     int
}

type stopCmd struct{ client *Client }

type sweepCmd struct{ reply chan<- int }

type snapshotCmd struct{ reply chan<- []ActivePlayerEntry }

// LeaderboardHub owns every connected client and the live entry registry.
// All state lives in the Run goroutine; everything else sends commands.
type LeaderboardHub struct {
	clients map[*Client]bool
	entries map[string]ActivePlayerEntry // by connection id

	inbox chan any
	done  chan struct{}

	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger
	activity *Activity

	// connection limiting, touched from HTTP handlers
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewLeaderboardHub builds a hub. ttl <= 0 disables idle eviction;
// activity may be nil.
func NewLeaderboardHub(ttl time.Duration, activity *Activity, log *slog.Logger) *LeaderboardHub {
	return &LeaderboardHub{
		clients:  make(map[*Client]bool),
		entries:  make(map[string]ActivePlayerEntry),
		inbox:    make(chan any, 256),
		done:     make(chan struct{}),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
		activity: activity,
		ipConns:  make(map[string]int),
	}
}

func (h *LeaderboardHub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *LeaderboardHub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *LeaderboardHub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// TotalConns returns the tracked connection count
func (h *LeaderboardHub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

// Run processes hub commands until ctx is cancelled
func (h *LeaderboardHub) Run(ctx context.Context) {
	defer close(h.done)

	var sweepC <-chan time.Time
	if h.ttl > 0 {
		t := time.NewTicker(sweepPeriod(h.ttl))
		defer t.Stop()
		sweepC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case cmd := <-h.inbox:
			h.handleCommand(cmd)
		case <-sweepC:
			h.sweep()
		}
	}
}

func (h *LeaderboardHub) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case registerCmd:
		h.clients[c.client] = true
		h.sendSnapshot(c.client)

	case unregisterCmd:
		if _, ok := h.clients[c.client]; ok {
			delete(h.clients, c.client)
			close(c.client.send)
		}
		if h.remove(c.client.id, "disconnect") {
			h.broadcast()
		}

	case reportCmd:
		if _, ok := h.clients[c.client]; !ok {
			return
		}
		h.upsert(c)
		h.broadcast()

	case stopCmd:
		if h.remove(c.client.id, "stop") {
			h.broadcast()
		}

	case sweepCmd:
		c.reply <- h.sweep()

	case snapshotCmd:
		c.reply <- h.sorted()
	}
}

func (h *LeaderboardHub) send(cmd any) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- cmd:
		return true
	case <-h.done:
		return false
	}
}

func sweepPeriod(ttl time.Duration) time.Duration {
	p := ttl / 3
	if p < time.Second {
		p = time.Second
	}
	return p
}

// Register adds a client; it receives the current snapshot right away
func (h *LeaderboardHub) Register(c *Client) {
	if !h.send(registerCmd{client: c}) {
		close(c.send)
	}
}

// Unregister removes a client and its entry
func (h *LeaderboardHub) Unregister(c *Client) {
	h.send(unregisterCmd{client: c})
}

// Report records score and wave for the client's connection
func (h *LeaderboardHub) Report(c *Client, username string, score, wave int) {
	h.send(reportCmd{client: c, username: username, score: score, wave: wave})
}

// Stop drops the client's entry, if any
func (h *LeaderboardHub) Stop(c *Client) {
	h.send(stopCmd{client: c})
}

// Sweep evicts idle entries now and returns how many were removed
func (h *LeaderboardHub) Sweep() int {
	reply := make(chan int, 1)
	if !h.send(sweepCmd{reply: reply}) {
		return 0
	}
	return <-reply
}

// Snapshot returns a sorted copy of the live entries
func (h *LeaderboardHub) Snapshot() []ActivePlayerEntry {
	reply := make(chan []ActivePlayerEntry, 1)
	if !h.send(snapshotCmd{reply: reply}) {
		return nil
	}
	return <-reply
}

func (h *LeaderboardHub) upsert(r reportCmd) {
	_, existed := h.entries[r.client.id]
	h.entries[r.client.id] = ActivePlayerEntry{
		Username:     r.username,
		Score:        r.score,
		Wave:         r.wave,
		LastUpdate:   h.now(),
		ConnectionID: r.client.id,
	}
	if !existed {
		h.log.Debug("leaderboard entry added", "conn", r.client.id, "username", r.username)
		h.activity.Track(EvtLeaderboardJoin, r.username, r.client.id, nil)
	}
}

func (h *LeaderboardHub) remove(connID, reason string) bool {
	e, ok := h.entries[connID]
	if !ok {
		return false
	}
	delete(h.entries, connID)
	h.log.Debug("leaderboard entry removed", "conn", connID, "username", e.Username, "reason", reason)
	h.activity.Track(EvtLeaderboardLeave, e.Username, connID, map[string]any{
		"reason": reason,
		"score":  e.Score,
		"wave":   e.Wave,
	})
	return true
}

func (h *LeaderboardHub) sweep() int {
	if h.ttl <= 0 {
		return 0
	}
	cutoff := h.now().Add(-h.ttl)
	n := 0
	for id, e := range h.entries {
		if e.LastUpdate.Before(cutoff) && h.remove(id, "idle") {
			n++
		}
	}
	if n > 0 {
		h.broadcast()
	}
	return n
}

// sorted orders entries by score, then wave, both descending
func (h *LeaderboardHub) sorted() []ActivePlayerEntry {
	out := make([]ActivePlayerEntry, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Wave != out[j].Wave {
			return out[i].Wave > out[j].Wave
		}
		return out[i].ConnectionID < out[j].ConnectionID
	})
	return out
}

func snapshotPayload(entries []ActivePlayerEntry) []protocol.SnapshotEntry {
	out := make([]protocol.SnapshotEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.SnapshotEntry{
			Username:     e.Username,
			Score:        e.Score,
			Wave:         e.Wave,
			ConnectionID: e.ConnectionID,
		}
	}
	return out
}

// snapshotFrames encodes the current snapshot once per wire format
type snapshotFrames struct {
	payload []protocol.SnapshotEntry
	frames  map[protocol.Encoding][]byte
}

func (f *snapshotFrames) get(enc protocol.Encoding) ([]byte, error) {
	if b, ok := f.frames[enc]; ok {
		return b, nil
	}
	b, err := protocol.Encode(enc, protocol.MsgSnapshot, f.payload)
	if err != nil {
		return nil, err
	}
	f.frames[enc] = b
	return b, nil
}

func (h *LeaderboardHub) newFrames() *snapshotFrames {
	return &snapshotFrames{
		payload: snapshotPayload(h.sorted()),
		frames:  make(map[protocol.Encoding][]byte, 2),
	}
}

func (h *LeaderboardHub) sendSnapshot(c *Client) {
	h.deliver(c, h.newFrames())
}

func (h *LeaderboardHub) broadcast() {
	f := h.newFrames()
	for c := range h.clients {
		h.deliver(c, f)
	}
}

func (h *LeaderboardHub) deliver(c *Client, f *snapshotFrames) {
	b, err := f.get(c.enc)
	if err != nil {
		h.log.Error("encode snapshot", "enc", c.enc, "err", err)
		return
	}
	if c.enc == protocol.MsgPack {
		c.SendBinary(b)
	} else {
		c.SendRaw(b)
	}
}
