package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wavesurvival/protocol"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// Client is one leaderboard websocket connection
type Client struct {
	hub        *LeaderboardHub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	remoteAddr string
	enc        protocol.Encoding
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a Client with a fresh connection id
func NewClient(hub *LeaderboardHub, conn *websocket.Conn, remoteAddr string, enc protocol.Encoding) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		enc:        enc,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("ws read", "conn", c.id, "err", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.log.Warn("rate limit exceeded, disconnecting", "conn", c.id, "ip", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks a binary frame, see SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendRaw queues a text frame. Slow clients drop frames.
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

// SendBinary queues a binary frame
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(text string) {
	b, err := protocol.Encode(c.enc, protocol.MsgError, protocol.ErrorMsg{Msg: text})
	if err != nil {
		return
	}
	if c.enc == protocol.MsgPack {
		c.SendBinary(b)
	} else {
		c.SendRaw(b)
	}
}

// handleMessage routes one incoming frame. Malformed frames are logged and dropped.
func (c *Client) handleMessage(raw []byte) {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		c.hub.log.Debug("bad frame", "conn", c.id, "err", err)
		return
	}

	switch env.T {
	case protocol.MsgReport:
		c.handleReport(env)
	case protocol.MsgStop:
		c.hub.Stop(c)
	default:
		c.hub.log.Debug("unknown message type", "conn", c.id, "type", env.T)
	}
}

func (c *Client) handleReport(env protocol.InEnvelope) {
	msg, err := protocol.DecodePayload[protocol.ReportMsg](env)
	if err != nil {
		c.hub.log.Debug("bad report", "conn", c.id, "err", err)
		return
	}
	username := protocol.CleanUsername(msg.Username)
	if username == "" {
		c.sendError("username is required")
		return
	}
	c.hub.Report(c, username, msg.Score.IntOr(0), msg.Wave.IntOr(0))
}
