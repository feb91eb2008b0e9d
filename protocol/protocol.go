package protocol

import "encoding/json"

// Client -> Server message types
const (
	MsgReport = "report" // live score/wave for this connection
	MsgStop   = "stop"   // session ended, drop the entry
)

// Server -> Client message types
const (
	MsgSnapshot = "snapshot"
	MsgError    = "error"
)

// MaxUsernameLen bounds leaderboard and stats usernames (runes)
const MaxUsernameLen = 32

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string `json:"t" msgpack:"t"`
	Data any    `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; the payload is decoded once the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ReportMsg is sent on connect, periodically and on every score/wave change
type ReportMsg struct {
	Username string `json:"username"`
	Score    Number `json:"score"`
	Wave     Number `json:"wave"`
}

// StopMsg is sent on game over or quit
type StopMsg struct {
	Username string `json:"username"`
}

// SnapshotEntry is one active session in a leaderboard snapshot
type SnapshotEntry struct {
	Username     string `json:"username" msgpack:"username"`
	Score        int    `json:"score" msgpack:"score"`
	Wave         int    `json:"wave" msgpack:"wave"`
	ConnectionID string `json:"connectionId" msgpack:"connectionId"`
}

// ErrorMsg reports a rejected message to the client
type ErrorMsg struct {
	Msg string `json:"msg" msgpack:"msg"`
}
