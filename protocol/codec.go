package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects the wire format for server -> client frames
type Encoding int

const (
	JSON    Encoding = iota // text frames
	MsgPack                 // binary frames
)

// ParseEncoding reads the ?enc= query value; anything but "msgpack" is JSON
func ParseEncoding(s string) Encoding {
	if strings.EqualFold(s, "msgpack") {
		return MsgPack
	}
	return JSON
}

func (e Encoding) String() string {
	if e == MsgPack {
		return "msgpack"
	}
	return "json"
}

var (
	ErrEmptyFrame     = errors.New("empty frame")
	ErrUnexpectedType = errors.New("unexpected message type")
)

// Encode wraps payload in an Envelope of type t
func Encode(enc Encoding, t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty envelope type")
	}
	env := Envelope{T: t, Data: payload}
	if enc == MsgPack {
		return msgpack.Marshal(env)
	}
	return json.Marshal(env)
}

// DecodeEnvelope parses an incoming JSON frame
func DecodeEnvelope(b []byte) (InEnvelope, error) {
	if len(b) == 0 {
		return InEnvelope{}, ErrEmptyFrame
	}
	var env InEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return InEnvelope{}, err
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into T
func DecodePayload[T any](env InEnvelope) (T, error) {
	var out T
	if len(env.D) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.D, &out)
	return out, err
}

// DecodeSnapshot parses a server snapshot frame in either encoding
func DecodeSnapshot(enc Encoding, b []byte) ([]SnapshotEntry, error) {
	if len(b) == 0 {
		return nil, ErrEmptyFrame
	}
	var env struct {
		T string          `json:"t" msgpack:"t"`
		D []SnapshotEntry `json:"d" msgpack:"d"`
	}
	var err error
	if enc == MsgPack {
		err = msgpack.Unmarshal(b, &env)
	} else {
		err = json.Unmarshal(b, &env)
	}
	if err != nil {
		return nil, err
	}
	if env.T != MsgSnapshot {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, env.T)
	}
	return env.D, nil
}

// CleanUsername trims whitespace and cuts the name to MaxUsernameLen runes.
// An empty result means no usable username was given.
func CleanUsername(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxUsernameLen {
		return s
	}
	r := []rune(s)
	return string(r[:MaxUsernameLen])
}
