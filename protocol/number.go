package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient JSON number. It accepts numbers, numeric strings,
// booleans and null; anything unparsable or non-finite decodes as invalid
// so callers can substitute their own fallback.
type Number struct {
	Value float64
	Valid bool
}

// N wraps a finite value
func N(v float64) Number { return Number{Value: v, Valid: true} }

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, string(b) == "null":
		return nil
	case string(b) == "true":
		*n = N(1)
		return nil
	case string(b) == "false":
		*n = N(0)
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = N(0)
			return nil
		}
		n.set(strconv.ParseFloat(s, 64))
		return nil
	case b[0] == '{' || b[0] == '[':
		return nil
	}
	n.set(strconv.ParseFloat(string(b), 64))
	return nil
}

func (n *Number) set(v float64, err error) {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	*n = N(v)
}

// Or returns the value, or fallback when invalid
func (n Number) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// IntOr truncates the value toward zero, saturating at the int32 range,
// or returns fallback when invalid.
func (n Number) IntOr(fallback int) int {
	switch {
	case !n.Valid:
		return fallback
	case n.Value > math.MaxInt32:
		return math.MaxInt32
	case n.Value < math.MinInt32:
		return math.MinInt32
	}
	return int(n.Value)
}
