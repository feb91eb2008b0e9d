package remote

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

const tabAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewBaseUsername returns a persistent-style name like "Player-1a2b3c4d"
func NewBaseUsername() string {
	return "Player-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewTabID returns a short per-session suffix
func NewTabID(rng *rand.Rand) string {
	b := make([]byte, 7)
	for i := range b {
		b[i] = tabAlphabet[rng.Intn(len(tabAlphabet))]
	}
	return string(b)
}

// SessionUsername joins a base name and a session suffix so that several
// sessions of the same player show up as separate leaderboard rows.
func SessionUsername(base, tabID string) string {
	if tabID == "" {
		return base
	}
	return base + "-" + tabID
}
