package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID generates a lexicographically sortable unique id, used for
// strokes and broadcast envelopes.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}

// GenerateSessionID generates a session id unique enough for a single
// client: a timestamp plus a random suffix. Never empty, never contains
// path separators.
func GenerateSessionID() string {
	timestamp := time.Now().UnixMilli()
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("session-%d-%s", timestamp, suffix)
}

// GuestUsername synthesizes a username for a user record that has none
func GuestUsername() string {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	return "Guest_" + ts[len(ts)-4:]
}

// RandomAvatarColor returns a random hex color for a participant avatar
func RandomAvatarColor() string {
	n, err := rand.Int(rand.Reader, big.NewInt(0xFFFFFF+1))
	if err != nil {
		return "#888888"
	}
	return fmt.Sprintf("#%06x", n.Int64())
}
