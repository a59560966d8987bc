package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Session represents a recorded ImageFX bearer token.
// Only the SHA-256 hash of the token is ever stored.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session expired at the given time
func (ses *Session) Expired(now time.Time) bool {
	return !ses.ExpiresAt.After(now)
}

// HashToken hashes a raw bearer token the way it is stored
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
