package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage defines the session storage API
type Storage interface {
	// GetByRawToken retrieves a session by its raw (prior hashing) token
	GetByRawToken(ctx context.Context, rawToken string) (*Session, error)

	// Create records a new session for the given raw token
	Create(ctx context.Context, userID uuid.UUID, rawToken string, expiresAt time.Time) (*Session, error)

	// TerminateByUserID terminates all sessions of a specific user ID
	TerminateByUserID(ctx context.Context, userID uuid.UUID) error

	// TerminateExpired terminates all sessions that are expired and returns how many were removed
	TerminateExpired(ctx context.Context) (int, error)
}
