package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/session"
	"github.com/skybi/imagefx/internal/session/storage/inmem"
)

// SessionStorage implements the session.Storage interface by keeping recorded sessions in an in-memory store
// in front of the underlying one
type SessionStorage struct {
	storage session.Storage
	memory  *inmem.Driver
	now     func() time.Time
}

var _ session.Storage = (*SessionStorage)(nil)

// GetByRawToken retrieves a session by its raw (prior hashing) token.
// Expired in-memory entries are looked up again in the underlying storage.
func (store *SessionStorage) GetByRawToken(ctx context.Context, rawToken string) (*session.Session, error) {
	cached, err := store.memory.GetByRawToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if cached != nil && !cached.Expired(store.now()) {
		return cached, nil
	}
	obj, err := store.storage.GetByRawToken(ctx, rawToken)
	if err != nil || obj == nil {
		return obj, err
	}
	if err := store.memory.Put(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Create records a new session in the underlying storage and keeps it in memory
func (store *SessionStorage) Create(ctx context.Context, userID uuid.UUID, rawToken string, expiresAt time.Time) (*session.Session, error) {
	obj, err := store.storage.Create(ctx, userID, rawToken, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := store.memory.Put(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// TerminateByUserID terminates all sessions of a specific user ID
func (store *SessionStorage) TerminateByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := store.storage.TerminateByUserID(ctx, userID); err != nil {
		return err
	}
	return store.memory.TerminateByUserID(ctx, userID)
}

// TerminateExpired terminates all expired sessions and returns how many the underlying storage removed
func (store *SessionStorage) TerminateExpired(ctx context.Context) (int, error) {
	n, err := store.storage.TerminateExpired(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := store.memory.TerminateExpired(ctx); err != nil {
		return 0, err
	}
	return n, nil
}
