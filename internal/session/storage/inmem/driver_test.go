package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newDriver(t *testing.T) *Driver {
	driver, err := New()
	require.NoError(t, err)
	driver.now = func() time.Time { return now }
	return driver
}

func TestDriver_Create(t *testing.T) {
	ctx := context.Background()
	driver := newDriver(t)
	userID := uuid.New()

	created, err := driver.Create(ctx, userID, "raw-token", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, session.HashToken("raw-token"), created.TokenHash)
	assert.NotEqual(t, "raw-token", created.TokenHash)

	t.Run("finds the session by its raw token", func(t *testing.T) {
		found, err := driver.GetByRawToken(ctx, "raw-token")

		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, userID, found.UserID)
		assert.True(t, now.Add(time.Hour).Equal(found.ExpiresAt))
	})

	t.Run("returns nil for unknown tokens", func(t *testing.T) {
		found, err := driver.GetByRawToken(ctx, "other-token")

		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("replaces an already recorded token", func(t *testing.T) {
		replaced, err := driver.Create(ctx, userID, "raw-token", now.Add(2*time.Hour))
		require.NoError(t, err)

		found, err := driver.GetByRawToken(ctx, "raw-token")
		require.NoError(t, err)
		assert.Equal(t, replaced.ID, found.ID)
	})
}

func TestDriver_TerminateByUserID(t *testing.T) {
	ctx := context.Background()
	driver := newDriver(t)
	alice, bob := uuid.New(), uuid.New()
	_, err := driver.Create(ctx, alice, "alice-1", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = driver.Create(ctx, alice, "alice-2", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = driver.Create(ctx, bob, "bob-1", now.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, driver.TerminateByUserID(ctx, alice))

	for _, token := range []string{"alice-1", "alice-2"} {
		found, err := driver.GetByRawToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, found)
	}
	found, err := driver.GetByRawToken(ctx, "bob-1")
	require.NoError(t, err)
	assert.NotNil(t, found)
}

func TestDriver_TerminateExpired(t *testing.T) {
	ctx := context.Background()
	driver := newDriver(t)
	userID := uuid.New()
	tokens := map[string]time.Time{
		"long-expired": now.Add(-time.Hour),
		"just-expired": now,
		"valid":        now.Add(time.Second),
		"long-valid":   now.Add(time.Hour),
	}
	for token, expiresAt := range tokens {
		_, err := driver.Create(ctx, userID, token, expiresAt)
		require.NoError(t, err)
	}

	n, err := driver.TerminateExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for token, expiresAt := range tokens {
		found, err := driver.GetByRawToken(ctx, token)
		require.NoError(t, err)
		if expiresAt.After(now) {
			assert.NotNil(t, found, token)
		} else {
			assert.Nil(t, found, token)
		}
	}

	n, err = driver.TerminateExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDriver_Put(t *testing.T) {
	ctx := context.Background()
	driver := newDriver(t)
	recorded := &session.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		TokenHash: session.HashToken("raw-token"),
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}

	require.NoError(t, driver.Put(recorded))
	require.NoError(t, driver.Put(recorded))

	found, err := driver.GetByRawToken(ctx, "raw-token")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, recorded.ID, found.ID)
	assert.Equal(t, recorded.UserID, found.UserID)
	n, err := driver.TerminateExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
