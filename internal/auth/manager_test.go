package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/skybi/imagefx/internal/retry"
	"github.com/skybi/imagefx/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNewManager(t *testing.T) {
	t.Run("rejects a blank credential", func(t *testing.T) {
		_, err := NewManager(Credential{Cookie: "  ", Token: ""}, &fakeExecutor{})

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
	})

	t.Run("starts unauthenticated with only a cookie", func(t *testing.T) {
		manager, err := NewManager(Credential{Cookie: "sid=1"}, &fakeExecutor{})

		require.NoError(t, err)
		assert.Nil(t, manager.Session())
		assert.True(t, manager.IsExpired())
	})

	t.Run("seeds a pre-obtained token that never expires by clock", func(t *testing.T) {
		manager, err := NewManager(Credential{Token: "ya29.token"}, &fakeExecutor{}, WithClock(fixedClock(now.Add(24*time.Hour))))

		require.NoError(t, err)
		assert.False(t, manager.IsExpired())
		token, err := manager.ValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ya29.token", token)
	})
}

func TestSession_ExpiredAt(t *testing.T) {
	cases := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{name: "well in the future", expiresAt: now.Add(time.Hour), expired: false},
		{name: "one second in the future", expiresAt: now.Add(time.Second), expired: false},
		{name: "exactly at the buffer boundary", expiresAt: now.Add(-ExpiryBuffer), expired: true},
		{name: "within the buffer", expiresAt: now.Add(-ExpiryBuffer + time.Second), expired: false},
		{name: "long gone", expiresAt: now.Add(-time.Hour), expired: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ses := &Session{Token: "abc", ExpiresAt: c.expiresAt}
			assert.Equal(t, c.expired, ses.ExpiredAt(now))
		})
	}

	t.Run("nil and token-less sessions are expired", func(t *testing.T) {
		var ses *Session
		assert.True(t, ses.ExpiredAt(now))
		assert.True(t, (&Session{ExpiresAt: now.Add(time.Hour)}).ExpiredAt(now))
	})
}

func TestManager_Refresh(t *testing.T) {
	t.Run("swaps in the new session on success", func(t *testing.T) {
		expires := now.Add(time.Hour)
		ex := &fakeExecutor{respond: func(int) (string, error) {
			return sessionBody("fresh", expires), nil
		}}
		var hooked *Session
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex,
			WithClock(fixedClock(now)),
			WithSessionEndpoint("https://session.test"),
			WithRefreshHook(func(_ context.Context, ses *Session) {
				hooked = ses
			}),
		)
		require.NoError(t, err)

		require.NoError(t, manager.Refresh(context.Background()))

		ses := manager.Session()
		require.NotNil(t, ses)
		assert.Equal(t, "fresh", ses.Token)
		assert.True(t, expires.Equal(ses.ExpiresAt))
		assert.Equal(t, "jane@example.com", ses.User.Email)
		assert.False(t, manager.IsExpired())
		require.NotNil(t, hooked)
		assert.Equal(t, "fresh", hooked.Token)

		req := ex.lastRequest()
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "https://session.test", req.URL)
		assert.Equal(t, "sid=1", req.Header.Get("Cookie"))
	})

	t.Run("discards the previous session if the exchange fails", func(t *testing.T) {
		ex := &fakeExecutor{respond: func(call int) (string, error) {
			if call == 1 {
				return sessionBody("first", now.Add(time.Hour)), nil
			}
			return "", &transport.Error{StatusCode: http.StatusUnauthorized, Reason: transport.ReasonStatus}
		}}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex, WithClock(fixedClock(now)))
		require.NoError(t, err)
		require.NoError(t, manager.Refresh(context.Background()))

		err = manager.Refresh(context.Background())

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
		assert.True(t, transport.IsStatus(err, http.StatusUnauthorized))
		assert.Nil(t, manager.Session())
		assert.True(t, manager.IsExpired())
	})

	t.Run("discards the previous session if the body is incomplete", func(t *testing.T) {
		ex := &fakeExecutor{respond: func(call int) (string, error) {
			if call == 1 {
				return sessionBody("first", now.Add(time.Hour)), nil
			}
			return `{"access_token":"x"}`, nil
		}}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex, WithClock(fixedClock(now)))
		require.NoError(t, err)
		require.NoError(t, manager.Refresh(context.Background()))

		err = manager.Refresh(context.Background())

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
		assert.Nil(t, manager.Session())
	})

	t.Run("requires a cookie", func(t *testing.T) {
		ex := &fakeExecutor{}
		manager, err := NewManager(Credential{Token: "abc"}, ex)
		require.NoError(t, err)

		err = manager.Refresh(context.Background())

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
		assert.Zero(t, ex.calls.Load())
		assert.NotNil(t, manager.Session())
	})

	t.Run("applies the refresh retry policy", func(t *testing.T) {
		ex := &fakeExecutor{respond: func(call int) (string, error) {
			if call < 3 {
				return "", &transport.Error{StatusCode: http.StatusBadGateway, Reason: transport.ReasonStatus}
			}
			return sessionBody("third", now.Add(time.Hour)), nil
		}}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex,
			WithClock(fixedClock(now)),
			WithRefreshPolicy(retry.Policy{MaxRetries: 2, Retryable: transport.IsRetryable}),
		)
		require.NoError(t, err)

		require.NoError(t, manager.Refresh(context.Background()))
		assert.EqualValues(t, 3, ex.calls.Load())
		assert.Equal(t, "third", manager.Session().Token)
	})

	t.Run("maps a 401 of the real endpoint to an auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		manager, err := NewManager(Credential{Cookie: "sid=1"}, transport.New(), WithSessionEndpoint(server.URL))
		require.NoError(t, err)

		_, err = manager.ValidToken(context.Background())

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
	})
}

func TestManager_AuthHeaders(t *testing.T) {
	t.Run("fails without a token", func(t *testing.T) {
		manager, err := NewManager(Credential{Cookie: "sid=1"}, &fakeExecutor{})
		require.NoError(t, err)

		_, err = manager.AuthHeaders()

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
	})

	t.Run("combines service headers, cookie and bearer token", func(t *testing.T) {
		manager, err := NewManager(Credential{Cookie: "sid=1", Token: "abc"}, &fakeExecutor{})
		require.NoError(t, err)

		headers, err := manager.AuthHeaders()

		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", headers.Get("Authorization"))
		assert.Equal(t, "sid=1", headers.Get("Cookie"))
		assert.Equal(t, "https://labs.google", headers.Get("Origin"))
	})
}

func TestManager_ValidToken(t *testing.T) {
	t.Run("does not refresh a valid session", func(t *testing.T) {
		ex := &fakeExecutor{respond: func(int) (string, error) {
			return sessionBody("fresh", now.Add(time.Hour)), nil
		}}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex, WithClock(fixedClock(now)))
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			token, err := manager.ValidToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "fresh", token)
		}
		assert.EqualValues(t, 1, ex.calls.Load())
	})

	t.Run("refreshes once more after the session expired", func(t *testing.T) {
		current := now
		ex := &fakeExecutor{respond: func(call int) (string, error) {
			return sessionBody("token-"+strconv.Itoa(call), current.Add(time.Hour)), nil
		}}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex, WithClock(func() time.Time { return current }))
		require.NoError(t, err)

		token, err := manager.ValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)

		current = now.Add(time.Hour + ExpiryBuffer - time.Second)
		assert.False(t, manager.IsExpired())
		token, err = manager.ValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)
		assert.EqualValues(t, 1, ex.calls.Load())

		current = now.Add(time.Hour + ExpiryBuffer)
		assert.True(t, manager.IsExpired())
		for i := 0; i < 2; i++ {
			headers, err := manager.ValidHeaders(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "Bearer token-2", headers.Get("Authorization"))
		}
		assert.EqualValues(t, 2, ex.calls.Load())
	})

	t.Run("concurrent callers share a single refresh", func(t *testing.T) {
		ex := &fakeExecutor{
			delay: 50 * time.Millisecond,
			respond: func(int) (string, error) {
				return sessionBody("shared", now.Add(time.Hour)), nil
			},
		}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex, WithClock(fixedClock(now)))
		require.NoError(t, err)

		const callers = 16
		var wg sync.WaitGroup
		tokens := make([]string, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tokens[i], errs[i] = manager.ValidToken(context.Background())
			}(i)
		}
		wg.Wait()

		assert.EqualValues(t, 1, ex.calls.Load())
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, "shared", tokens[i])
		}
	})

	t.Run("a waiter honours its own context", func(t *testing.T) {
		ex := &fakeExecutor{
			delay: 200 * time.Millisecond,
			respond: func(int) (string, error) {
				return sessionBody("late", now.Add(time.Hour)), nil
			},
		}
		manager, err := NewManager(Credential{Cookie: "sid=1"}, ex, WithClock(fixedClock(now)))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = manager.ValidToken(ctx)

		var authErr *Error
		require.True(t, errors.As(err, &authErr))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestManager_TokenSource(t *testing.T) {
	manager, err := NewManager(Credential{Token: "abc"}, &fakeExecutor{})
	require.NoError(t, err)

	token, err := manager.TokenSource(context.Background()).Token()

	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
}
