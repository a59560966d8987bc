package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_Execute(t *testing.T) {
	t.Run("returns the body of a successful response and merges headers", func(t *testing.T) {
		var gotHeader http.Header
		var gotBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHeader = r.Header.Clone()
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
			w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		header := make(http.Header)
		header.Set("Authorization", "Bearer abc")
		body, err := New().Execute(context.Background(), Request{
			Method: http.MethodPost,
			URL:    server.URL,
			Header: header,
			Body:   "fizz=buzz",
		})

		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, body)
		assert.Equal(t, "fizz=buzz", gotBody)
		assert.Equal(t, "Bearer abc", gotHeader.Get("Authorization"))
		assert.Equal(t, "https://labs.google", gotHeader.Get("Origin"))
		assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	})

	t.Run("turns non-2xx statuses into transport errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}))
		defer server.Close()

		_, err := New().Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL})

		var transportErr *Error
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
		assert.Equal(t, "boom", transportErr.Body)
		assert.Equal(t, ReasonStatus, transportErr.Reason)
		assert.True(t, IsStatus(err, http.StatusInternalServerError))
		assert.True(t, IsRetryable(err))
	})

	t.Run("turns connection failures into network errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := New().Execute(context.Background(), Request{Method: http.MethodGet, URL: url})

		var transportErr *Error
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, ReasonNetwork, transportErr.Reason)
		assert.Zero(t, transportErr.StatusCode)
		assert.True(t, IsRetryable(err))
	})

	t.Run("enforces the per-call timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		_, err := New(WithTimeout(20*time.Millisecond)).Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL})

		var transportErr *Error
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, ReasonNetwork, transportErr.Reason)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("rejects malformed requests without retrying", func(t *testing.T) {
		_, err := New().Execute(context.Background(), Request{Method: "BAD METHOD", URL: "http://example.com"})

		var transportErr *Error
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, ReasonRequest, transportErr.Reason)
		assert.False(t, IsRetryable(err))
	})
}

func TestExecutor_HeadersAreImmutable(t *testing.T) {
	headers := make(http.Header)
	headers.Set("X-Fizz", "Buzz")
	ex := New(WithDefaultHeaders(headers))

	headers.Set("X-Fizz", "Changed")
	copied := ex.Headers()
	copied.Set("X-Fizz", "Changed again")

	assert.Equal(t, "Buzz", ex.Headers().Get("X-Fizz"))
}
