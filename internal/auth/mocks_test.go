package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skybi/imagefx/internal/transport"
)

// fakeExecutor replays a fixed response and records every request it receives
type fakeExecutor struct {
	mu       sync.Mutex
	requests []transport.Request
	calls    atomic.Int32
	delay    time.Duration
	respond  func(call int) (string, error)
}

func (ex *fakeExecutor) Execute(_ context.Context, req transport.Request) (string, error) {
	call := int(ex.calls.Add(1))
	ex.mu.Lock()
	ex.requests = append(ex.requests, req)
	ex.mu.Unlock()
	if ex.delay > 0 {
		time.Sleep(ex.delay)
	}
	return ex.respond(call)
}

func (ex *fakeExecutor) lastRequest() transport.Request {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.requests[len(ex.requests)-1]
}

func sessionBody(token string, expires time.Time) string {
	return `{"access_token":"` + token + `","expires":"` + expires.UTC().Format(time.RFC3339) +
		`","user":{"name":"Jane","email":"jane@example.com","image":"https://example.com/jane.png"}}`
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time {
		return now
	}
}
