package auth

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/imagefx/internal/retry"
	"github.com/skybi/imagefx/internal/transport"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// DefaultSessionEndpoint is the endpoint exchanging a session cookie for a bearer token
const DefaultSessionEndpoint = "https://labs.google/fx/api/auth/session"

const refreshKey = "refresh"

// Executor performs single upstream calls
type Executor interface {
	Execute(ctx context.Context, req transport.Request) (string, error)
}

// Manager owns a credential and the session derived from it.
// The session is only ever replaced as a whole; concurrent refreshes are collapsed into a single upstream call.
type Manager struct {
	credential Credential
	executor   Executor
	endpoint   string
	headers    http.Header
	policy     retry.Policy
	onRefresh  func(ctx context.Context, ses *Session)
	logger     zerolog.Logger
	now        func() time.Time

	current atomic.Pointer[Session]
	flight  singleflight.Group
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithSessionEndpoint overrides the session endpoint URL
func WithSessionEndpoint(endpoint string) ManagerOption {
	return func(manager *Manager) {
		manager.endpoint = endpoint
	}
}

// WithServiceHeaders sets the service-specific headers included in AuthHeaders
func WithServiceHeaders(headers http.Header) ManagerOption {
	return func(manager *Manager) {
		manager.headers = headers.Clone()
	}
}

// WithRefreshPolicy sets the retry policy applied to the session exchange (none by default)
func WithRefreshPolicy(policy retry.Policy) ManagerOption {
	return func(manager *Manager) {
		manager.policy = policy
	}
}

// WithRefreshHook registers a function receiving every freshly obtained session
func WithRefreshHook(hook func(ctx context.Context, ses *Session)) ManagerOption {
	return func(manager *Manager) {
		manager.onRefresh = hook
	}
}

// WithManagerLogger sets the logger used for session events
func WithManagerLogger(logger zerolog.Logger) ManagerOption {
	return func(manager *Manager) {
		manager.logger = logger
	}
}

// WithClock replaces the time source used for expiry checks
func WithClock(now func() time.Time) ManagerOption {
	return func(manager *Manager) {
		manager.now = now
	}
}

// NewManager creates a new session manager.
// A pre-obtained token in the credential is used as the initial session (without a known expiry).
func NewManager(credential Credential, executor Executor, opts ...ManagerOption) (*Manager, error) {
	if err := credential.Validate(); err != nil {
		return nil, err
	}
	manager := &Manager{
		credential: credential,
		executor:   executor,
		endpoint:   DefaultSessionEndpoint,
		headers:    transport.DefaultHeaders(),
		policy:     retry.None(),
		logger:     log.Logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(manager)
	}
	if credential.HasToken() {
		manager.current.Store(&Session{Token: credential.Token})
	}
	return manager, nil
}

// Session returns a copy of the current session or nil if there is none
func (manager *Manager) Session() *Session {
	ses := manager.current.Load()
	if ses == nil {
		return nil
	}
	cpy := *ses
	return &cpy
}

// IsExpired reports whether there is no session or the current one expired (including the ExpiryBuffer)
func (manager *Manager) IsExpired() bool {
	return manager.current.Load().ExpiredAt(manager.now())
}

// Refresh exchanges the cookie for a fresh session.
// If the exchange fails the previous session is discarded.
// Without a cookie no exchange is attempted and a seeded token stays in place.
func (manager *Manager) Refresh(ctx context.Context) error {
	_, err := manager.refreshShared(ctx)
	return err
}

// ValidToken returns the current bearer token, refreshing the session first if it expired
func (manager *Manager) ValidToken(ctx context.Context) (string, error) {
	token, err := manager.TokenSource(ctx).Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// AuthHeaders returns the header set to attach to authenticated calls.
// It does not refresh; use ValidHeaders to make sure the token is valid first.
func (manager *Manager) AuthHeaders() (http.Header, error) {
	return manager.headersFor(manager.current.Load().OAuth2Token())
}

// ValidHeaders combines ValidToken and AuthHeaders
func (manager *Manager) ValidHeaders(ctx context.Context) (http.Header, error) {
	token, err := manager.TokenSource(ctx).Token()
	if err != nil {
		return nil, err
	}
	return manager.headersFor(token)
}

// TokenSource adapts the manager to an oauth2.TokenSource refreshing through ctx
func (manager *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: manager}
}

func (manager *Manager) validSession(ctx context.Context) (*Session, error) {
	ses := manager.current.Load()
	if !ses.ExpiredAt(manager.now()) {
		return ses, nil
	}
	return manager.refreshShared(ctx)
}

func (manager *Manager) headersFor(token *oauth2.Token) (http.Header, error) {
	if token == nil || token.AccessToken == "" {
		return nil, &Error{Message: "no bearer token available; the session has to be refreshed first"}
	}
	headers := manager.headers.Clone()
	if manager.credential.HasCookie() {
		headers.Set("Cookie", manager.credential.Cookie)
	}
	headers.Set("Authorization", token.Type()+" "+token.AccessToken)
	return headers, nil
}

func (manager *Manager) refreshShared(ctx context.Context) (*Session, error) {
	// The shared refresh must not fail for everybody just because its initiator gave up
	shared := context.WithoutCancel(ctx)
	result := manager.flight.DoChan(refreshKey, func() (interface{}, error) {
		return manager.refresh(shared)
	})
	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, &Error{Message: "waiting for the session refresh was aborted", Cause: ctx.Err()}
	}
}

func (manager *Manager) refresh(ctx context.Context) (*Session, error) {
	if !manager.credential.HasCookie() {
		return nil, &Error{Message: "a cookie is required to refresh the session"}
	}

	headers := manager.headers.Clone()
	headers.Set("Cookie", manager.credential.Cookie)
	body, err := retry.Do(ctx, manager.policy, func(ctx context.Context) (string, error) {
		return manager.executor.Execute(ctx, transport.Request{
			Method: http.MethodGet,
			URL:    manager.endpoint,
			Header: headers,
		})
	})
	if err != nil {
		manager.current.Store(nil)
		return nil, &Error{Message: "could not refresh the session", Cause: err}
	}

	ses, err := ParseSession(body)
	if err != nil {
		manager.current.Store(nil)
		return nil, err
	}
	manager.current.Store(ses)
	manager.logger.Debug().Str("user", ses.User.Email).Time("expires_at", ses.ExpiresAt).Msg("refreshed the ImageFX session")

	if manager.onRefresh != nil {
		cpy := *ses
		manager.onRefresh(ctx, &cpy)
	}
	return ses, nil
}

type tokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (src *tokenSource) Token() (*oauth2.Token, error) {
	ses, err := src.manager.validSession(src.ctx)
	if err != nil {
		return nil, err
	}
	return ses.OAuth2Token(), nil
}
