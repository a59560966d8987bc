package imagefx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/retry"
	"github.com/skybi/imagefx/internal/transport"
)

// Endpoints holds the upstream URLs the client talks to
type Endpoints struct {
	Session  string
	Generate string
	Fetch    string
	Caption  string
}

// DefaultEndpoints returns the endpoints used by the ImageFX web client
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Session:  auth.DefaultSessionEndpoint,
		Generate: "https://aisandbox-pa.googleapis.com/v1:runImageFx",
		Fetch:    "https://labs.google/fx/api/trpc/media.fetchMedia",
		Caption:  "https://labs.google/fx/api/trpc/backbone.captionImage",
	}
}

// withDefaults fills in every empty endpoint with its default value
func (endpoints Endpoints) withDefaults() Endpoints {
	defaults := DefaultEndpoints()
	if endpoints.Session == "" {
		endpoints.Session = defaults.Session
	}
	if endpoints.Generate == "" {
		endpoints.Generate = defaults.Generate
	}
	if endpoints.Fetch == "" {
		endpoints.Fetch = defaults.Fetch
	}
	if endpoints.Caption == "" {
		endpoints.Caption = defaults.Caption
	}
	return endpoints
}

// Client composes the session manager, the request executor and the response mappers into the ImageFX operations
type Client struct {
	sessions  *auth.Manager
	executor  auth.Executor
	endpoints Endpoints
	logger    zerolog.Logger
	now       func() time.Time

	headers        http.Header
	refreshRetries int
	refreshHook    func(ctx context.Context, ses *auth.Session)
}

// Option configures a Client
type Option func(*Client)

// WithEndpoints overrides the upstream URLs; empty fields keep their default
func WithEndpoints(endpoints Endpoints) Option {
	return func(client *Client) {
		client.endpoints = endpoints.withDefaults()
	}
}

// WithExecutor replaces the request executor (a transport.Executor with default settings otherwise)
func WithExecutor(executor auth.Executor) Option {
	return func(client *Client) {
		client.executor = executor
	}
}

// WithServiceHeaders replaces the service-specific headers attached to authenticated calls
func WithServiceHeaders(headers http.Header) Option {
	return func(client *Client) {
		client.headers = headers.Clone()
	}
}

// WithRefreshRetries sets how often a failed session refresh is re-attempted
func WithRefreshRetries(n int) Option {
	return func(client *Client) {
		client.refreshRetries = n
	}
}

// WithRefreshHook registers a function receiving every freshly obtained session
func WithRefreshHook(hook func(ctx context.Context, ses *auth.Session)) Option {
	return func(client *Client) {
		client.refreshHook = hook
	}
}

// WithLogger sets the logger used by the client and its session manager
func WithLogger(logger zerolog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithClock replaces the time source used for session IDs and expiry checks
func WithClock(now func() time.Time) Option {
	return func(client *Client) {
		client.now = now
	}
}

// New creates a new ImageFX client using the given credential
func New(credential auth.Credential, opts ...Option) (*Client, error) {
	client := &Client{
		endpoints: DefaultEndpoints(),
		logger:    log.Logger,
		now:       time.Now,
		headers:   transport.DefaultHeaders(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.executor == nil {
		client.executor = transport.New(transport.WithLogger(client.logger))
	}

	sessions, err := auth.NewManager(credential, client.executor,
		auth.WithSessionEndpoint(client.endpoints.Session),
		auth.WithServiceHeaders(client.headers),
		auth.WithRefreshPolicy(retry.Policy{
			MaxRetries: client.refreshRetries,
			Retryable:  transport.IsRetryable,
			OnRetry:    client.logRetry("session refresh"),
		}),
		auth.WithRefreshHook(client.refreshHook),
		auth.WithManagerLogger(client.logger),
		auth.WithClock(client.now),
	)
	if err != nil {
		return nil, err
	}
	client.sessions = sessions
	return client, nil
}

// Sessions returns the session manager of the client
func (client *Client) Sessions() *auth.Manager {
	return client.sessions
}

// User returns the account the client is authenticated as.
// A pre-obtained token carries no account information; if a cookie is available the session is refreshed to obtain it.
func (client *Client) User(ctx context.Context) (auth.User, error) {
	if _, err := client.sessions.ValidToken(ctx); err != nil {
		return auth.User{}, err
	}
	ses := client.sessions.Session()
	if ses != nil && ses.User == (auth.User{}) {
		if err := client.sessions.Refresh(ctx); err != nil {
			return auth.User{}, err
		}
		ses = client.sessions.Session()
	}
	if ses == nil {
		return auth.User{}, &auth.Error{Message: "no session available"}
	}
	return ses.User, nil
}

func (client *Client) logRetry(operation string) func(attempt int, err error) {
	return func(attempt int, err error) {
		client.logger.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).Msg("upstream call failed; retrying")
	}
}

// retryableCall reports whether a failed authenticated call may be re-attempted.
// Session failures are final here; the session exchange applies its own refresh policy.
func retryableCall(err error) bool {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return false
	}
	return transport.IsRetryable(err)
}

// authenticatedCall performs a single upstream call with freshly validated auth headers
func (client *Client) authenticatedCall(ctx context.Context, method, url string, body []byte) (string, error) {
	headers, err := client.sessions.ValidHeaders(ctx)
	if err != nil {
		return "", err
	}
	return client.executor.Execute(ctx, transport.Request{
		Method: method,
		URL:    url,
		Header: headers,
		Body:   string(body),
	})
}
