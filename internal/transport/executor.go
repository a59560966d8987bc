package transport

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout is the per-call timeout used if none is configured
const DefaultTimeout = 60 * time.Second

// Request describes a single upstream call
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// Executor performs single HTTP calls against the upstream service.
// It never retries and never interprets response bodies.
type Executor struct {
	client  *http.Client
	headers http.Header
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(ex *Executor) {
		if client != nil {
			ex.client = client
		}
	}
}

// WithTimeout sets the per-call timeout; values <= 0 disable it
func WithTimeout(timeout time.Duration) Option {
	return func(ex *Executor) {
		ex.timeout = timeout
	}
}

// WithDefaultHeaders replaces the headers sent with every request.
// The given header set is copied, later changes to it have no effect.
func WithDefaultHeaders(headers http.Header) Option {
	return func(ex *Executor) {
		ex.headers = headers.Clone()
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger zerolog.Logger) Option {
	return func(ex *Executor) {
		ex.logger = logger
	}
}

// DefaultHeaders returns the headers the ImageFX web client sends with every request
func DefaultHeaders() http.Header {
	headers := make(http.Header)
	headers.Set("Origin", "https://labs.google")
	headers.Set("Referer", "https://labs.google/fx/tools/image-fx")
	headers.Set("Content-Type", "application/json")
	return headers
}

// New creates a new request executor
func New(opts ...Option) *Executor {
	ex := &Executor{
		client:  &http.Client{},
		headers: DefaultHeaders(),
		timeout: DefaultTimeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// Headers returns a copy of the headers sent with every request
func (ex *Executor) Headers() http.Header {
	return ex.headers.Clone()
}

// Execute performs the given request and returns the response body.
// Any non-2xx status and any connection failure is returned as an *Error.
func (ex *Executor) Execute(ctx context.Context, req Request) (string, error) {
	ctx, cancel := applyTimeout(ctx, ex.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return "", &Error{Reason: ReasonRequest, Cause: err}
	}
	httpReq.Header = ex.headers.Clone()
	for key, values := range req.Header {
		httpReq.Header[key] = append([]string(nil), values...)
	}

	started := time.Now()
	resp, err := ex.client.Do(httpReq)
	if err != nil {
		ex.logger.Debug().Err(err).Str("method", req.Method).Str("url", req.URL).Msg("upstream request failed")
		return "", &Error{Reason: ReasonNetwork, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Reason: ReasonNetwork, Cause: err}
	}
	ex.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(started)).
		Msg("upstream request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Reason:     ReasonStatus,
		}
	}
	return string(raw), nil
}

func applyTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
