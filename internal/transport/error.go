package transport

import (
	"context"
	"errors"
	"fmt"
)

const (
	// ReasonStatus marks an upstream response with a non-2xx status code
	ReasonStatus = "status"

	// ReasonNetwork marks a request that never produced a response (DNS, TLS, timeout, reset)
	ReasonNetwork = "network"

	// ReasonRequest marks a request that could not be constructed
	ReasonRequest = "request"
)

// maxBodyInMessage limits how much of an upstream body ends up in an error message
const maxBodyInMessage = 512

// Error represents a failed upstream HTTP call.
// StatusCode and Body are only set if the upstream actually responded.
type Error struct {
	StatusCode int
	Body       string
	Reason     string
	Cause      error
}

func (err *Error) Error() string {
	switch {
	case err.StatusCode != 0:
		body := err.Body
		if len(body) > maxBodyInMessage {
			body = body[:maxBodyInMessage] + "..."
		}
		return fmt.Sprintf("upstream responded with status %d: %s", err.StatusCode, body)
	case err.Cause != nil:
		return fmt.Sprintf("%s failure: %s", err.Reason, err.Cause.Error())
	default:
		return err.Reason + " failure"
	}
}

func (err *Error) Unwrap() error {
	return err.Cause
}

// IsStatus reports whether err is a transport error carrying the given HTTP status code
func IsStatus(err error, code int) bool {
	var transportErr *Error
	return errors.As(err, &transportErr) && transportErr.StatusCode == code
}

// IsRetryable reports whether err is a transport error worth another attempt.
// Every status and network failure qualifies unless the caller's context was cancelled; malformed requests never do.
func IsRetryable(err error) bool {
	var transportErr *Error
	if !errors.As(err, &transportErr) {
		return false
	}
	if transportErr.Reason == ReasonRequest {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
