package auth

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// ExpiryBuffer is subtracted from the current time when checking a session's expiry
const ExpiryBuffer = 30 * time.Second

// User represents the account a session belongs to
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// Session represents a bearer token obtained from the session endpoint.
// A zero ExpiresAt means the expiry is unknown (pre-obtained token); such a session never expires by clock.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// ExpiredAt reports whether the session has to be refreshed at the given time
func (ses *Session) ExpiredAt(now time.Time) bool {
	if ses == nil || ses.Token == "" {
		return true
	}
	if ses.ExpiresAt.IsZero() {
		return false
	}
	return !ses.ExpiresAt.After(now.Add(-ExpiryBuffer))
}

// OAuth2Token converts the session into an OAuth2 bearer token; nil sessions yield nil
func (ses *Session) OAuth2Token() *oauth2.Token {
	if ses == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken: ses.Token,
		TokenType:   "Bearer",
		Expiry:      ses.ExpiresAt,
	}
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	Expires     string `json:"expires"`
	User        *User  `json:"user"`
}

// ParseSession maps the body of the session endpoint into a Session
func ParseSession(body string) (*Session, error) {
	var raw sessionResponse
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &Error{Message: "session response is not valid JSON", Cause: err}
	}
	if raw.AccessToken == "" || raw.Expires == "" || raw.User == nil || *raw.User == (User{}) {
		return nil, &Error{Message: "session response is missing some fields"}
	}
	expiresAt, err := time.Parse(time.RFC3339, raw.Expires)
	if err != nil {
		return nil, &Error{Message: "session response carries an invalid expiry", Cause: err}
	}
	return &Session{
		Token:     raw.AccessToken,
		ExpiresAt: expiresAt,
		User:      *raw.User,
	}, nil
}
