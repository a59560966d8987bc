package auth

import "strings"

// Credential holds what is needed to authenticate against ImageFX: a browser session cookie, a pre-obtained bearer
// token or both.
type Credential struct {
	Cookie string
	Token  string
}

// NewCredential creates a new credential after trimming both values.
// At least one of them has to be non-blank.
func NewCredential(cookie, token string) (Credential, error) {
	cred := Credential{
		Cookie: strings.TrimSpace(cookie),
		Token:  strings.TrimSpace(token),
	}
	if err := cred.Validate(); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// Validate makes sure the credential carries a cookie or a token
func (cred Credential) Validate() error {
	if !cred.HasCookie() && !cred.HasToken() {
		return &Error{Message: "a cookie or a bearer token is required"}
	}
	return nil
}

// HasCookie reports whether the credential can be used to refresh a session
func (cred Credential) HasCookie() bool {
	return strings.TrimSpace(cred.Cookie) != ""
}

// HasToken reports whether the credential carries a pre-obtained bearer token
func (cred Credential) HasToken() bool {
	return strings.TrimSpace(cred.Token) != ""
}
