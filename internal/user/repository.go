package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrMissingEmail is returned if a user should be stored without an email address
var ErrMissingEmail = errors.New("an email address is required to identify a user")

// Repository defines the user repository API
type Repository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Upsert creates a new user or updates the name and image of the existing user with the same email address
	Upsert(ctx context.Context, upsert *Upsert) (*User, error)
}

// Upsert is used to create or update a user
type Upsert struct {
	Email    string
	Name     string
	ImageURL string
}

// Validate normalizes the email address and ensures it is present
func (upsert *Upsert) Validate() error {
	upsert.Email = strings.ToLower(strings.TrimSpace(upsert.Email))
	if upsert.Email == "" {
		return ErrMissingEmail
	}
	return nil
}
