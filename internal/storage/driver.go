package storage

import (
	"context"

	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/session"
	"github.com/skybi/imagefx/internal/user"
)

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Users provides a user repository implementation
	Users() user.Repository

	// History provides a prompt, image and caption history repository implementation
	History() history.Repository

	// Sessions provides a session storage implementation
	Sessions() session.Storage

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}
