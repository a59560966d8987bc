package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/session"
	"github.com/skybi/imagefx/internal/session/storage/inmem"
	"github.com/skybi/imagefx/internal/storage"
	"github.com/skybi/imagefx/internal/user"
)

const (
	userLifetime    = 5 * time.Minute
	cleanupInterval = 10 * time.Second
)

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching.
// User lookups and recorded sessions are cached; history is always served by the underlying driver.
type Driver struct {
	underlying storage.Driver
	users      *UserRepository
	sessions   *SessionStorage
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver
func New(underlying storage.Driver) *Driver {
	return &Driver{
		underlying: underlying,
	}
}

// Initialize initializes the underlying driver and the caching repositories
func (driver *Driver) Initialize(ctx context.Context) error {
	if err := driver.underlying.Initialize(ctx); err != nil {
		return err
	}

	memory, err := inmem.New()
	if err != nil {
		return err
	}
	driver.sessions = &SessionStorage{
		storage: driver.underlying.Sessions(),
		memory:  memory,
		now:     time.Now,
	}

	byID := NewExpiring[uuid.UUID, *user.User](userLifetime)
	byID.ScheduleCleanupTask(cleanupInterval)
	byEmail := NewExpiring[string, *user.User](userLifetime)
	byEmail.ScheduleCleanupTask(cleanupInterval)
	driver.users = &UserRepository{
		repo:    driver.underlying.Users(),
		byID:    byID,
		byEmail: byEmail,
	}

	return nil
}

// Users provides the caching user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// History provides the history repository of the underlying driver
func (driver *Driver) History() history.Repository {
	return driver.underlying.History()
}

// Sessions provides the caching session storage implementation
func (driver *Driver) Sessions() session.Storage {
	return driver.sessions
}

// Close closes the caching repositories and the underlying driver
func (driver *Driver) Close() {
	if driver.users != nil {
		driver.users.byID.StopCleanupTask()
		driver.users.byEmail.StopCleanupTask()
		driver.users = nil
	}
	driver.sessions = nil
	driver.underlying.Close()
}
