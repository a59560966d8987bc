package cache

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/user"
)

// UserRepository implements the user.Repository interface in order to implement caching
type UserRepository struct {
	repo    user.Repository
	byID    *ExpiringMap[uuid.UUID, *user.User]
	byEmail *ExpiringMap[string, *user.User]
}

var _ user.Repository = (*UserRepository)(nil)

// GetByID retrieves a user by their ID
func (repo *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	cached, ok := repo.byID.Lookup(id)
	if ok {
		return cached, nil
	}
	obj, err := repo.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		repo.store(obj)
	}
	return obj, nil
}

// GetByEmail retrieves a user by their email address
func (repo *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	cached, ok := repo.byEmail.Lookup(normalizeEmail(email))
	if ok {
		return cached, nil
	}
	obj, err := repo.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		repo.store(obj)
	}
	return obj, nil
}

// Upsert creates a new user or updates the existing one with the same email address
func (repo *UserRepository) Upsert(ctx context.Context, upsert *user.Upsert) (*user.User, error) {
	obj, err := repo.repo.Upsert(ctx, upsert)
	if err != nil {
		return nil, err
	}
	repo.store(obj)
	return obj, nil
}

func (repo *UserRepository) store(obj *user.User) {
	repo.byID.Set(obj.ID, obj)
	repo.byEmail.Set(normalizeEmail(obj.Email), obj)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
