package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/imagefx/internal/user"
)

var userColumns = []string{"user_id", "email", "name", "image_url", "created_at", "updated_at"}

// UserRepository implements the user.Repository interface using PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

var _ user.Repository = (*UserRepository)(nil)

// GetByID retrieves a user by their ID
func (repo *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return repo.getBy(ctx, squirrel.Eq{"user_id": id})
}

// GetByEmail retrieves a user by their email address
func (repo *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return repo.getBy(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// Upsert creates a new user or updates the name and image of the existing user with the same email address
func (repo *UserRepository) Upsert(ctx context.Context, upsert *user.Upsert) (*user.User, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}

	sql, vals, err := upsertUserQuery(upsert).ToSql()
	if err != nil {
		return nil, err
	}
	return repo.rowToUser(repo.db.QueryRow(ctx, sql, vals...))
}

func (repo *UserRepository) getBy(ctx context.Context, where squirrel.Eq) (*user.User, error) {
	sql, vals, err := selectUserQuery(where).ToSql()
	if err != nil {
		return nil, err
	}
	obj, err := repo.rowToUser(repo.db.QueryRow(ctx, sql, vals...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

func selectUserQuery(where squirrel.Eq) squirrel.SelectBuilder {
	return squirrel.Select(userColumns...).From("users").Where(where).PlaceholderFormat(squirrel.Dollar)
}

func upsertUserQuery(upsert *user.Upsert) squirrel.InsertBuilder {
	return squirrel.Insert("users").
		Columns("user_id", "email", "name", "image_url").
		Values(uuid.New(), upsert.Email, upsert.Name, upsert.ImageURL).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, image_url = EXCLUDED.image_url, updated_at = NOW()").
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)
}

func (repo *UserRepository) rowToUser(row pgx.Row) (*user.User, error) {
	obj := new(user.User)
	if err := row.Scan(&obj.ID, &obj.Email, &obj.Name, &obj.ImageURL, &obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return nil, err
	}
	return obj, nil
}
