package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/imagefx/internal/session"
)

// SessionRepository implements the session.Storage interface using PostgreSQL
type SessionRepository struct {
	db *pgxpool.Pool
}

var _ session.Storage = (*SessionRepository)(nil)

// GetByRawToken retrieves a session by its raw (prior hashing) token
func (repo *SessionRepository) GetByRawToken(ctx context.Context, rawToken string) (*session.Session, error) {
	row := repo.db.QueryRow(
		ctx,
		"SELECT session_id, user_id, token_hash, expires_at, created_at FROM sessions WHERE token_hash = $1",
		session.HashToken(rawToken),
	)
	obj, err := repo.rowToSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

// Create records a new session for the given raw token.
// Recording the same token twice updates the previous entry.
func (repo *SessionRepository) Create(ctx context.Context, userID uuid.UUID, rawToken string, expiresAt time.Time) (*session.Session, error) {
	sql, vals, err := insertSessionQuery(userID, rawToken, expiresAt).ToSql()
	if err != nil {
		return nil, err
	}
	return repo.rowToSession(repo.db.QueryRow(ctx, sql, vals...))
}

// TerminateByUserID terminates all sessions of a specific user ID
func (repo *SessionRepository) TerminateByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := repo.db.Exec(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
	return err
}

// TerminateExpired terminates all sessions that are expired
func (repo *SessionRepository) TerminateExpired(ctx context.Context) (int, error) {
	tag, err := repo.db.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= NOW()")
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func insertSessionQuery(userID uuid.UUID, rawToken string, expiresAt time.Time) squirrel.InsertBuilder {
	return squirrel.Insert("sessions").
		Columns("session_id", "user_id", "token_hash", "expires_at").
		Values(uuid.New(), userID, session.HashToken(rawToken), expiresAt).
		Suffix("ON CONFLICT (token_hash) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at").
		Suffix("RETURNING session_id, user_id, token_hash, expires_at, created_at").
		PlaceholderFormat(squirrel.Dollar)
}

func (repo *SessionRepository) rowToSession(row pgx.Row) (*session.Session, error) {
	obj := new(session.Session)
	if err := row.Scan(&obj.ID, &obj.UserID, &obj.TokenHash, &obj.ExpiresAt, &obj.CreatedAt); err != nil {
		return nil, err
	}
	return obj, nil
}
