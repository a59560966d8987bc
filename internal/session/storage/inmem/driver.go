package inmem

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/skybi/imagefx/internal/session"
)

const table = "sessions"

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		table: {
			Name: table,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "ID"},
				},
				"token": {
					Name:         "token",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "TokenHash"},
				},
				"userID": {
					Name:         "userID",
					Unique:       false,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "UserID"},
				},
			},
		},
	},
}

// row is the memdb representation of a session; memdb indexes need string and int fields
type row struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt int64
	CreatedAt int64
}

func (r *row) toSession() *session.Session {
	return &session.Session{
		ID:        uuid.MustParse(r.ID),
		UserID:    uuid.MustParse(r.UserID),
		TokenHash: r.TokenHash,
		ExpiresAt: time.UnixMilli(r.ExpiresAt),
		CreatedAt: time.UnixMilli(r.CreatedAt),
	}
}

// Driver represents the in-memory session storage driver built using hashicorp/go-memdb
type Driver struct {
	db  *memdb.MemDB
	now func() time.Time
}

var _ session.Storage = (*Driver)(nil)

// New creates a new empty in-memory session storage driver
func New() (*Driver, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Driver{db: db, now: time.Now}, nil
}

// GetByRawToken retrieves a session by its raw (prior hashing) token
func (driver *Driver) GetByRawToken(_ context.Context, rawToken string) (*session.Session, error) {
	txn := driver.db.Txn(false)
	obj, err := txn.First(table, "token", session.HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*row).toSession(), nil
}

// Create records a new session for the given raw token.
// Recording the same token twice replaces the previous entry.
func (driver *Driver) Create(_ context.Context, userID uuid.UUID, rawToken string, expiresAt time.Time) (*session.Session, error) {
	obj := &row{
		ID:        uuid.NewString(),
		UserID:    userID.String(),
		TokenHash: session.HashToken(rawToken),
		ExpiresAt: expiresAt.UnixMilli(),
		CreatedAt: driver.now().UnixMilli(),
	}
	if err := driver.insert(obj); err != nil {
		return nil, err
	}
	return obj.toSession(), nil
}

// Put stores an already recorded session, replacing any entry with the same token hash
func (driver *Driver) Put(ses *session.Session) error {
	return driver.insert(&row{
		ID:        ses.ID.String(),
		UserID:    ses.UserID.String(),
		TokenHash: ses.TokenHash,
		ExpiresAt: ses.ExpiresAt.UnixMilli(),
		CreatedAt: ses.CreatedAt.UnixMilli(),
	})
}

func (driver *Driver) insert(obj *row) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(table, "token", obj.TokenHash); err != nil {
		return err
	}
	if _, err := txn.DeleteAll(table, "id", obj.ID); err != nil {
		return err
	}
	if err := txn.Insert(table, obj); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// TerminateByUserID terminates all sessions of a specific user ID
func (driver *Driver) TerminateByUserID(_ context.Context, userID uuid.UUID) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(table, "userID", userID.String()); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// TerminateExpired terminates all sessions that are expired
func (driver *Driver) TerminateExpired(_ context.Context) (int, error) {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(table, "id")
	if err != nil {
		return 0, err
	}

	// The iterator must not be used while the table is being modified
	now := driver.now().UnixMilli()
	var expired []*row
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if r := obj.(*row); r.ExpiresAt <= now {
			expired = append(expired, r)
		}
	}
	for _, r := range expired {
		if err := txn.Delete(table, r); err != nil {
			return 0, err
		}
	}

	txn.Commit()
	return len(expired), nil
}
