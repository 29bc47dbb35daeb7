package store

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// PromptStoreIface exposes all prompt data operations.
// No handler MAY query the DB directly; all access goes through this interface.
type PromptStoreIface interface {
	Create(ctx context.Context, p NewPrompt) (*Prompt, error)
	GetByID(ctx context.Context, id int64) (*Prompt, error)
	ListAll(ctx context.Context) ([]*Prompt, error)
	Replace(ctx context.Context, id int64, p NewPrompt) (*Prompt, error)
	Delete(ctx context.Context, id int64) error
}

// HistoryStoreIface exposes execution history operations. Records are
// append-only; they disappear only when their prompt is deleted.
type HistoryStoreIface interface {
	Create(ctx context.Context, h NewHistory) (*History, error)
	ListByPrompt(ctx context.Context, promptID int64) ([]*History, error)
	ListByPrompts(ctx context.Context, promptIDs []int64) (map[int64][]*History, error)
}

// insertReturningID runs an INSERT and returns the generated id. lib/pq does
// not implement LastInsertId, so PostgreSQL uses RETURNING instead.
func insertReturningID(ctx context.Context, db sqlx.ExtContext, query string, args ...any) (int64, error) {
	if db.DriverName() == "postgres" {
		var id int64
		err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
