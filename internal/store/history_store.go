package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// History represents a row in the prompt_histories table: one execution of a prompt.
type History struct {
	ID         int64     `db:"id"`
	PromptID   int64     `db:"prompt_id"`
	Input      string    `db:"input"`
	Output     string    `db:"output"`
	ModelUsed  string    `db:"model_used"`
	ExecutedAt time.Time `db:"executed_at"`
}

// NewHistory carries the fields of an execution to record.
type NewHistory struct {
	PromptID  int64
	Input     string
	Output    string
	ModelUsed string
}

// HistoryStore is the sqlx-backed implementation of HistoryStoreIface.
type HistoryStore struct {
	db *sqlx.DB
}

func NewHistoryStore(db *sqlx.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Create records one execution and returns the stored row with its
// generated id and timestamp. A prompt that vanished in the meantime yields
// ErrNotFound where the database enforces the foreign key.
func (s *HistoryStore) Create(ctx context.Context, h NewHistory) (*History, error) {
	id, err := insertReturningID(ctx, s.db, `
		INSERT INTO prompt_histories (prompt_id, input, output, model_used, executed_at) VALUES (?, ?, ?, ?, ?)`,
		h.PromptID, h.Input, h.Output, h.ModelUsed, time.Now().UTC())
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rec History
	err = s.db.GetContext(ctx, &rec, s.db.Rebind(`SELECT * FROM prompt_histories WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByPrompt returns the executions of promptID, newest first.
func (s *HistoryStore) ListByPrompt(ctx context.Context, promptID int64) ([]*History, error) {
	histories := []*History{}
	err := s.db.SelectContext(ctx, &histories, s.db.Rebind(`
		SELECT * FROM prompt_histories WHERE prompt_id = ? ORDER BY executed_at DESC, id DESC
	`), promptID)
	if err != nil {
		return nil, err
	}
	return histories, nil
}

// ListByPrompts returns the executions of each prompt in promptIDs keyed by
// prompt id, newest first. Prompts without executions are absent from the map.
func (s *HistoryStore) ListByPrompts(ctx context.Context, promptIDs []int64) (map[int64][]*History, error) {
	grouped := make(map[int64][]*History, len(promptIDs))
	if len(promptIDs) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(`
		SELECT * FROM prompt_histories WHERE prompt_id IN (?) ORDER BY executed_at DESC, id DESC
	`, promptIDs)
	if err != nil {
		return nil, err
	}
	var histories []*History
	if err := s.db.SelectContext(ctx, &histories, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, h := range histories {
		grouped[h.PromptID] = append(grouped[h.PromptID], h)
	}
	return grouped, nil
}

// isForeignKeyError checks whether err indicates a foreign key violation.
// Works across SQLite, PostgreSQL, and MySQL.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key")
}
