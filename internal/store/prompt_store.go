package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Prompt represents a row in the prompts table.
type Prompt struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Model     string    `db:"model"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy *string   `db:"created_by"`
}

// NewPrompt carries the caller-supplied fields for Create and Replace.
type NewPrompt struct {
	Title     string
	Body      string
	Model     string
	CreatedBy string
}

// PromptStore is the sqlx-backed implementation of PromptStoreIface.
type PromptStore struct {
	db *sqlx.DB
}

func NewPromptStore(db *sqlx.DB) *PromptStore {
	return &PromptStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *PromptStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new prompt stamped with the current UTC time.
func (s *PromptStore) Create(ctx context.Context, p NewPrompt) (*Prompt, error) {
	var createdBy *string
	if p.CreatedBy != "" {
		createdBy = &p.CreatedBy
	}
	id, err := insertReturningID(ctx, s.db, `
		INSERT INTO prompts (title, body, model, created_at, created_by) VALUES (?, ?, ?, ?, ?)`,
		p.Title, p.Body, p.Model, time.Now().UTC(), createdBy)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the prompt matching id, or ErrNotFound.
func (s *PromptStore) GetByID(ctx context.Context, id int64) (*Prompt, error) {
	var p Prompt
	err := s.db.GetContext(ctx, &p, s.q(`SELECT * FROM prompts WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAll returns all prompts, newest first.
func (s *PromptStore) ListAll(ctx context.Context) ([]*Prompt, error) {
	prompts := []*Prompt{}
	err := s.db.SelectContext(ctx, &prompts, `SELECT * FROM prompts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

// Replace overwrites title, body, and model of an existing prompt. The
// creation timestamp, creator, and execution history are kept.
func (s *PromptStore) Replace(ctx context.Context, id int64, p NewPrompt) (*Prompt, error) {
	// Existence is checked up front: MySQL reports zero affected rows for an
	// UPDATE that changes nothing.
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		UPDATE prompts SET title = ?, body = ?, model = ? WHERE id = ?
	`), p.Title, p.Body, p.Model, id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a prompt together with its execution history, or returns
// ErrNotFound. The history rows are removed explicitly in the same
// transaction so the cascade holds even where the FK is not enforced.
func (s *PromptStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM prompt_histories WHERE prompt_id = ?`), id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM prompts WHERE id = ?`), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Count returns the number of stored prompts.
func (s *PromptStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM prompts`)
	return n, err
}
