package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePrompts, downCreatePrompts)
}

func upCreatePrompts(ctx context.Context, tx *sql.Tx) error {
	var stmts []string
	switch dialect {
	case "postgres":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS prompts (
    id         SERIAL PRIMARY KEY,
    title      VARCHAR(200) NOT NULL,
    body       TEXT NOT NULL,
    model      VARCHAR(50) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_by VARCHAR(100)
)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS prompts (
    id         INT AUTO_INCREMENT PRIMARY KEY,
    title      VARCHAR(200) NOT NULL,
    body       LONGTEXT NOT NULL,
    model      VARCHAR(50) NOT NULL,
    created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    created_by VARCHAR(100) NULL
)`,
		}
	default: // sqlite3
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS prompts (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      VARCHAR(200) NOT NULL,
    body       TEXT NOT NULL,
    model      VARCHAR(50) NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_by VARCHAR(100)
)`,
		}
	}
	stmts = append(stmts,
		`CREATE INDEX ix_prompts_created_at ON prompts (created_at)`,
		`CREATE INDEX ix_prompts_model ON prompts (model)`,
	)
	if err := execAll(ctx, tx, stmts); err != nil {
		return fmt.Errorf("create prompts table: %w", err)
	}
	return nil
}

func downCreatePrompts(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS prompts`)
	return err
}
