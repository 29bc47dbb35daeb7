package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePromptHistories, downCreatePromptHistories)
}

// Histories are owned by their prompt: deleting a prompt cascades.
func upCreatePromptHistories(ctx context.Context, tx *sql.Tx) error {
	var stmts []string
	switch dialect {
	case "postgres":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS prompt_histories (
    id          SERIAL PRIMARY KEY,
    prompt_id   INTEGER NOT NULL REFERENCES prompts (id) ON DELETE CASCADE,
    input       TEXT NOT NULL,
    output      TEXT NOT NULL,
    model_used  VARCHAR(50) NOT NULL,
    executed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS prompt_histories (
    id          INT AUTO_INCREMENT PRIMARY KEY,
    prompt_id   INT NOT NULL,
    input       LONGTEXT NOT NULL,
    output      LONGTEXT NOT NULL,
    model_used  VARCHAR(50) NOT NULL,
    executed_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    CONSTRAINT fk_prompt_histories_prompt FOREIGN KEY (prompt_id) REFERENCES prompts (id) ON DELETE CASCADE
)`,
		}
	default: // sqlite3
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS prompt_histories (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt_id   INTEGER NOT NULL REFERENCES prompts (id) ON DELETE CASCADE,
    input       TEXT NOT NULL,
    output      TEXT NOT NULL,
    model_used  VARCHAR(50) NOT NULL,
    executed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		}
	}
	stmts = append(stmts,
		`CREATE INDEX ix_prompt_histories_prompt_id ON prompt_histories (prompt_id)`,
		`CREATE INDEX ix_prompt_histories_executed_at ON prompt_histories (executed_at)`,
	)
	if err := execAll(ctx, tx, stmts); err != nil {
		return fmt.Errorf("create prompt_histories table: %w", err)
	}
	return nil
}

func downCreatePromptHistories(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS prompt_histories`)
	return err
}
