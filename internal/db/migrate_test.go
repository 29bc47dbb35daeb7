package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/fera-prompt/internal/db"
	"github.com/joestump/fera-prompt/internal/testutil"
)

func TestMigrate_Idempotent(t *testing.T) {
	conn := testutil.NewTestDB(t)
	require.NoError(t, db.Migrate(conn, "sqlite3"))

	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM prompts`))
	assert.Zero(t, n)
}

func TestMigrate_UnknownDriver(t *testing.T) {
	conn := testutil.NewTestDB(t)
	assert.Error(t, db.Migrate(conn, "mssql"))
}

func TestMigrate_HistoryCascade(t *testing.T) {
	conn := testutil.NewTestDB(t)

	res, err := conn.Exec(`INSERT INTO prompts (title, body, model, created_at) VALUES ('t', 'b', 'gpt-4o', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO prompt_histories (prompt_id, input, output, model_used, executed_at) VALUES (?, 'in', 'out', 'gpt-4o', CURRENT_TIMESTAMP)`, id)
	require.NoError(t, err)

	_, err = conn.Exec(`DELETE FROM prompts WHERE id = ?`, id)
	require.NoError(t, err)

	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM prompt_histories`))
	assert.Zero(t, n)
}

func TestMigrate_HistoryRequiresPrompt(t *testing.T) {
	conn := testutil.NewTestDB(t)
	_, err := conn.Exec(`INSERT INTO prompt_histories (prompt_id, input, output, model_used, executed_at) VALUES (404, 'in', 'out', 'gpt-4o', CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestMigrate_UsersUnique(t *testing.T) {
	conn := testutil.NewTestDB(t)

	_, err := conn.Exec(`INSERT INTO users (username, email) VALUES ('ana', 'ana@example.com')`)
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO users (username, email) VALUES ('ana', 'other@example.com')`)
	assert.Error(t, err, "duplicate username")

	_, err = conn.Exec(`INSERT INTO users (username, email) VALUES ('bia', 'ana@example.com')`)
	assert.Error(t, err, "duplicate email")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", db.SQLiteDSN("app.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", db.SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "app.db?_pragma=foreign_keys(0)", db.SQLiteDSN("app.db?_pragma=foreign_keys(0)"))
}
