package state

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE client_state (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func TestSetGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, r.Set(ctx, KeyUsername, "alice"))
	require.NoError(t, r.Set(ctx, KeyUsername, "bob"))

	v, err = r.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.Equal(t, "bob", v)
}

func TestDeleteAndClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyRefreshToken, "r1"))
	require.NoError(t, r.Set(ctx, KeyActiveSession, "s1"))

	require.NoError(t, r.Delete(ctx, KeyRefreshToken))
	require.NoError(t, r.Delete(ctx, KeyRefreshToken))

	v, err := r.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, r.Clear(ctx))
	v, err = r.Get(ctx, KeyActiveSession)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get state[k]")
	assert.ErrorContains(t, r.Set(ctx, "k", "v"), "failed to set state[k]")
	assert.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete state[k]")
	assert.ErrorContains(t, r.Clear(ctx), "failed to clear state")
}
