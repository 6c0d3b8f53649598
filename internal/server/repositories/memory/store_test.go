package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewManager(NewStore()).Users(nil)

	_, err := repo.Create(ctx, &models.User{ID: "u1", UserName: "alice", PasswordHash: []byte("h")})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{ID: "u2", UserName: "alice", PasswordHash: []byte("h2")})
	assert.ErrorIs(t, err, common.ErrUsernameTaken)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, []byte("h"), got.PasswordHash)

	_, err = repo.GetUserByLogin(ctx, "Alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	repo := NewManager(NewStore()).RefreshTokens(nil)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{UserID: "u1", Token: "old", Expires: now.Add(-time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{UserID: "u1", Token: "new", Expires: now.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, "u1", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.Find(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	tok, err := repo.Find(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "u1", tok.UserID)

	require.NoError(t, repo.Delete(ctx, "new"))
	require.NoError(t, repo.Delete(ctx, "new"))
}

func TestSessionsAndTranscripts(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewStore())
	sess := m.Sessions(nil)
	tr := m.Transcripts(nil)

	a, err := sess.Create(ctx, &models.ChatSession{ID: "a", UserID: "u1", Name: "First Chat"})
	require.NoError(t, err)
	b, err := sess.Create(ctx, &models.ChatSession{ID: "b", UserID: "u1", Name: "Chat 2"})
	require.NoError(t, err)
	_, err = sess.Create(ctx, &models.ChatSession{ID: "c", UserID: "u2", Name: "Other"})
	require.NoError(t, err)
	assert.Less(t, a.Seq, b.Seq)

	list, err := sess.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	n, err := sess.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ErrorIs(t, sess.Rename(ctx, "u2", "a", "stolen"), common.ErrorNotFound)
	require.NoError(t, sess.Rename(ctx, "u1", "a", "Renamed"))
	got, err := sess.Get(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	msgs, err := tr.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	in := []models.Message{{Role: models.RoleUser, Text: "hi"}}
	require.NoError(t, tr.Save(ctx, "a", in))
	in[0].Text = "mutated"
	msgs, err = tr.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "hi", msgs[0].Text)

	assert.ErrorIs(t, tr.Save(ctx, "missing", in), common.ErrSessionNotFound)

	assert.ErrorIs(t, sess.Delete(ctx, "u2", "a"), common.ErrorNotFound)
	require.NoError(t, sess.Delete(ctx, "u1", "a"))
	msgs, err = tr.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.ErrorIs(t, sess.Delete(ctx, "u1", "a"), common.ErrorNotFound)
}

func TestTransactorRunsFn(t *testing.T) {
	called := false
	err := Transactor{}.WithTx(context.Background(), func(ctx context.Context, tx dbx.DBTX) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
