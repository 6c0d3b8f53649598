package services

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveHistory_Overwrites(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t, newMemoryStore(), &scriptedModel{})

	cs, err := svc.sessions.CreateSession(ctx, "u1", "s")
	require.NoError(t, err)

	m1 := []models.Message{
		{Role: models.RoleUser, Text: "one"},
		{Role: models.RoleAssistant, Text: "two"},
		{Role: models.RoleUser, Text: "three"},
	}
	m2 := []models.Message{{Role: models.RoleUser, Text: "only"}}

	require.NoError(t, svc.transcripts.SaveHistory(ctx, cs.ID, m1))
	require.NoError(t, svc.transcripts.SaveHistory(ctx, cs.ID, m2))

	got, err := svc.transcripts.GetHistory(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, m2, got)
}

func TestGetHistory_UnknownSessionIsEmpty(t *testing.T) {
	svc := newServices(t, newMemoryStore(), &scriptedModel{})

	got, err := svc.transcripts.GetHistory(context.Background(), "never-created")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSaveHistory_NoRoleValidation(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t, newMemoryStore(), &scriptedModel{})
	cs, err := svc.sessions.CreateSession(ctx, "u1", "s")
	require.NoError(t, err)

	odd := []models.Message{{Role: "system", Text: ""}}
	require.NoError(t, svc.transcripts.SaveHistory(ctx, cs.ID, odd))
	got, err := svc.transcripts.GetHistory(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, odd, got)
}

func TestSaveHistory_RetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	mgr := memory.NewManager(memory.NewStore())
	flaky := &flakyTranscripts{Repository: mgr.Transcripts(nil), err: driver.ErrBadConn}
	store := Store{
		Tx:    memory.Transactor{},
		Repos: &fakeRepoManager{u: mgr.Users(nil), r: mgr.RefreshTokens(nil), s: mgr.Sessions(nil), tr: flaky},
		Retry: dbx.RetryPolicy{MaxRetries: 3, Backoff: 1},
	}
	svc := newServices(t, store, &scriptedModel{})

	cs, err := svc.sessions.CreateSession(ctx, "u1", "s")
	require.NoError(t, err)

	flaky.calls, flaky.failures = 0, 2
	msgs := []models.Message{{Role: models.RoleUser, Text: "kept"}}
	require.NoError(t, svc.transcripts.SaveHistory(ctx, cs.ID, msgs))
	assert.Equal(t, 3, flaky.calls)
	got, err := svc.transcripts.GetHistory(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)

	flaky.failures = 10
	err = svc.transcripts.SaveHistory(ctx, cs.ID, nil)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}
