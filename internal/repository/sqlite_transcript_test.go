package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptRepo_SaveAndGet(t *testing.T) {
	repo := NewSQLiteTranscriptRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	tr := testutil.NewTestTranscript(
		testutil.WithTranscriptMode(domain.ModeSensors),
		testutil.WithDegraded(),
		testutil.WithExchanges(2),
	)
	require.NoError(t, repo.Save(ctx, tr))

	got, err := repo.Get(ctx, tr.SessionID)
	require.NoError(t, err)

	assert.Equal(t, tr.SessionID, got.SessionID)
	assert.True(t, got.StartedAt.Equal(tr.StartedAt))
	assert.True(t, got.EndedAt.Equal(tr.EndedAt))
	assert.Equal(t, domain.ModeSensors, got.Mode)
	assert.True(t, got.Degraded)
	require.Len(t, got.Messages, 4)

	user, assistant := got.Messages[0], got.Messages[1]
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "question 1", user.Text)
	assert.Nil(t, user.Confidence)
	assert.Empty(t, user.Suggestions)

	assert.Equal(t, domain.RoleAssistant, assistant.Role)
	assert.Equal(t, "answer 1", assistant.Text)
	require.NotNil(t, assistant.Confidence)
	assert.Equal(t, 90, *assistant.Confidence)
	assert.Equal(t, []string{"one", "two", "three"}, assistant.Suggestions)
	assert.Equal(t, domain.SourceLocal, assistant.Source)
	assert.True(t, assistant.CreatedAt.Equal(tr.Messages[1].CreatedAt))
}

func TestTranscriptRepo_SaveTwiceReplaces(t *testing.T) {
	repo := NewSQLiteTranscriptRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	tr := testutil.NewTestTranscript(testutil.WithExchanges(1))
	require.NoError(t, repo.Save(ctx, tr))

	tr.Messages = append(tr.Messages, testutil.NewTestUserMessage("later", tr.Mode, tr.EndedAt))
	require.NoError(t, repo.Save(ctx, tr))

	got, err := repo.Get(ctx, tr.SessionID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, "later", got.Messages[2].Text)
}

func TestTranscriptRepo_GetNotFound(t *testing.T) {
	repo := NewSQLiteTranscriptRepo(testutil.NewTestDB(t))
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTranscriptRepo_ListNewestFirst(t *testing.T) {
	repo := NewSQLiteTranscriptRepo(testutil.NewTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		tr := testutil.NewTestTranscript(testutil.WithStartedAt(base.Add(time.Duration(i)*time.Hour)), testutil.WithExchanges(i))
		require.NoError(t, repo.Save(ctx, tr))
		ids = append(ids, tr.SessionID)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].SessionID)
	assert.Equal(t, 4, all[0].MessageCount)
	assert.Equal(t, ids[0], all[2].SessionID)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTranscriptRepo_DeleteCascades(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteTranscriptRepo(database)
	ctx := context.Background()

	tr := testutil.NewTestTranscript(testutil.WithExchanges(2))
	require.NoError(t, repo.Save(ctx, tr))
	require.NoError(t, repo.Delete(ctx, tr.SessionID))

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM transcript_messages`).Scan(&count))
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.Delete(ctx, tr.SessionID), ErrNotFound)
}
