package quest_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Saadmadni84/Learning-Platform--sub002/quest"
	"github.com/Saadmadni84/Learning-Platform--sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *quest.Service {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	return quest.NewService(db, c, ps, zap.NewNop())
}

func TestServiceInitialize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	s, err := svc.Initialize(ctx, quest.StartRequest{
		UserID:     "user-1",
		Difficulty: "medium",
		Goals:      []string{"fractions"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, quest.DifficultyMedium, s.Difficulty)

	// Round trips through the DB.
	got, err := svc.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, s.SessionID, got.SessionID)
	assert.Equal(t, s.Title, got.Title)
	assert.Len(t, got.Objectives, 3)
	assert.Equal(t, 3, got.Progress.TotalObjectives)
}

func TestServiceInitializeDefaultsDifficulty(t *testing.T) {
	svc := newTestService(t)

	s, err := svc.Initialize(context.Background(), quest.StartRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, quest.DifficultyEasy, s.Difficulty)
}

func TestServiceInitializeRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Initialize(ctx, quest.StartRequest{Difficulty: "easy"})
	assert.ErrorIs(t, err, quest.ErrMissingUserID)

	_, err = svc.Initialize(ctx, quest.StartRequest{UserID: "user-1", Difficulty: "extreme"})
	assert.ErrorIs(t, err, quest.ErrInvalidDifficulty)
}

func TestServiceGetNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "qs_does-not-exist")
	assert.ErrorIs(t, err, quest.ErrSessionNotFound)
}

func TestServiceAdvancePersists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	s, err := svc.Initialize(ctx, quest.StartRequest{UserID: "user-1", Difficulty: "easy"})
	require.NoError(t, err)

	got, err := svc.Advance(ctx, s.SessionID, "obj-1", 50, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Progress.CompletedObjectives)
	assert.Equal(t, 50, got.Progress.XPEarned)

	// Reload from the DB to confirm the mutation stuck.
	reloaded, err := svc.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Progress.CompletedObjectives)
	assert.Equal(t, 1, reloaded.Progress.CurrentObjectiveIndex)
	assert.Equal(t, 50, reloaded.Progress.XPEarned)
	assert.Equal(t, 10, reloaded.Progress.Points)
	assert.True(t, reloaded.Objectives[0].Completed)
}

func TestServiceAdvanceErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	s, err := svc.Initialize(ctx, quest.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.Advance(ctx, "qs_missing", "obj-1", 10, 0)
	assert.ErrorIs(t, err, quest.ErrSessionNotFound)

	_, err = svc.Advance(ctx, s.SessionID, "obj-99", 10, 0)
	assert.ErrorIs(t, err, quest.ErrUnknownObjective)

	_, err = svc.Advance(ctx, s.SessionID, "obj-1", -10, 0)
	assert.ErrorIs(t, err, quest.ErrNegativeDelta)
}

func TestServiceTotalXPAcrossSessions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Initialize(ctx, quest.StartRequest{UserID: "user-1"})
	require.NoError(t, err)
	b, err := svc.Initialize(ctx, quest.StartRequest{UserID: "user-1", Difficulty: "hard"})
	require.NoError(t, err)

	_, err = svc.Advance(ctx, a.SessionID, "obj-1", 50, 0)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, b.SessionID, "obj-1", 70, 0)
	require.NoError(t, err)

	total, err := svc.TotalXP(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), total)
}

func TestServiceAdvanceUpdatesLeaderboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	svc := quest.NewService(db, c, ps, zap.NewNop())
	ctx := context.Background()

	s, err := svc.Initialize(ctx, quest.StartRequest{UserID: "user-1"})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, s.SessionID, "obj-1", 80, 0)
	require.NoError(t, err)

	score, err := c.ZScore(ctx, quest.LeaderboardKey, "user-1")
	require.NoError(t, err)
	assert.Equal(t, float64(80), score)
}

func TestServiceAdvancePublishesProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	svc := quest.NewService(db, c, ps, zap.NewNop())
	ctx := context.Background()

	ch, unsub, err := ps.Subscribe(ctx, quest.ProgressChannel("user-1"))
	require.NoError(t, err)
	defer unsub()

	s, err := svc.Initialize(ctx, quest.StartRequest{UserID: "user-1"})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, s.SessionID, "obj-2", 40, 5)
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var ev quest.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, s.SessionID, ev.SessionID)
		assert.Equal(t, "obj-2", ev.ObjectiveID)
		assert.Equal(t, 40, ev.Progress.XPEarned)
		assert.False(t, ev.Completed)
	case <-time.After(2 * time.Second):
		t.Fatal("no progress event received")
	}
}
