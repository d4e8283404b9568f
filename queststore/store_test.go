package queststore

import (
	"testing"
	"time"

	"github.com/Saadmadni84/Learning-Platform--sub002/quest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustSession(t *testing.T) *quest.Session {
	t.Helper()
	s, err := quest.NewSession("user-1", quest.DifficultyEasy, nil)
	require.NoError(t, err)
	return s
}

func intPtr(n int) *int { return &n }

func TestStoreInitialState(t *testing.T) {
	st := New()
	snap := st.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Nil(t, snap.Session)
	assert.Empty(t, snap.Err)
}

func TestStoreHappyPath(t *testing.T) {
	st := New()

	st.StartInitialization()
	assert.Equal(t, StatusInitializing, st.Snapshot().Status)

	s := mustSession(t)
	st.SetSession(s)
	snap := st.Snapshot()
	assert.Equal(t, StatusActive, snap.Status)
	require.NotNil(t, snap.Session)
	assert.Equal(t, s.SessionID, snap.Session.SessionID)
}

func TestStoreErrorTransition(t *testing.T) {
	st := New()
	st.StartInitialization()
	st.SetError("network down")

	snap := st.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "network down", snap.Err)

	// A retry clears the error.
	st.StartInitialization()
	snap = st.Snapshot()
	assert.Equal(t, StatusInitializing, snap.Status)
	assert.Empty(t, snap.Err)
}

func TestStoreErrorKeepsSession(t *testing.T) {
	st := New()
	s := mustSession(t)
	st.SetSession(s)
	st.SetError("advance failed")

	snap := st.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	require.NotNil(t, snap.Session)
	assert.Equal(t, s.SessionID, snap.Session.SessionID)
}

func TestStoreLastWriteWins(t *testing.T) {
	st := New()
	first := mustSession(t)
	second := mustSession(t)

	st.SetSession(first)
	st.SetSession(second)

	snap := st.Snapshot()
	require.NotNil(t, snap.Session)
	assert.Equal(t, second.SessionID, snap.Session.SessionID)
}

func TestStoreUpdateProgress(t *testing.T) {
	st := New()
	st.SetSession(mustSession(t))

	st.UpdateProgress(ProgressPatch{
		CurrentObjectiveIndex: intPtr(1),
		CompletedObjectives:   intPtr(1),
		XPEarned:              intPtr(50),
	})

	p := st.Snapshot().Session.Progress
	assert.Equal(t, 1, p.CurrentObjectiveIndex)
	assert.Equal(t, 1, p.CompletedObjectives)
	assert.Equal(t, 50, p.XPEarned)
	// Untouched field keeps its value.
	assert.Equal(t, 0, p.Points)
}

func TestStoreUpdateProgressWithoutSession(t *testing.T) {
	st := New()
	// Must not panic and must not change state.
	st.UpdateProgress(ProgressPatch{XPEarned: intPtr(100)})

	snap := st.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Nil(t, snap.Session)
}

func TestStoreReset(t *testing.T) {
	st := New()
	st.SetSession(mustSession(t))
	st.SetError("boom")
	st.Reset()

	snap := st.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Nil(t, snap.Session)
	assert.Empty(t, snap.Err)
}

func TestStoreSnapshotIsolation(t *testing.T) {
	st := New()
	st.SetSession(mustSession(t))

	snap := st.Snapshot()
	snap.Session.Progress.XPEarned = 9999

	assert.Equal(t, 0, st.Snapshot().Session.Progress.XPEarned)
}

func TestManagerForUser(t *testing.T) {
	m := NewManager(zap.NewNop())

	a := m.ForUser("user-1")
	b := m.ForUser("user-1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Count())

	m.ForUser("user-2")
	assert.Equal(t, 2, m.Count())
}

func TestManagerPeek(t *testing.T) {
	m := NewManager(zap.NewNop())
	assert.Nil(t, m.Peek("user-1"))

	st := m.ForUser("user-1")
	assert.Same(t, st, m.Peek("user-1"))
}

func TestManagerActiveUsers(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.ForUser("idle-user")
	m.ForUser("active-user").SetSession(mustSession(t))

	active := m.ActiveUsers()
	assert.Equal(t, []string{"active-user"}, active)
}

func TestManagerPruneIdle(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.ForUser("user-1")
	m.ForUser("user-2")

	// Nothing is older than an hour.
	assert.Equal(t, 0, m.PruneIdle(time.Hour))
	assert.Equal(t, 2, m.Count())

	// Everything is older than zero.
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, m.PruneIdle(0))
	assert.Equal(t, 0, m.Count())
}
