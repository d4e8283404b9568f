// Package queststore holds the single current quest session per user,
// mirroring the request lifecycle the web client drives: idle while nothing
// is happening, initializing while a start request is in flight, active once
// a session is installed, error when the round trip failed.
package queststore

import (
	"sync"
	"time"

	"github.com/Saadmadni84/Learning-Platform--sub002/quest"
)

// Status is the store's lifecycle tag.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusError        Status = "error"
)

// ProgressPatch is a partial progress update. Nil fields are left unchanged.
type ProgressPatch struct {
	CurrentObjectiveIndex *int `json:"currentObjectiveIndex,omitempty"`
	CompletedObjectives   *int `json:"completedObjectives,omitempty"`
	XPEarned              *int `json:"xpEarned,omitempty"`
	Points                *int `json:"points,omitempty"`
}

// Snapshot is a consistent read of the store.
type Snapshot struct {
	Status  Status         `json:"status"`
	Session *quest.Session `json:"session"`
	Err     string         `json:"error,omitempty"`
}

// Store holds exactly one current quest session plus a status tag.
// Every transition is synchronous and total: invalid combinations degrade to
// no-ops rather than failing, and no action ever panics.
type Store struct {
	mu       sync.Mutex
	status   Status
	session  *quest.Session
	err      string
	lastUsed time.Time
}

// New returns a Store in the idle state.
func New() *Store {
	return &Store{status: StatusIdle, lastUsed: time.Now()}
}

// StartInitialization moves the store to initializing and clears any prior
// error. Callable from any state; it does not itself perform the network call.
func (st *Store) StartInitialization() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.status = StatusInitializing
	st.err = ""
	st.lastUsed = time.Now()
}

// SetSession installs the given session as current and moves to active.
// A second start request simply overwrites the slot: last write wins.
func (st *Store) SetSession(s *quest.Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.session = s
	st.status = StatusActive
	st.err = ""
	st.lastUsed = time.Now()
}

// UpdateProgress shallow-merges a partial progress update into the current
// session. A no-op when no session is installed.
func (st *Store) UpdateProgress(patch ProgressPatch) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return
	}
	p := &st.session.Progress
	if patch.CurrentObjectiveIndex != nil {
		p.CurrentObjectiveIndex = *patch.CurrentObjectiveIndex
	}
	if patch.CompletedObjectives != nil {
		p.CompletedObjectives = *patch.CompletedObjectives
	}
	if patch.XPEarned != nil {
		p.XPEarned = *patch.XPEarned
	}
	if patch.Points != nil {
		p.Points = *patch.Points
	}
	st.lastUsed = time.Now()
}

// SetError records a failure message and moves to error. The current session
// is kept so the caller can still show the last known good state.
func (st *Store) SetError(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.status = StatusError
	st.err = msg
	st.lastUsed = time.Now()
}

// Reset returns the store to its initial idle state.
func (st *Store) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.status = StatusIdle
	st.session = nil
	st.err = ""
	st.lastUsed = time.Now()
}

// Snapshot returns a consistent copy of the store's state. The contained
// session is cloned so callers cannot mutate the slot.
func (st *Store) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap := Snapshot{Status: st.status, Err: st.err}
	if st.session != nil {
		snap.Session = st.session.Clone()
	}
	return snap
}

// LastUsed reports when the store was last touched by any action.
func (st *Store) LastUsed() time.Time {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastUsed
}
