package queststore

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager maintains one Store per user, created on first use.
type Manager struct {
	mu     sync.RWMutex
	stores map[string]*Store // userID → store
	logger *zap.Logger
}

// NewManager creates a Manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		logger: logger,
	}
}

// ForUser returns the store for a user, creating it if needed.
func (m *Manager) ForUser(userID string) *Store {
	m.mu.RLock()
	st, ok := m.stores[userID]
	m.mu.RUnlock()
	if ok {
		return st
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.stores[userID]; ok {
		return st
	}
	st = New()
	m.stores[userID] = st
	m.logger.Debug("quest store created", zap.String("user_id", userID))
	return st
}

// Peek returns the store for a user without creating one, or nil.
func (m *Manager) Peek(userID string) *Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores[userID]
}

// Count returns the number of live stores.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stores)
}

// ActiveUsers returns a snapshot of user IDs whose store holds an active session.
func (m *Manager) ActiveUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.stores))
	for id, st := range m.stores {
		if st.Snapshot().Status == StatusActive {
			out = append(out, id)
		}
	}
	return out
}

// PruneIdle removes stores untouched for longer than ttl and returns how many
// were dropped. Called periodically by the scheduler.
func (m *Manager) PruneIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for id, st := range m.stores {
		if st.LastUsed().Before(cutoff) {
			delete(m.stores, id)
			pruned++
		}
	}
	if pruned > 0 {
		m.logger.Info("pruned idle quest stores", zap.Int("count", pruned))
	}
	return pruned
}
