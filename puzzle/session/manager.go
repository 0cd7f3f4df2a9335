package session

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager owns the in-memory session table. When persistence is configured,
// sessions are written through on create and revived from disk on a miss, so
// a restart loses nothing.
type Manager struct {
	mu          sync.RWMutex
	byKey       map[string]*service.Session
	persistence SessionPersistence
}

// NewManager creates a memory-only manager.
func NewManager() *Manager {
	return &Manager{byKey: make(map[string]*service.Session)}
}

// NewManagerWithPersistence creates a manager backed by persistent storage.
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		byKey:       make(map[string]*service.Session),
		persistence: persistence,
	}
}

// key folds the ID for lookups. Session IDs are case-insensitive.
func key(id string) string {
	return strings.ToLower(id)
}

// Create starts a session on the given level. An empty ID asks the manager
// to mint one.
func (m *Manager) Create(id string, level *engine.LevelConfig) (*service.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byKey[key(id)]; taken {
		return nil, ErrSessionAlreadyExists
	}

	runner, err := engine.NewRunner(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		Runner:         runner,
		Level:          level,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.byKey[key(id)] = sess

	if m.persistence != nil {
		// A failed write is logged, not fatal; the session still works in memory.
		if err := m.persistence.Save(sess); err != nil {
			log.Printf("[session] persist %s failed: %v", id, err)
		}
	}

	return sess, nil
}

// Get returns the session, reviving it from persistence on a memory miss.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, ok := m.byKey[key(id)]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}
	return m.revive(id)
}

// revive loads a persisted session back into the table.
func (m *Manager) revive(id string) (*service.Session, error) {
	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	sess, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have revived it while we read the file.
	if existing, ok := m.byKey[key(id)]; ok {
		return existing, nil
	}
	m.byKey[key(id)] = sess
	return sess, nil
}

// GetOrCreate returns the existing session or starts one on the given level.
func (m *Manager) GetOrCreate(id string, level *engine.LevelConfig) (*service.Session, error) {
	sess, err := m.Get(id)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, level)
	}
	return nil, err
}

// List returns every session currently in memory.
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*service.Session, 0, len(m.byKey))
	for _, sess := range m.byKey {
		out = append(out, sess)
	}
	return out
}

// Delete removes a session from memory and, when configured, from
// persistent storage.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.byKey[key(id)]
	delete(m.byKey, key(id))

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}
	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory evicts a session without touching its persisted file.
// The filesystem sync loop uses this in the opposite direction, evicting
// sessions whose files vanished.
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[key(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.byKey, key(id))
	return nil
}

// UpdateLastAccessed refreshes the session's idle clock.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byKey[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

// Save writes one session through to persistence.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.byKey[key(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.persistence.Save(sess)
}

// CleanupExpiredSessions evicts sessions idle longer than maxAge and reports
// how many were removed. Persisted files are left alone so an expired
// session can still be revived by ID.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for k, sess := range m.byKey {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.byKey, k)
			removed++
		}
	}
	return removed
}

// Count returns the number of in-memory sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey)
}

// LoadPersistedSessions fills the table from persistent storage at startup.
// Unreadable files are skipped with a log line rather than failing the boot.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, ok := m.byKey[key(id)]; ok {
			continue
		}
		sess, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("[session] skipping unreadable session %s: %v", id, err)
			continue
		}
		m.byKey[key(id)] = sess
		loaded++
	}

	if loaded > 0 {
		log.Printf("[session] restored %d sessions from storage", loaded)
	}
	return nil
}

// SaveAllSessions writes every in-memory session to persistence, reporting
// a single error if any write failed.
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	snapshot := m.List()

	failures := 0
	for _, sess := range snapshot {
		if err := m.persistence.Save(sess); err != nil {
			log.Printf("[session] save %s failed: %v", sess.ID, err)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("failed to save %d sessions", failures)
	}
	return nil
}
