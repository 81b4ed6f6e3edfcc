package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithPersistence enables saving sessions on every change
func WithPersistence(p SessionPersistence) Option {
	return func(m *Manager) {
		m.persistence = p
	}
}

// Manager handles rescue session lifecycle. IDs are case-insensitive.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	log         *zap.Logger
	mu          sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...Option) *Manager {
	return NewManager(append([]Option{WithPersistence(persistence)}, opts...)...)
}

// Create creates a new session with the given ID on a map grid. An empty ID is generated.
func (m *Manager) Create(id, mapName string, grid *world.Grid) (*service.Session, error) {
	if strings.ContainsAny(id, `/\. `) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	}
	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; exists {
		return nil, ErrSessionAlreadyExists
	}

	w, err := world.New(mapName, grid)
	if err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		World:          w,
		MapName:        mapName,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key] = session

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			// Log error but don't fail the creation
			m.log.Warn("failed to persist session", zap.String("session_id", id), zap.Error(err))
		}
	}

	return session, nil
}

// Get retrieves a session by ID, loading it from persistence when not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	key := strings.ToLower(id)

	m.mu.RLock()
	session, exists := m.sessions[key]
	m.mu.RUnlock()
	if exists {
		return session, nil
	}

	if m.persistence != nil && m.persistence.Exists(key) {
		loaded, err := m.persistence.Load(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// Another caller may have loaded it meanwhile
		if session, exists := m.sessions[key]; exists {
			return session, nil
		}
		m.sessions[key] = loaded
		return loaded, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, mapName string, grid *world.Grid) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, mapName, grid)
	}
	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a session from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	_, inMemory := m.sessions[key]
	delete(m.sessions, key)

	if m.persistence != nil && m.persistence.Exists(key) {
		if err := m.persistence.Delete(key); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// LastAccessed returns the last accessed time of a session. Access times change
// under the manager lock, so readers go through here instead of the session.
func (m *Manager) LastAccessed(id string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return time.Time{}, ErrSessionNotFound
	}
	return session.LastAccessedAt, nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration.
// Persisted copies are kept and reloaded on the next access.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random, unused 4-character session ID.
// Callers must hold the write lock.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id
		}
	}
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range sessionIDs {
		key := strings.ToLower(id)
		if _, exists := m.sessions[key]; exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			m.log.Warn("failed to load persisted session", zap.String("session_id", id), zap.Error(err))
			continue
		}
		m.sessions[key] = session
		loaded++
	}

	if loaded > 0 {
		m.log.Info("loaded persisted sessions", zap.Int("count", loaded))
	}
	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	failed := 0
	for _, session := range sessions {
		if err := m.persistence.Save(session); err != nil {
			m.log.Warn("failed to save session", zap.String("session_id", session.ID), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}
