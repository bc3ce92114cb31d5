package storage

import (
	"context"
	"sync"
	"time"

	"product_advisor/pkg"
)

type memorySession struct {
	record    pkg.PreferenceRecord
	updatedAt time.Time
}

// MemorySessionStore is an in-memory session store for development and tests
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a store whose sessions expire after ttl; ttl <= 0 uses SessionTTL
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load returns a copy of the stored record or an empty one
func (m *MemorySessionStore) Load(ctx context.Context, sessionID string) (pkg.PreferenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return pkg.PreferenceRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return pkg.PreferenceRecord{}, nil
	}

	// Check if session has expired
	if m.now().Sub(session.updatedAt) > m.ttl {
		delete(m.sessions, sessionID)
		return pkg.PreferenceRecord{}, nil
	}
	return session.record.Clone(), nil
}

// Save stores a copy of record
func (m *MemorySessionStore) Save(ctx context.Context, sessionID string, record pkg.PreferenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = memorySession{record: record.Clone(), updatedAt: m.now()}
	return nil
}

// Exists reports whether a live session is stored
func (m *MemorySessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	return ok && m.now().Sub(session.updatedAt) <= m.ttl, nil
}

// Delete removes a session
func (m *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}
