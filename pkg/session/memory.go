package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend implements StorageBackend with an in-process map.
// It is the default backend for tests and single-process deployments.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*Record
	closed   bool
}

// NewMemoryBackend creates an empty in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]*Record),
	}
}

// SaveSession creates or replaces the full session record.
func (m *MemoryBackend) SaveSession(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	// Store a copy so later caller mutations don't leak into the store.
	m.sessions[rec.ID] = rec.Clone()
	return nil
}

// LoadSession retrieves a session record by ID.
func (m *MemoryBackend) LoadSession(ctx context.Context, sessionID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	rec, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return rec.Clone(), nil
}

// DeleteSession removes a session, reporting whether it existed.
func (m *MemoryBackend) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrStorageClosed
	}
	_, existed := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return existed, nil
}

// ListSessions returns metadata for stored sessions, most recently updated first.
func (m *MemoryBackend) ListSessions(ctx context.Context, opts ListOptions) ([]*Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	metas := make([]*Metadata, 0, len(m.sessions))
	for _, rec := range m.sessions {
		metas = append(metas, rec.Meta())
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return applyWindow(metas, opts), nil
}

// Close marks the backend closed. Further operations return ErrStorageClosed.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sessions = nil
	return nil
}
