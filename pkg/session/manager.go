package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/specdraft/specdraft/internal/observability"
)

// DefaultMaxHistory is the history bound applied when NewManager is given
// a non-positive limit.
const DefaultMaxHistory = 20

// Manager coordinates session lifecycle on top of a storage backend.
// Records are staged in memory by the caller and persisted through Commit,
// which bounds the history and bumps the update timestamp. Manager is safe
// for concurrent use as long as the backend is.
type Manager struct {
	backend    StorageBackend
	maxHistory int
}

// NewManager creates a session manager with the given storage backend and
// history bound.
func NewManager(backend StorageBackend, maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		backend:    backend,
		maxHistory: maxHistory,
	}
}

// NewRecord creates a fresh, unpersisted session record. The record only
// reaches storage on the first successful Commit, so a failed first turn
// leaves nothing behind.
func (m *Manager) NewRecord() *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Get retrieves an existing session by ID.
// Returns ErrSessionNotFound if the session doesn't exist.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Record, error) {
	return m.backend.LoadSession(ctx, sessionID)
}

// Commit persists the record as a whole. The oldest turns are dropped when
// the history exceeds the configured bound.
func (m *Manager) Commit(ctx context.Context, rec *Record) error {
	ctx, span := observability.StartSpan(ctx, "session.commit", map[string]any{
		"session_id": rec.ID,
		"turns":      len(rec.History),
	})
	defer span.End()

	if excess := len(rec.History) - m.maxHistory; excess > 0 {
		rec.History = append([]Turn(nil), rec.History[excess:]...)
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := m.backend.SaveSession(ctx, rec); err != nil {
		span.SetError(err)
		return fmt.Errorf("commit session %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a session, reporting whether it existed. Deleting a
// missing session is not an error.
func (m *Manager) Delete(ctx context.Context, sessionID string) (bool, error) {
	return m.backend.DeleteSession(ctx, sessionID)
}

// List returns metadata for stored sessions, most recently updated first.
func (m *Manager) List(ctx context.Context, opts ListOptions) ([]*Metadata, error) {
	return m.backend.ListSessions(ctx, opts)
}

// MaxHistory returns the configured history bound.
func (m *Manager) MaxHistory() int {
	return m.maxHistory
}

// Close releases the underlying storage backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
