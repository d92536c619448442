package session

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	// ErrSessionNotFound is returned when a session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStorageClosed is returned when operating on a closed storage backend.
	ErrStorageClosed = errors.New("storage backend is closed")
)

// StorageBackend abstracts session persistence.
// Implementations must be safe for concurrent use.
type StorageBackend interface {
	// SaveSession creates or replaces the full session record.
	SaveSession(ctx context.Context, rec *Record) error

	// LoadSession retrieves a session record by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	LoadSession(ctx context.Context, sessionID string) (*Record, error)

	// DeleteSession removes a session. It reports whether the session
	// existed and is idempotent: deleting a missing session is not an error.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// ListSessions returns metadata for stored sessions, most recently
	// updated first.
	ListSessions(ctx context.Context, opts ListOptions) ([]*Metadata, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ListOptions provides filtering for session listing.
type ListOptions struct {
	// Limit caps the number of results. Zero means no limit.
	Limit int
	// Offset skips the first N results.
	Offset int
}

func applyWindow(metas []*Metadata, opts ListOptions) []*Metadata {
	if opts.Offset > 0 {
		if opts.Offset >= len(metas) {
			return nil
		}
		metas = metas[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(metas) {
		metas = metas[:opts.Limit]
	}
	return metas
}
