package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidPathComponent is returned when a path component contains unsafe characters.
var ErrInvalidPathComponent = errors.New("invalid path component: contains path separator or traversal sequence")

// validatePathComponent checks that a string is safe to use as a path component.
// It rejects empty strings, path separators, and traversal sequences.
func validatePathComponent(s string) error {
	if s == "" {
		return errors.New("path component cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return ErrInvalidPathComponent
	}
	return nil
}

// FileBackend implements StorageBackend using JSON files.
// Storage layout:
//
//	~/.specdraft/sessions/
//	  ├── sessions.json        # Session index (metadata only)
//	  └── <session-id>.json    # Full session record
type FileBackend struct {
	baseDir string
	mu      sync.RWMutex
	closed  bool
}

// NewFileBackend creates a new file-based storage backend.
// If baseDir is empty, uses ~/.specdraft/sessions.
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".specdraft", "sessions")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &FileBackend{
		baseDir: baseDir,
	}, nil
}

// SaveSession creates or replaces the full session record.
func (f *FileBackend) SaveSession(ctx context.Context, rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStorageClosed
	}
	if err := validatePathComponent(rec.ID); err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := os.WriteFile(f.sessionPath(rec.ID), data, 0600); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}

	index, err := f.loadIndex()
	if err != nil {
		return err
	}
	index[rec.ID] = rec.Meta()
	return f.writeIndex(index)
}

// LoadSession retrieves a session record by ID.
func (f *FileBackend) LoadSession(ctx context.Context, sessionID string) (*Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrStorageClosed
	}
	if err := validatePathComponent(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	data, err := os.ReadFile(f.sessionPath(sessionID)) // #nosec G304 - path components validated to prevent traversal
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse session record: %w", err)
	}
	return &rec, nil
}

// DeleteSession removes a session, reporting whether it existed.
func (f *FileBackend) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrStorageClosed
	}
	if err := validatePathComponent(sessionID); err != nil {
		return false, fmt.Errorf("invalid session ID: %w", err)
	}

	existed := true
	if err := os.Remove(f.sessionPath(sessionID)); err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("remove session record: %w", err)
		}
		existed = false
	}

	index, err := f.loadIndex()
	if err != nil {
		return false, err
	}
	if _, ok := index[sessionID]; ok {
		existed = true
		delete(index, sessionID)
		if err := f.writeIndex(index); err != nil {
			return false, err
		}
	}
	return existed, nil
}

// ListSessions returns metadata for stored sessions, most recently updated first.
func (f *FileBackend) ListSessions(ctx context.Context, opts ListOptions) ([]*Metadata, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrStorageClosed
	}

	index, err := f.loadIndex()
	if err != nil {
		return nil, err
	}
	metas := make([]*Metadata, 0, len(index))
	for _, meta := range index {
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return applyWindow(metas, opts), nil
}

// Close marks the backend closed. Further operations return ErrStorageClosed.
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *FileBackend) sessionPath(sessionID string) string {
	return filepath.Join(f.baseDir, sessionID+".json")
}

func (f *FileBackend) indexPath() string {
	return filepath.Join(f.baseDir, "sessions.json")
}

func (f *FileBackend) loadIndex() (map[string]*Metadata, error) {
	index := make(map[string]*Metadata)

	data, err := os.ReadFile(f.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return index, nil
		}
		return nil, fmt.Errorf("read sessions index: %w", err)
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse sessions index: %w", err)
	}
	return index, nil
}

func (f *FileBackend) writeIndex(index map[string]*Metadata) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions index: %w", err)
	}
	if err := os.WriteFile(f.indexPath(), data, 0600); err != nil {
		return fmt.Errorf("write sessions index: %w", err)
	}
	return nil
}
