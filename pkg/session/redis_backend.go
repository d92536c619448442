package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis storage backend.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// KeyPrefix namespaces all keys. Defaults to "specdraft:".
	KeyPrefix string
	// TTL is an optional expiration applied to session records.
	// Zero means records never expire.
	TTL time.Duration
}

// RedisBackend implements StorageBackend using Redis.
// Each session is stored as a JSON record under its own key, with a hash
// holding per-session metadata so listings don't load full histories.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
	closed bool
}

// NewRedisBackend creates a Redis-based storage backend and verifies
// connectivity with a ping.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	return newRedisBackend(client, cfg), nil
}

// NewRedisBackendFromClient wraps an existing Redis client. The caller
// remains responsible for the client's lifecycle configuration but Close
// still closes it.
func NewRedisBackendFromClient(client *redis.Client, cfg RedisConfig) *RedisBackend {
	return newRedisBackend(client, cfg)
}

func newRedisBackend(client *redis.Client, cfg RedisConfig) *RedisBackend {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "specdraft:"
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

func (r *RedisBackend) sessionKey(sessionID string) string {
	return r.prefix + "session:" + sessionID
}

func (r *RedisBackend) indexKey() string {
	return r.prefix + "sessions"
}

// SaveSession creates or replaces the full session record.
func (r *RedisBackend) SaveSession(ctx context.Context, rec *Record) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrStorageClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	meta, err := json.Marshal(rec.Meta())
	if err != nil {
		return fmt.Errorf("marshal session metadata: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(rec.ID), data, r.ttl)
	pipe.HSet(ctx, r.indexKey(), rec.ID, meta)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

// LoadSession retrieves a session record by ID.
func (r *RedisBackend) LoadSession(ctx context.Context, sessionID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrStorageClosed
	}

	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse session record: %w", err)
	}
	return &rec, nil
}

// DeleteSession removes a session, reporting whether it existed.
func (r *RedisBackend) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, ErrStorageClosed
	}

	pipe := r.client.TxPipeline()
	delCmd := pipe.Del(ctx, r.sessionKey(sessionID))
	hdelCmd := pipe.HDel(ctx, r.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return delCmd.Val() > 0 || hdelCmd.Val() > 0, nil
}

// ListSessions returns metadata for stored sessions, most recently updated first.
func (r *RedisBackend) ListSessions(ctx context.Context, opts ListOptions) ([]*Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrStorageClosed
	}

	entries, err := r.client.HGetAll(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	metas := make([]*Metadata, 0, len(entries))
	for id, raw := range entries {
		var meta Metadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("parse metadata for session %s: %w", id, err)
		}
		metas = append(metas, &meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return applyWindow(metas, opts), nil
}

// Close closes the underlying Redis client.
func (r *RedisBackend) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}
