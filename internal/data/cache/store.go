// Package cache persists snapshots of fetched API data so that a restart
// can warm the in-memory caches without hitting the network.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// SchemaVersion is bumped whenever the encoded snapshot layout or meaning
// changes; entries written with another version are ignored. Version 2
// stopped recording loaded ranges past the time they were fetched.
const SchemaVersion = 2

// ErrNotFound is returned when a key is absent, stale or from an older
// schema version.
var ErrNotFound = errors.New("snapshot not found")

// Backend is a raw key/value store.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, version int, timestamp int64, err error)
	Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Name() string
	Close() error
}

// BackendType selects the storage engine.
type BackendType string

const (
	FileBackendType     BackendType = "file"
	SQLiteBackendType   BackendType = "sqlite"
	MySQLBackendType    BackendType = "mysql"
	PostgresBackendType BackendType = "postgres"
	NoneBackendType     BackendType = "none"
)

// Config configures Open.
type Config struct {
	Backend BackendType
	// Dir is the directory of the file backend and of the default SQLite
	// database.
	Dir string
	// DSN is the connection string of SQL backends.
	DSN string
	// TTL is the maximum age of a usable snapshot; zero disables expiry.
	TTL time.Duration
}

// SnapshotStore encodes values with sonic and enforces TTL and version.
type SnapshotStore struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// Open creates the configured backend and wraps it.
func Open(cfg Config) (*SnapshotStore, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case FileBackendType, "":
		backend, err = NewFileBackend(cfg.Dir)
	case SQLiteBackendType, MySQLBackendType, PostgresBackendType, NoneBackendType:
		backend, err = NewSQLBackend(cfg.Backend, cfg.DSN, cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be file, sqlite, mysql, postgres, or none", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	util.LogDebugf("SnapshotStore: using %s backend (ttl %s)", backend.Name(), cfg.TTL)
	return NewSnapshotStore(backend, cfg.TTL), nil
}

// NewSnapshotStore wraps an existing backend.
func NewSnapshotStore(backend Backend, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{backend: backend, ttl: ttl, now: time.Now}
}

// Load decodes the snapshot stored under key into out.
func (s *SnapshotStore) Load(ctx context.Context, key string, out interface{}) error {
	data, version, ts, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		util.LogDebugf("SnapshotStore: %s has version %d, want %d", key, version, SchemaVersion)
		return ErrNotFound
	}
	if s.ttl > 0 && s.now().Sub(time.UnixMilli(ts)) > s.ttl {
		util.LogDebugf("SnapshotStore: %s expired (saved %s)", key, time.UnixMilli(ts).Format(time.RFC3339))
		return ErrNotFound
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return nil
}

// Save encodes value and stores it under key.
func (s *SnapshotStore) Save(ctx context.Context, key string, value interface{}) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}
	return s.backend.Set(ctx, key, data, SchemaVersion, s.now().UnixMilli())
}

// Delete removes key.
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Clear removes every snapshot.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

// Keys lists stored keys.
func (s *SnapshotStore) Keys(ctx context.Context) ([]string, error) {
	return s.backend.Keys(ctx)
}

// BackendName reports the active backend.
func (s *SnapshotStore) BackendName() string {
	return s.backend.Name()
}

// Close releases the backend.
func (s *SnapshotStore) Close() error {
	return s.backend.Close()
}
