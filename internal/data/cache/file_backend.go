package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

const filePrefix = "cache_"

type fileEnvelope struct {
	Version   int             `json:"version"`
	Timestamp int64           `json:"timestamp"`
	Value     json.RawMessage `json:"value"`
}

// FileBackend stores one JSON file per key.
type FileBackend struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileBackend creates baseDir if needed.
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("file cache requires a directory")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", baseDir, err)
	}
	return &FileBackend{baseDir: baseDir}, nil
}

// sanitizeKey keeps keys safe to use as file names.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.baseDir, filePrefix+sanitizeKey(key)+".json")
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, int, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, 0, ErrNotFound
		}
		return nil, 0, 0, err
	}
	var env fileEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache file for %s: %w", key, err)
	}
	return env.Value, env.Version, env.Timestamp, nil
}

// Set writes atomically through a temporary file.
func (b *FileBackend) Set(_ context.Context, key string, value []byte, version int, timestamp int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := sonic.Marshal(fileEnvelope{Version: version, Timestamp: timestamp, Value: value})
	if err != nil {
		return err
	}
	target := b.path(key)
	tmp, err := os.CreateTemp(b.baseDir, ".tmp-"+filePrefix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *FileBackend) Clear(ctx context.Context) error {
	keys, err := b.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the sanitized keys present on disk.
func (b *FileBackend) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *FileBackend) Name() string { return string(FileBackendType) }

func (b *FileBackend) Close() error { return nil }
