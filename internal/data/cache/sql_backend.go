package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	tableName         = "snapshot_cache"
	defaultSQLiteFile = "snapshots.db"
)

// SQLBackend stores snapshots in a single table of a SQL database.
type SQLBackend struct {
	db      *sql.DB
	backend BackendType
}

// NewSQLBackend opens the database for the given backend type. For SQLite an
// empty dsn resolves to a file inside dir. The none backend keeps nothing.
func NewSQLBackend(backend BackendType, dsn, dir string) (*SQLBackend, error) {
	var (
		db  *sql.DB
		err error
	)

	switch backend {
	case SQLiteBackendType:
		if dsn == "" {
			if dir == "" {
				return nil, fmt.Errorf("sqlite cache requires a dsn or directory")
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
			}
			dsn = filepath.Join(dir, defaultSQLiteFile)
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	case MySQLBackendType:
		cfg, perr := mysql.ParseDSN(dsn)
		if perr != nil {
			return nil, fmt.Errorf("invalid MySQL DSN: %w", perr)
		}
		cfg.ParseTime = true
		db, err = sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}
	case PostgresBackendType:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
		}
	case NoneBackendType:
		return &SQLBackend{backend: backend}, nil
	default:
		return nil, fmt.Errorf("unsupported SQL backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}

	if _, err := db.Exec(createTableQuery(backend)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	util.LogDebugf("SQLBackend: %s ready (table %s)", backend, tableName)
	return &SQLBackend{db: db, backend: backend}, nil
}

func createTableQuery(backend BackendType) string {
	switch backend {
	case MySQLBackendType:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			cache_key VARCHAR(255) PRIMARY KEY,
			cache_value LONGBLOB NOT NULL,
			cache_version INT NOT NULL,
			cache_timestamp BIGINT NOT NULL
		)`
	case PostgresBackendType:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			cache_key TEXT PRIMARY KEY,
			cache_value BYTEA NOT NULL,
			cache_version INTEGER NOT NULL,
			cache_timestamp BIGINT NOT NULL
		)`
	default:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			cache_key TEXT PRIMARY KEY,
			cache_value BLOB NOT NULL,
			cache_version INTEGER NOT NULL,
			cache_timestamp INTEGER NOT NULL
		)`
	}
}

func (b *SQLBackend) placeholder(n int) string {
	if b.backend == PostgresBackendType {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (b *SQLBackend) upsertQuery() string {
	switch b.backend {
	case MySQLBackendType:
		return `INSERT INTO ` + tableName + ` (cache_key, cache_value, cache_version, cache_timestamp)
			VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE cache_value = new.cache_value, cache_version = new.cache_version, cache_timestamp = new.cache_timestamp`
	case PostgresBackendType:
		return `INSERT INTO ` + tableName + ` (cache_key, cache_value, cache_version, cache_timestamp)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET cache_value = EXCLUDED.cache_value, cache_version = EXCLUDED.cache_version, cache_timestamp = EXCLUDED.cache_timestamp`
	default:
		return `INSERT OR REPLACE INTO ` + tableName + ` (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?)`
	}
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, int, int64, error) {
	if b.db == nil {
		return nil, 0, 0, ErrNotFound
	}
	query := fmt.Sprintf("SELECT cache_value, cache_version, cache_timestamp FROM %s WHERE cache_key = %s", tableName, b.placeholder(1))

	var (
		value     []byte
		version   int
		timestamp int64
	)
	err := b.db.QueryRowContext(ctx, query, key).Scan(&value, &version, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return value, version, timestamp, nil
}

func (b *SQLBackend) Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error {
	if b.db == nil {
		return nil
	}
	if _, err := b.db.ExecContext(ctx, b.upsertQuery(), key, value, version, timestamp); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if b.db == nil {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE cache_key = %s", tableName, b.placeholder(1))
	if _, err := b.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Clear(ctx context.Context) error {
	if b.db == nil {
		return nil
	}
	if _, err := b.db.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
		return fmt.Errorf("failed to clear cache table: %w", err)
	}
	return nil
}

func (b *SQLBackend) Keys(ctx context.Context) ([]string, error) {
	if b.db == nil {
		return nil, nil
	}
	rows, err := b.db.QueryContext(ctx, "SELECT cache_key FROM "+tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, rows.Err()
}

// Status summarises the table contents.
type Status struct {
	Backend string
	Entries int
	Oldest  int64
	Newest  int64
}

// Status counts rows and reports the timestamp range.
func (b *SQLBackend) Status(ctx context.Context) (Status, error) {
	st := Status{Backend: string(b.backend)}
	if b.db == nil {
		return st, nil
	}
	var oldest, newest sql.NullInt64
	query := "SELECT COUNT(*), MIN(cache_timestamp), MAX(cache_timestamp) FROM " + tableName
	if err := b.db.QueryRowContext(ctx, query).Scan(&st.Entries, &oldest, &newest); err != nil {
		return st, fmt.Errorf("failed to query cache status: %w", err)
	}
	st.Oldest = oldest.Int64
	st.Newest = newest.Int64
	return st, nil
}

func (b *SQLBackend) Name() string { return string(b.backend) }

func (b *SQLBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
