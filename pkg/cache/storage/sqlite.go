package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// It provides a cache that survives process restarts and is suitable for
// single-instance deployments.
//
// The database runs in WAL mode for better concurrent read performance;
// SQLite only supports a single writer, so the connection pool is capped
// at one connection.
type SQLiteBackend struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	getStmt *sql.Stmt
	putStmt *sql.Stmt
	hasStmt *sql.Stmt
	delStmt *sql.Stmt
	lenStmt *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a SQLite backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{
		DBPath:      dbPath,
		BusyTimeout: 5 * time.Second,
	})
}

// NewSQLiteBackendWithConfig creates a SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		header TEXT NOT NULL,
		body BLOB,
		inserted_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache_entries(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements pre-compiles the SQL statements used on the hot path.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(
		`SELECT status, header, body, inserted_at, expires_at FROM cache_entries WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("prepare get: %w", err)
	}
	s.putStmt, err = s.db.Prepare(
		`INSERT INTO cache_entries (key, status, header, body, inserted_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   status = excluded.status,
		   header = excluded.header,
		   body = excluded.body,
		   inserted_at = excluded.inserted_at,
		   expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("prepare put: %w", err)
	}
	s.hasStmt, err = s.db.Prepare(
		`SELECT 1 FROM cache_entries WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`)
	if err != nil {
		return fmt.Errorf("prepare has: %w", err)
	}
	s.delStmt, err = s.db.Prepare(`DELETE FROM cache_entries WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	s.lenStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM cache_entries`)
	if err != nil {
		return fmt.Errorf("prepare len: %w", err)
	}

	return nil
}

// Get retrieves the entry for a key. Expired entries are deleted and
// reported as absent.
func (s *SQLiteBackend) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var (
		status     int
		headerJSON string
		body       []byte
		insertedAt int64
		expiresAt  int64
	)

	err := s.getStmt.QueryRowContext(ctx, key).Scan(&status, &headerJSON, &body, &insertedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cache entry: %w", err)
	}

	entry := &Entry{
		Status:     status,
		Body:       body,
		InsertedAt: time.Unix(0, insertedAt),
	}
	if expiresAt != 0 {
		entry.ExpiresAt = time.Unix(0, expiresAt)
	}
	if err := json.Unmarshal([]byte(headerJSON), &entry.Header); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached header: %w", err)
	}

	if entry.Expired(time.Now()) {
		if _, err := s.delStmt.ExecContext(ctx, key); err != nil {
			return nil, false, fmt.Errorf("failed to evict expired entry: %w", err)
		}
		return nil, false, nil
	}

	return entry, true, nil
}

// Put stores the entry, replacing any existing entry for the key.
func (s *SQLiteBackend) Put(ctx context.Context, key string, entry *Entry) error {
	header := entry.Header
	if header == nil {
		header = http.Header{}
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	var expiresAt int64
	if !entry.ExpiresAt.IsZero() {
		expiresAt = entry.ExpiresAt.UnixNano()
	}

	_, err = s.putStmt.ExecContext(ctx, key, entry.Status, string(headerJSON), entry.Body,
		entry.InsertedAt.UnixNano(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Has reports whether a live entry exists for the key.
func (s *SQLiteBackend) Has(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.hasStmt.QueryRowContext(ctx, key, time.Now().UnixNano()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check cache entry: %w", err)
	}
	return true, nil
}

// Len returns the number of stored entries.
func (s *SQLiteBackend) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.lenStmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}
