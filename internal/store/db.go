// Package store is the relational gateway for every entity the API serves.
// Queries are written once with '?' placeholders and rebound per dialect.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"advocacia.app/internal/dialect"
	"advocacia.app/internal/migrate"
)

const (
	memoryDSN = ":memory:"
	// Timestamps are written as "2006-01-02 15:04:05.999999999-07:00" so
	// SQLite date functions can read them.
	sqliteTimeFormat = "_time_format=sqlite"
)

// Store wraps the shared connection pool.
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
	now     func() time.Time
}

// Connect opens the pool for dsn without touching the schema. A postgres://
// URL selects pgx, anything else is a SQLite path (or ":memory:").
func Connect(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("store: empty dsn")
	}
	d := dialect.ForDSN(dsn)
	if d.IsPostgres() {
		db, err := sql.Open(string(dialect.Postgres), dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(15 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
		return New(db, d), nil
	}

	if dsn == memoryDSN {
		db, err := sql.Open(string(dialect.SQLite), memoryDSN+"?_pragma=foreign_keys(1)&"+sqliteTimeFormat)
		if err != nil {
			return nil, err
		}
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		return New(db, d), nil
	}

	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	db, err := sql.Open(string(dialect.SQLite), sqliteFileDSN(dsn))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	return New(db, d), nil
}

// Open connects, applies pending migrations and seeds.
func Open(ctx context.Context, dsn string) (*Store, error) {
	s, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory returns a migrated, seeded in-memory SQLite store.
func OpenInMemory(ctx context.Context) (*Store, error) {
	return Open(ctx, memoryDSN)
}

// New wraps an existing pool. Used by tests with sqlmock.
func New(db *sql.DB, d dialect.Dialect) *Store {
	return &Store{db: db, dialect: d, now: time.Now}
}

// WithClock overrides the timestamp source for written rows.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// Migrate applies pending migrations and seed files.
func (s *Store) Migrate(ctx context.Context) error {
	mgr := s.Migrations()
	if err := mgr.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := mgr.Seed(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// Migrations exposes the migration manager bound to this pool.
func (s *Store) Migrations() *migrate.Manager {
	return migrate.NewManager(s.db, s.dialect)
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() dialect.Dialect { return s.dialect }

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) timestamp() time.Time { return s.now().UTC() }

func (s *Store) q(query string) string { return s.dialect.Rebind(query) }

func sqliteFileDSN(path string) string {
	if strings.Contains(path, "?") {
		if strings.Contains(path, "_time_format=") {
			return path
		}
		return path + "&" + sqliteTimeFormat
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&" + sqliteTimeFormat
}
