package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"vocab-amas/internal/obslog"
)

// DB wraps a pooled SQLite connection shared by every store in this
// package, following the teacher's NewSQLiteStorage (connection pool
// tuning, pragma configuration, schema initialization) but scoped to a
// single handle instead of one storage struct per concern -- each
// concrete store (ParamStore, ExplainStore, WordMemoryStore, Catalog)
// takes a *DB and issues its own queries against it.
type DB struct {
	conn *sql.DB
}

// Open creates (or reopens) a SQLite-backed database at dbPath and
// initializes its schema. busyTimeoutMs bounds how long a writer waits
// on SQLITE_BUSY before failing.
func Open(dbPath string, busyTimeoutMs int) (*DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("storage: database path cannot be empty")
	}

	dsn := dbPath + fmt.Sprintf("?_busy_timeout=%d", busyTimeoutMs)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("storage: ping database: %w", err)
	}

	if err := configurePragmas(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("storage: configure pragmas: %w", err)
	}

	if err := initializeSchema(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("storage: initialize schema: %w", err)
	}

	obslog.Infof(context.Background(), "storage: sqlite backend ready at %s", dbPath)
	return &DB{conn: conn}, nil
}

// OpenMemory opens an in-process, non-persistent database, for tests and
// single-process deployments that don't need a durable file.
func OpenMemory() (*DB, error) {
	return Open("file::memory:?cache=shared", 5000)
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func configurePragmas(conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return nil
}
