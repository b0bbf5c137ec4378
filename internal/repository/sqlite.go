package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const cleanupInterval = 5 * time.Minute

// sessions is the table sqlite3store reads and writes. expiry holds a
// julian day number.
const createSessionsTable = `
	CREATE TABLE IF NOT EXISTS sessions (
		token  TEXT PRIMARY KEY,
		data   BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

// SQLite is an scs.Store keeping session data in a sqlite file, so sessions
// survive restarts of the admin process.
type SQLite struct {
	*sqlite3store.SQLite3Store
	db *sql.DB
}

func NewSQLite(path string, log *zap.Logger) (*SQLite, error) {
	return newSQLite(path, log, cleanupInterval)
}

func newSQLite(path string, log *zap.Logger, interval time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(createSessionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	log.Info("session store opened", zap.String("path", path))

	return &SQLite{
		SQLite3Store: sqlite3store.NewWithCleanupInterval(db, interval),
		db:           db,
	}, nil
}

func (s *SQLite) Close() error {
	s.StopCleanup()
	return s.db.Close()
}
