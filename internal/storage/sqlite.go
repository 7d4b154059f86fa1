package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	crerr "github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores checkpoint documents in a single-table SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates the database at dbPath.
// An empty dbPath defaults to $TMPDIR/rosterwatch/checkpoint.db.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "rosterwatch", "checkpoint.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, crerr.Wrap(err, "failed to create data directory")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, crerr.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, crerr.Wrap(err, "failed to set WAL mode")
	}
	s := &SQLiteBackend{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, crerr.Wrap(err, "failed to create tables")
	}
	return s, nil
}

func (s *SQLiteBackend) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			name       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteBackend) Get(name string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM checkpoints WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "failed to query checkpoint %s", name)
	}
	return []byte(payload), nil
}

func (s *SQLiteBackend) Put(name string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO checkpoints (name, payload, updated_at) VALUES (?,?,?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return crerr.Wrapf(err, "failed to upsert checkpoint %s", name)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
