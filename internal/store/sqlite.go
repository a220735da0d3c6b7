package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lorabot/lorabot/internal/pet"
)

//go:embed schema.sql
var schemaSQL string

// DefaultNamespace keys the snapshot row when the host doesn't override it.
const DefaultNamespace = "lorabot"

// SQLiteStore persists snapshots in a single-file SQLite database.
// WAL mode keeps reads (e.g. the snapshot inspection command) from blocking
// the engine's writes.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

// OpenSQLite creates or opens the database at path. Idempotent: pragmas and
// schema are applied on every open.
func OpenSQLite(path, namespace string) (*SQLiteStore, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect snapshot database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, namespace: namespace}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the snapshot for this namespace. Returns (nil, nil) when no
// snapshot has been written yet.
func (s *SQLiteStore) Load(ctx context.Context) (*pet.Snapshot, error) {
	var data []byte
	var session string
	err := s.db.QueryRowContext(ctx, `
		SELECT data, session FROM snapshots WHERE namespace = ?
	`, s.namespace).Scan(&data, &session)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	snap, err := DecodeSnapshot(data)
	if snap != nil {
		snap.Session = session
	}
	return snap, err
}

// Save upserts the snapshot row for this namespace.
func (s *SQLiteStore) Save(ctx context.Context, snap *pet.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (namespace, session, data, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			session  = excluded.session,
			data     = excluded.data,
			saved_at = excluded.saved_at
	`, s.namespace, snap.Session, EncodeSnapshot(snap), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
