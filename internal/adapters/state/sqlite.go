package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hmarchand/wcagaudit/internal/core"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	checksum TEXT NOT NULL,
	state TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore persists checkpoints in a single-row SQLite table. WAL mode
// keeps writers from blocking the status endpoints that read alongside.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.Mutex
}

// NewSQLiteStore opens (or creates) a SQLite checkpoint store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{dbPath: dbPath, db: db}
	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (1, ?)",
		time.Now())
	return err
}

// Save upserts the single checkpoint row inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, state *core.ResumeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	hash := sha256.Sum256(data)
	checksum := hex.EncodeToString(hash[:])

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (id, version, checksum, state, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			checksum = excluded.checksum,
			state = excluded.state,
			updated_at = excluded.updated_at
	`, state.Version, checksum, string(data), state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint and verifies its checksum. Returns nil state
// and no error when no checkpoint is stored.
func (s *SQLiteStore) Load(ctx context.Context) (*core.ResumeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var checksum, raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT checksum, state FROM checkpoints WHERE id = 1").Scan(&checksum, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying checkpoint: %w", err)
	}

	hash := sha256.Sum256([]byte(raw))
	if hex.EncodeToString(hash[:]) != checksum {
		return nil, core.ErrState(core.CodeStateCorrupted, "checksum mismatch")
	}

	var state core.ResumeState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "malformed state payload").WithCause(err)
	}
	return &state, nil
}

// Exists reports whether a checkpoint row is present.
func (s *SQLiteStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM checkpoints WHERE id = 1").Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// Clear deletes the checkpoint row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE id = 1")
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.dbPath }

var _ core.StateStore = (*SQLiteStore)(nil)
