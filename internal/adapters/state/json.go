// Package state implements the checkpoint store behind resumable audit
// sessions, with JSON-file and SQLite backends.
package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// JSONStore persists checkpoints as a single JSON file with a checksum
// envelope and a rolling backup.
type JSONStore struct {
	path       string
	backupPath string
}

// JSONStoreOption configures the store.
type JSONStoreOption func(*JSONStore)

// NewJSONStore creates a JSON checkpoint store at the given path.
func NewJSONStore(path string, opts ...JSONStoreOption) *JSONStore {
	s := &JSONStore{
		path:       path,
		backupPath: path + ".bak",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithBackupPath sets the backup file path.
func WithBackupPath(path string) JSONStoreOption {
	return func(s *JSONStore) {
		s.backupPath = path
	}
}

// stateEnvelope wraps the checkpoint with integrity metadata. The checksum is
// computed over the serialized state alone, so a truncated or hand-edited
// file is detected on load.
type stateEnvelope struct {
	Version   int               `json:"version"`
	Checksum  string            `json:"checksum"`
	UpdatedAt time.Time         `json:"updated_at"`
	State     *core.ResumeState `json:"state"`
}

func checksumOf(state *core.ResumeState) (string, []byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling state: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), data, nil
}

// Save persists the checkpoint atomically, keeping the previous file as a
// backup.
func (s *JSONStore) Save(_ context.Context, state *core.ResumeState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	if s.Exists() {
		if err := s.createBackup(); err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
	}

	state.UpdatedAt = time.Now()

	checksum, _, err := checksumOf(state)
	if err != nil {
		return err
	}

	envelope := stateEnvelope{
		Version:   core.CurrentStateVersion,
		Checksum:  checksum,
		UpdatedAt: state.UpdatedAt,
		State:     state,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := atomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint, falling back to the backup when the primary
// file is corrupt. Returns nil state and no error when none exists.
func (s *JSONStore) Load(_ context.Context) (*core.ResumeState, error) {
	if !s.Exists() {
		return nil, nil
	}

	state, err := s.loadFromPath(s.path)
	if err != nil {
		backupState, backupErr := s.loadFromPath(s.backupPath)
		if backupErr != nil {
			return nil, fmt.Errorf("loading state: %w (backup also failed: %v)", err, backupErr)
		}
		return backupState, nil
	}
	return state, nil
}

func (s *JSONStore) loadFromPath(path string) (*core.ResumeState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var envelope stateEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if envelope.State == nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "envelope carries no state")
	}

	checksum, _, err := checksumOf(envelope.State)
	if err != nil {
		return nil, err
	}
	if checksum != envelope.Checksum {
		return nil, core.ErrState(core.CodeStateCorrupted, "checksum mismatch")
	}

	return envelope.State, nil
}

func (s *JSONStore) createBackup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return atomicWriteFile(s.backupPath, data, 0o644)
}

// Exists checks if the checkpoint file exists.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the checkpoint and its backup.
func (s *JSONStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	if err := os.Remove(s.backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing backup file: %w", err)
	}
	return nil
}

// Close is a no-op for the JSON backend.
func (s *JSONStore) Close() error { return nil }

// Path returns the state file path.
func (s *JSONStore) Path() string { return s.path }

var _ core.StateStore = (*JSONStore)(nil)
