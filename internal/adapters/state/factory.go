package state

import (
	"path/filepath"
	"strings"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// NewStore creates a checkpoint store for the given path. A .db extension
// selects the SQLite backend; anything else gets the JSON file backend.
func NewStore(path string) (core.StateStore, error) {
	if strings.EqualFold(filepath.Ext(path), ".db") {
		return NewSQLiteStore(path)
	}
	return NewJSONStore(path), nil
}
