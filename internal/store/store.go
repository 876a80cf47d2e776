// Package store persists client-side state between runs.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// NewSqliteDB opens (creating if needed) the sqlite database at file.
func NewSqliteDB(file string) (*sqlx.DB, error) {
	if file != ":memory:" && !strings.HasPrefix(file, "file:") {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	return sqlx.Connect("sqlite", file)
}
