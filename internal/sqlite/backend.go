// Package sqlite implements the structured storage backend for tripvault
// over an embedded SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/voyagehq/tripvault/pkg/types"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "trips.db"

// Backend holds the memoized database handle. The handle is probed once at
// Open and kept for the process lifetime; database/sql pools the underlying
// connections per statement.
type Backend struct {
	mu     sync.Mutex
	db     *sql.DB
	ready  bool // schema ensured
	closed bool
}

// Open probes the SQLite engine and returns a working backend, or an error
// when the capability is absent. Callers treat the error as "structured
// backend unavailable", not as a failure to surface.
func Open(dataDir string) (*Backend, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sql.Open is lazy; Ping is the actual capability probe.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("probing database: %w", err)
	}

	return &Backend{db: db}, nil
}

// conn returns the live database handle, or ErrStoreClosed after Close.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.db == nil {
		return nil, types.ErrStoreClosed
	}
	return b.db, nil
}

// Close releases the database handle. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.db == nil {
		b.closed = true
		return nil
	}
	b.closed = true
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	return nil
}
