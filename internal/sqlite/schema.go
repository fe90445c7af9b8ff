// Schema DDL and idempotent initialization for the structured backend.
package sqlite

import "github.com/voyagehq/tripvault/pkg/types"

// Table creation statements. "IF NOT EXISTS" keeps every startup
// non-destructive across app versions.
const (
	createTrips = `CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    title TEXT,
    date TEXT,
    passengers INTEGER,
    flight_notes TEXT,
    reached_final_calendar INTEGER DEFAULT 0,
    saved_calendar_name TEXT,
    saved_at INTEGER
);`

	createEvents = `CREATE TABLE IF NOT EXISTS events (
    event_id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    name TEXT,
    label TEXT,
    date TEXT,
    time TEXT,
    address TEXT,
    type TEXT,
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
);`

	createAttachments = `CREATE TABLE IF NOT EXISTS attachments (
    att_id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    leg TEXT,
    name TEXT,
    type TEXT,
    size INTEGER,
    file_id TEXT,
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
);`
)

// additiveAlters are column additions layered onto older database files.
// Each fails with "duplicate column name" once applied; that failure is
// swallowed so the list is safe to run on every startup.
var additiveAlters = []string{
	`ALTER TABLE attachments ADD COLUMN category TEXT`,
	`ALTER TABLE attachments ADD COLUMN ref TEXT`,
}

// EnsureSchema creates the three tables and applies additive column
// migrations. Work happens on the first call per process; later calls are
// no-ops guarded by the ready flag.
func (b *Backend) EnsureSchema() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return nil
	}
	if b.closed || b.db == nil {
		return types.ErrStoreClosed
	}

	for _, ddl := range []string{createTrips, createEvents, createAttachments} {
		if _, err := b.db.Exec(ddl); err != nil {
			return err
		}
	}
	for _, alter := range additiveAlters {
		// Duplicate-column failures are expected on every run after the
		// first; any other failure here is equally non-fatal.
		_, _ = b.db.Exec(alter)
	}

	b.ready = true
	return nil
}
