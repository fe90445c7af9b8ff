// Package migrate implements the one-time import of legacy flat-blob trip
// data into the structured backend. The completion flag lives in the
// preference store, apart from both trip representations, so a wipe of the
// structured database does not re-trigger the import.
package migrate

import (
	"go.uber.org/zap"

	"github.com/voyagehq/tripvault/internal/flatstore"
	"github.com/voyagehq/tripvault/internal/prefs"
	"github.com/voyagehq/tripvault/internal/sqlite"
)

// Engine carries the stores the import reads and writes. Dest may be nil
// when the structured backend is unavailable.
type Engine struct {
	Prefs  *prefs.Store
	Legacy *flatstore.Store
	Dest   *sqlite.Backend
	Log    *zap.Logger
}

// Run performs the import at most once. The completion flag is set on every
// exit path, including partial failure: a failed import is never retried
// automatically, trading completeness for a quiet startup. The returned
// error is non-nil only when the flag itself could not be persisted; callers
// log it and start up regardless.
func (e *Engine) Run() error {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	if e.Prefs.Get(prefs.KeyMigrationComplete) == "true" {
		return nil
	}

	e.runImport(log)

	if err := e.Prefs.Set(prefs.KeyMigrationComplete, "true"); err != nil {
		log.Warn("could not persist migration flag", zap.Error(err))
		return err
	}
	return nil
}

// runImport moves legacy records into the structured store, best effort.
// Every failure is absorbed here; nothing may block startup.
func (e *Engine) runImport(log *zap.Logger) {
	if e.Dest == nil {
		// No destination; nothing to migrate into.
		log.Debug("structured backend unavailable, skipping legacy import")
		return
	}
	if err := e.Dest.EnsureSchema(); err != nil {
		log.Warn("schema init failed during migration", zap.Error(err))
		return
	}

	trips, err := e.Legacy.LoadAll()
	if err != nil {
		log.Warn("could not read legacy blob", zap.Error(err))
		return
	}
	if len(trips) == 0 {
		// Nothing to migrate is a successful migration.
		return
	}

	imported := 0
	for _, trip := range trips {
		if err := e.Dest.UpsertTrip(trip); err != nil {
			log.Warn("legacy trip import failed", zap.String("trip_id", trip.ID), zap.Error(err))
			continue
		}
		if len(trip.SavedEvents) > 0 {
			if err := e.Dest.ReplaceEvents(trip.ID, trip.SavedEvents); err != nil {
				log.Warn("legacy event import failed", zap.String("trip_id", trip.ID), zap.Error(err))
			}
		}
		if len(trip.Attachments) > 0 {
			if err := e.Dest.ReplaceAllAttachments(trip.ID, trip.Attachments); err != nil {
				log.Warn("legacy attachment import failed", zap.String("trip_id", trip.ID), zap.Error(err))
			}
		}
		imported++
	}
	log.Info("legacy trip import finished",
		zap.Int("imported", imported),
		zap.Int("total", len(trips)),
	)
}
