// Package store implements the TripStore facade. One Store is constructed
// at process start; it probes the structured backend once, memoizes the
// result, and routes every operation to the structured or flat
// representation. Backend failure is absorbed here: a structured call that
// fails at call time flips a sticky fallback flag and the operation is
// retried against the flat store, so a write is never silently lost and no
// error escapes while a fallback path remains.
package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/voyagehq/tripvault/internal/blob"
	"github.com/voyagehq/tripvault/internal/flatstore"
	"github.com/voyagehq/tripvault/internal/migrate"
	"github.com/voyagehq/tripvault/internal/prefs"
	"github.com/voyagehq/tripvault/internal/sqlite"
	"github.com/voyagehq/tripvault/pkg/types"
)

// Compile-time interface check.
var _ types.TripStore = (*Store)(nil)

// Store routes the public trip API to the active representation.
type Store struct {
	log   *zap.Logger
	flat  *flatstore.Store
	prefs *prefs.Store
	blobs *blob.Store

	mu         sync.Mutex
	structured *sqlite.Backend // nil when the capability is absent
	fallback   bool            // sticky; set on probe or call-time failure
	closed     bool
}

// Open constructs the store. With the sqlite backend configured, the engine
// is probed exactly once; a failed probe is not an error but the expected
// condition on hosts without the capability, and routes every operation to
// the flat representation.
func Open(cfg types.Config, logger *zap.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		log:   logger,
		flat:  flatstore.New(cfg.DataDir),
		prefs: prefs.New(cfg.DataDir),
		blobs: blob.New(cfg.DataDir),
	}

	if cfg.Backend != types.BackendSQLite {
		s.fallback = true
		return s, nil
	}

	backend, err := sqlite.Open(cfg.DataDir)
	if err != nil {
		logger.Warn("structured backend unavailable, using flat store", zap.Error(err))
		s.fallback = true
		return s, nil
	}
	s.structured = backend
	return s, nil
}

// Blobs returns the binary attachment store. Blob ids are embedded in
// attachment records as file_id.
func (s *Store) Blobs() *blob.Store {
	return s.blobs
}

// InitSchema ensures the structured tables exist. A failure here degrades
// to the flat representation instead of surfacing.
func (s *Store) InitSchema() error {
	b := s.backend()
	if b == nil {
		return nil
	}
	if err := b.EnsureSchema(); err != nil {
		s.degrade("init_schema", err)
	}
	return nil
}

// MigrateFromLegacy imports pre-structured trip data exactly once. The
// engine sets its completion flag on every outcome; the returned error is
// non-nil only when that flag could not be persisted, and callers log it
// rather than abort startup.
func (s *Store) MigrateFromLegacy() error {
	engine := &migrate.Engine{
		Prefs:  s.prefs,
		Legacy: s.flat,
		Dest:   s.backend(),
		Log:    s.log,
	}
	return engine.Run()
}

// ResetMigrationFlag clears the completion flag so the next
// MigrateFromLegacy call runs the import again. The explicit escape hatch
// for callers that need a re-migration; never triggered automatically.
func (s *Store) ResetMigrationFlag() error {
	return s.prefs.Delete(prefs.KeyMigrationComplete)
}

// AddTrip upserts a trip by ID on the active representation.
func (s *Store) AddTrip(trip types.Trip) error {
	if trip.ID == "" {
		return types.ErrInvalidID
	}
	if b := s.readyBackend(); b != nil {
		err := b.UpsertTrip(trip)
		if err == nil {
			return nil
		}
		s.degrade("add_trip", err)
	}
	return s.flat.AddTrip(trip)
}

// UpdateTrip applies a partial update; empty patches and unknown IDs are
// no-ops.
func (s *Store) UpdateTrip(id string, patch types.TripPatch) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if patch.IsEmpty() {
		return nil
	}
	if b := s.readyBackend(); b != nil {
		err := b.PatchTrip(id, patch)
		if err == nil {
			return nil
		}
		s.degrade("update_trip", err)
	}
	return s.flat.UpdateTrip(id, patch)
}

// SavedTrips returns all trips ordered by date descending.
func (s *Store) SavedTrips() ([]types.Trip, error) {
	if b := s.readyBackend(); b != nil {
		trips, err := b.ListTrips()
		if err == nil {
			return trips, nil
		}
		s.degrade("saved_trips", err)
	}
	return s.flat.ListTrips()
}

// RemoveTrip deletes a trip. The structured path cascades to events and
// attachments; the flat path drops the whole denormalized record.
func (s *Store) RemoveTrip(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if b := s.readyBackend(); b != nil {
		err := b.DeleteTrip(id)
		if err == nil {
			return nil
		}
		s.degrade("remove_trip", err)
	}
	return s.flat.RemoveTrip(id)
}

// SaveCalendarEvents replaces the trip's whole event set.
func (s *Store) SaveCalendarEvents(tripID string, events []types.Event) error {
	if tripID == "" {
		return types.ErrInvalidID
	}
	if b := s.readyBackend(); b != nil {
		err := b.ReplaceEvents(tripID, events)
		if err == nil {
			return nil
		}
		s.degrade("save_calendar_events", err)
	}
	return s.flat.ReplaceEvents(tripID, events)
}

// TripEvents returns a trip's events ordered by date, then time.
func (s *Store) TripEvents(tripID string) ([]types.Event, error) {
	if b := s.readyBackend(); b != nil {
		events, err := b.EventsForTrip(tripID)
		if err == nil {
			return events, nil
		}
		s.degrade("trip_events", err)
	}
	return s.flat.EventsForTrip(tripID)
}

// SaveTripAttachments replaces the trip's attachments under one leg tag.
func (s *Store) SaveTripAttachments(tripID, leg string, items []types.Attachment) error {
	if tripID == "" {
		return types.ErrInvalidID
	}
	if b := s.readyBackend(); b != nil {
		err := b.ReplaceLegAttachments(tripID, leg, items)
		if err == nil {
			return nil
		}
		s.degrade("save_trip_attachments", err)
	}
	return s.flat.ReplaceLegAttachments(tripID, leg, items)
}

// SaveRefAttachments appends attachments under a category/ref key; prior
// attachments under the same key accumulate.
func (s *Store) SaveRefAttachments(tripID, category, ref string, items []types.Attachment) error {
	if tripID == "" {
		return types.ErrInvalidID
	}
	if b := s.readyBackend(); b != nil {
		err := b.AppendRefAttachments(tripID, category, ref, items)
		if err == nil {
			return nil
		}
		s.degrade("save_ref_attachments", err)
	}
	return s.flat.AppendRefAttachments(tripID, category, ref, items)
}

// RefAttachments returns attachments filtered by category and ref; empty
// values widen the filter.
func (s *Store) RefAttachments(tripID, category, ref string) ([]types.Attachment, error) {
	if b := s.readyBackend(); b != nil {
		items, err := b.RefAttachments(tripID, category, ref)
		if err == nil {
			return items, nil
		}
		s.degrade("ref_attachments", err)
	}
	return s.flat.RefAttachments(tripID, category, ref)
}

// TripAttachments returns attachments filtered by the legacy leg tag; an
// empty leg matches everything.
func (s *Store) TripAttachments(tripID, leg string) ([]types.Attachment, error) {
	if b := s.readyBackend(); b != nil {
		items, err := b.LegAttachments(tripID, leg)
		if err == nil {
			return items, nil
		}
		s.degrade("trip_attachments", err)
	}
	return s.flat.LegAttachments(tripID, leg)
}

// Close releases backend resources. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.structured != nil {
		return s.structured.Close()
	}
	return nil
}

// backend returns the structured backend, or nil when degraded or closed.
func (s *Store) backend() *sqlite.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fallback || s.closed {
		return nil
	}
	return s.structured
}

// readyBackend returns the structured backend with its schema ensured, or
// nil when the store is degraded. Every public operation goes through here,
// so schema init is safe from any entry point.
func (s *Store) readyBackend() *sqlite.Backend {
	b := s.backend()
	if b == nil {
		return nil
	}
	if err := b.EnsureSchema(); err != nil {
		s.degrade("ensure_schema", err)
		return nil
	}
	return b
}

// degrade flips the sticky fallback flag; subsequent calls skip the
// structured path entirely rather than repeating failing attempts.
func (s *Store) degrade(op string, err error) {
	s.mu.Lock()
	already := s.fallback
	s.fallback = true
	s.mu.Unlock()

	if !already {
		s.log.Warn("structured backend failed, degrading to flat store",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
