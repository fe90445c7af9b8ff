package types

import "errors"

// TripStore is the single API the surrounding application sees, regardless
// of which storage representation is active. Implementations absorb backend
// failure internally; under normal operation a caller observes degraded or
// empty results, never an error, as long as some representation remains
// writable.
type TripStore interface {
	// InitSchema ensures the structured tables exist. Safe to call from
	// every entry point; does work only on the first call per process and
	// is a no-op when the structured backend is unavailable.
	InitSchema() error

	// MigrateFromLegacy imports pre-structured trip data exactly once,
	// gated by a durable completion flag. Never returns an error that
	// should block startup.
	MigrateFromLegacy() error

	// AddTrip upserts a trip by ID. Writing an existing ID fully replaces
	// its scalar fields; flight notes are replaced wholesale.
	AddTrip(trip Trip) error

	// UpdateTrip applies a partial update. Empty patches and unknown IDs
	// are no-ops, not errors.
	UpdateTrip(id string, patch TripPatch) error

	// SavedTrips returns all trips ordered by date descending.
	SavedTrips() ([]Trip, error)

	// RemoveTrip deletes a trip and its child events and attachments.
	RemoveTrip(id string) error

	// SaveCalendarEvents replaces the trip's whole event set.
	SaveCalendarEvents(tripID string, events []Event) error

	// TripEvents returns events ordered by date, then time, empty times
	// first.
	TripEvents(tripID string) ([]Event, error)

	// SaveTripAttachments replaces the trip's attachments under one leg tag.
	SaveTripAttachments(tripID, leg string, items []Attachment) error

	// SaveRefAttachments appends attachments under a category/ref key.
	// Additive only: prior attachments under the same key are kept.
	SaveRefAttachments(tripID, category, ref string, items []Attachment) error

	// RefAttachments returns attachments filtered by category and ref;
	// empty values widen the filter.
	RefAttachments(tripID, category, ref string) ([]Attachment, error)

	// TripAttachments returns attachments filtered by the legacy leg tag;
	// an empty leg matches every attachment of the trip.
	TripAttachments(tripID, leg string) ([]Attachment, error)

	// Close releases backend resources. Idempotent.
	Close() error
}

// Store operation errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidID   = errors.New("invalid record ID")
	ErrStoreClosed = errors.New("store is closed")
)
