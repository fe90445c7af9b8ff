// Package flatstore implements the flat key-value fallback representation
// of the trip store: one JSON-array blob under a fixed key, trips
// denormalized with embedded events and attachments. It is the active
// backend whenever the structured engine is unavailable, and doubles as the
// legacy data source for the one-time migration.
package flatstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/voyagehq/tripvault/pkg/types"
)

// StoreFile is the fallback file name inside the data directory.
const StoreFile = "local.json"

// tripsKey is the fixed key the trip array lives under.
const tripsKey = "saved_trips"

// MaxTrips caps the fallback list; adding beyond the cap evicts the oldest.
const MaxTrips = 20

// Store reads and writes the flat representation. Every operation loads the
// blob, mutates it in memory, and writes it back atomically; no handle is
// held between calls.
type Store struct {
	path string
}

// New returns a flat store rooted at dataDir. The directory is created on
// first write.
func New(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "."
	}
	return &Store{path: filepath.Join(dataDir, StoreFile)}
}

// AddTrip upserts a trip by ID. A new trip is prepended; re-writing an
// existing ID replaces its scalar fields in place but keeps the embedded
// events and attachments the record already carried, mirroring the
// structured path where child rows survive a trip upsert. The list is
// capped at MaxTrips, evicting from the tail.
func (s *Store) AddTrip(trip types.Trip) error {
	trips, err := s.load()
	if err != nil {
		return err
	}
	if trip.ID == "" {
		return types.ErrInvalidID
	}

	var kept []types.Trip
	for _, t := range trips {
		if t.ID == trip.ID {
			if trip.SavedEvents == nil {
				trip.SavedEvents = t.SavedEvents
			}
			if trip.Attachments == nil {
				trip.Attachments = t.Attachments
			}
			continue
		}
		kept = append(kept, t)
	}

	trips = append([]types.Trip{trip}, kept...)
	if len(trips) > MaxTrips {
		trips = trips[:MaxTrips]
	}
	return s.save(trips)
}

// UpdateTrip applies a partial update. Empty patches and unknown IDs are
// no-ops.
func (s *Store) UpdateTrip(id string, patch types.TripPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	trips, err := s.load()
	if err != nil {
		return err
	}
	for i := range trips {
		if trips[i].ID == id {
			patch.Apply(&trips[i])
			return s.save(trips)
		}
	}
	return nil
}

// ListTrips returns all trips ordered by date descending.
func (s *Store) ListTrips() ([]types.Trip, error) {
	trips, err := s.load()
	if err != nil {
		return nil, err
	}
	sortTripsByDateDesc(trips)
	return trips, nil
}

// LoadAll returns the trips in stored order, embedded children included.
// The migration engine uses this to read the legacy blob verbatim.
func (s *Store) LoadAll() ([]types.Trip, error) {
	return s.load()
}

// RemoveTrip deletes a trip record. The embedded events and attachments go
// with it; there is no separate child storage to cascade over.
func (s *Store) RemoveTrip(id string) error {
	trips, err := s.load()
	if err != nil {
		return err
	}
	var kept []types.Trip
	removed := false
	for _, t := range trips {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return nil
	}
	return s.save(kept)
}

// ReplaceEvents swaps a trip's embedded event set. Unknown trips are a
// no-op.
func (s *Store) ReplaceEvents(tripID string, events []types.Event) error {
	normalized := make([]types.Event, len(events))
	for i, e := range events {
		e.Normalize()
		e.TripID = tripID
		normalized[i] = e
	}
	return s.mutateTrip(tripID, func(t *types.Trip) {
		t.SavedEvents = normalized
	})
}

// EventsForTrip returns a trip's embedded events ordered by date, then time
// with empty times first.
func (s *Store) EventsForTrip(tripID string) ([]types.Event, error) {
	trips, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, t := range trips {
		if t.ID == tripID {
			events := append([]types.Event(nil), t.SavedEvents...)
			types.SortEvents(events)
			return events, nil
		}
	}
	return nil, nil
}

// ReplaceLegAttachments swaps the attachments embedded under one trip+leg
// pair, leaving other legs and all category/ref attachments in place.
func (s *Store) ReplaceLegAttachments(tripID, leg string, items []types.Attachment) error {
	return s.mutateTrip(tripID, func(t *types.Trip) {
		var kept []types.Attachment
		for _, a := range t.Attachments {
			if a.Leg != leg {
				kept = append(kept, a)
			}
		}
		for _, a := range items {
			a.Leg = leg
			a.TripID = tripID
			kept = append(kept, a)
		}
		t.Attachments = kept
	})
}

// ReplaceAllAttachments swaps a trip's complete embedded attachment set.
func (s *Store) ReplaceAllAttachments(tripID string, items []types.Attachment) error {
	return s.mutateTrip(tripID, func(t *types.Trip) {
		replacement := make([]types.Attachment, len(items))
		for i, a := range items {
			a.TripID = tripID
			replacement[i] = a
		}
		t.Attachments = replacement
	})
}

// AppendRefAttachments adds attachments under a category/ref key without
// touching prior entries.
func (s *Store) AppendRefAttachments(tripID, category, ref string, items []types.Attachment) error {
	return s.mutateTrip(tripID, func(t *types.Trip) {
		for _, a := range items {
			a.Category = category
			a.Ref = ref
			a.TripID = tripID
			t.Attachments = append(t.Attachments, a)
		}
	})
}

// RefAttachments returns embedded attachments filtered by category and ref;
// empty values act as wildcards.
func (s *Store) RefAttachments(tripID, category, ref string) ([]types.Attachment, error) {
	return s.filterAttachments(tripID, func(a types.Attachment) bool {
		if category != "" && a.Category != category {
			return false
		}
		if ref != "" && a.Ref != ref {
			return false
		}
		return true
	})
}

// LegAttachments returns embedded attachments filtered by the legacy leg
// tag; an empty leg matches everything.
func (s *Store) LegAttachments(tripID, leg string) ([]types.Attachment, error) {
	return s.filterAttachments(tripID, func(a types.Attachment) bool {
		return leg == "" || a.Leg == leg
	})
}

func (s *Store) filterAttachments(tripID string, keep func(types.Attachment) bool) ([]types.Attachment, error) {
	trips, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, t := range trips {
		if t.ID != tripID {
			continue
		}
		var out []types.Attachment
		for _, a := range t.Attachments {
			if keep(a) {
				out = append(out, a)
			}
		}
		return out, nil
	}
	return nil, nil
}

func (s *Store) mutateTrip(tripID string, mutate func(*types.Trip)) error {
	trips, err := s.load()
	if err != nil {
		return err
	}
	for i := range trips {
		if trips[i].ID == tripID {
			mutate(&trips[i])
			return s.save(trips)
		}
	}
	return nil
}

// load reads the blob. A missing file is an empty store; a corrupt file
// decodes defensively to empty rather than failing the caller.
func (s *Store) load() ([]types.Trip, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, nil
	}
	raw, ok := blob[tripsKey]
	if !ok {
		return nil, nil
	}
	var trips []types.Trip
	if err := json.Unmarshal(raw, &trips); err != nil {
		return nil, nil
	}
	return trips, nil
}

// save writes the blob atomically using the temp-file, fsync, rename
// pattern.
func (s *Store) save(trips []types.Trip) error {
	if trips == nil {
		trips = []types.Trip{}
	}
	raw, err := json.Marshal(trips)
	if err != nil {
		return fmt.Errorf("marshaling trips: %w", err)
	}
	data, err := json.Marshal(map[string]json.RawMessage{tripsKey: raw})
	if err != nil {
		return fmt.Errorf("marshaling blob: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".local-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// sortTripsByDateDesc orders trips by date descending, matching the
// structured path so both representations present the same order.
func sortTripsByDateDesc(trips []types.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].Date > trips[j].Date
	})
}
