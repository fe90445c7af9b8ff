// Tests for the TripStore facade: routing, sticky degrade, and the
// fallback-equivalence contract.
package store

import (
	"fmt"
	"testing"

	"github.com/voyagehq/tripvault/pkg/types"
)

func openStore(t *testing.T, backend string) *Store {
	t.Helper()
	s, err := Open(types.Config{Backend: backend, DataDir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.InitSchema(); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	return s
}

// backends runs a subtest against the structured and flat configurations, so
// every facade behavior is checked for fallback equivalence.
func backends(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()
	for _, backend := range []string{types.BackendSQLite, types.BackendFlat} {
		t.Run(backend, func(t *testing.T) {
			fn(t, openStore(t, backend))
		})
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	if _, err := Open(types.Config{Backend: "postgres"}, nil); err != types.ErrBackendUnknown {
		t.Errorf("expected ErrBackendUnknown, got %v", err)
	}
}

func TestAddTripUpsertIdempotent(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome", Date: "2026-04-06", Passengers: 2}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome, revised", Date: "2026-04-06", Passengers: 3}); err != nil {
			t.Fatalf("second AddTrip failed: %v", err)
		}

		trips, err := s.SavedTrips()
		if err != nil {
			t.Fatalf("SavedTrips failed: %v", err)
		}
		if len(trips) != 1 {
			t.Fatalf("expected 1 trip, got %d", len(trips))
		}
		if trips[0].Title != "Rome, revised" || trips[0].Passengers != 3 {
			t.Errorf("latest values not kept: %+v", trips[0])
		}
	})
}

func TestFlightNotesScenario(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		err := s.AddTrip(types.Trip{
			ID: "t1", Title: "GRU → FCO", Date: "2026-04-06", Passengers: 2,
			FlightNotes: []types.FlightLeg{
				{Leg: types.LegOutbound, Origin: "GRU", Destination: "FCO", Date: "2026-04-06", DepartureTime: "22:30"},
			},
		})
		if err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}

		trips, err := s.SavedTrips()
		if err != nil {
			t.Fatalf("SavedTrips failed: %v", err)
		}
		if len(trips) != 1 {
			t.Fatalf("expected 1 trip, got %d", len(trips))
		}
		legs := trips[0].FlightNotes
		if len(legs) != 1 || legs[0].DepartureTime != "22:30" {
			t.Errorf("flight notes did not round-trip: %+v", legs)
		}
	})
}

func TestRefAttachmentScenario(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		err := s.SaveRefAttachments("t1", "stay", "Roma|Piazza 16", []types.Attachment{
			{Name: "receipt.pdf", Type: "application/pdf", Size: 102400, FileID: "blob1"},
		})
		if err != nil {
			t.Fatalf("SaveRefAttachments failed: %v", err)
		}

		items, err := s.RefAttachments("t1", "stay", "Roma|Piazza 16")
		if err != nil {
			t.Fatalf("RefAttachments failed: %v", err)
		}
		if len(items) != 1 || items[0].Name != "receipt.pdf" {
			t.Errorf("items = %+v", items)
		}
	})
}

func TestRefAttachmentsAdditive(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		for _, name := range []string{"x.pdf", "y.pdf"} {
			err := s.SaveRefAttachments("t1", "transport", "A->B", []types.Attachment{{Name: name}})
			if err != nil {
				t.Fatalf("SaveRefAttachments(%s) failed: %v", name, err)
			}
		}

		items, err := s.RefAttachments("t1", "transport", "A->B")
		if err != nil {
			t.Fatalf("RefAttachments failed: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("expected both attachments retrievable, got %+v", items)
		}
	})
}

func TestSaveCalendarEventsReplaceAll(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		if err := s.SaveCalendarEvents("t1", []types.Event{{Name: "e1", Date: "2026-04-06"}}); err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		if err := s.SaveCalendarEvents("t1", []types.Event{{Name: "e2", Date: "2026-04-07"}}); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		events, err := s.TripEvents("t1")
		if err != nil {
			t.Fatalf("TripEvents failed: %v", err)
		}
		if len(events) != 1 || events[0].Name != "e2" {
			t.Errorf("expected only e2 to survive, got %+v", events)
		}
	})
}

func TestRemoveTripCascades(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		if err := s.SaveCalendarEvents("t1", []types.Event{{Name: "Museum", Date: "2026-04-06"}}); err != nil {
			t.Fatalf("SaveCalendarEvents failed: %v", err)
		}
		if err := s.SaveTripAttachments("t1", types.LegOutbound, []types.Attachment{{Name: "ticket.pdf"}}); err != nil {
			t.Fatalf("SaveTripAttachments failed: %v", err)
		}

		if err := s.RemoveTrip("t1"); err != nil {
			t.Fatalf("RemoveTrip failed: %v", err)
		}

		events, err := s.TripEvents("t1")
		if err != nil {
			t.Fatalf("TripEvents failed: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("events survived removal: %+v", events)
		}
		atts, err := s.TripAttachments("t1", "")
		if err != nil {
			t.Fatalf("TripAttachments failed: %v", err)
		}
		if len(atts) != 0 {
			t.Errorf("attachments survived removal: %+v", atts)
		}
	})
}

// TestFallbackEquivalence drives the full trip lifecycle against both
// configurations and compares the observable results.
func TestFallbackEquivalence(t *testing.T) {
	type result struct {
		titles     []string
		passengers []int
	}

	run := func(t *testing.T, s *Store) result {
		if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome", Date: "2026-04-06", Passengers: 2}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		if err := s.AddTrip(types.Trip{ID: "t2", Title: "Lisbon", Date: "2026-05-01", Passengers: 1}); err != nil {
			t.Fatalf("AddTrip failed: %v", err)
		}
		n := 4
		if err := s.UpdateTrip("t1", types.TripPatch{Passengers: &n}); err != nil {
			t.Fatalf("UpdateTrip failed: %v", err)
		}
		if err := s.RemoveTrip("t2"); err != nil {
			t.Fatalf("RemoveTrip failed: %v", err)
		}

		trips, err := s.SavedTrips()
		if err != nil {
			t.Fatalf("SavedTrips failed: %v", err)
		}
		var r result
		for _, trip := range trips {
			r.titles = append(r.titles, trip.Title)
			r.passengers = append(r.passengers, trip.Passengers)
		}
		return r
	}

	structured := run(t, openStore(t, types.BackendSQLite))
	flat := run(t, openStore(t, types.BackendFlat))

	if fmt.Sprint(structured) != fmt.Sprint(flat) {
		t.Errorf("paths diverge: structured=%+v flat=%+v", structured, flat)
	}
	if len(structured.titles) != 1 || structured.titles[0] != "Rome" || structured.passengers[0] != 4 {
		t.Errorf("unexpected lifecycle result: %+v", structured)
	}
}

func TestSavedTripsOrdering(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		for _, trip := range []types.Trip{
			{ID: "a", Date: "2026-01-10"},
			{ID: "b", Date: "2026-06-01"},
			{ID: "c", Date: "2026-03-15"},
		} {
			if err := s.AddTrip(trip); err != nil {
				t.Fatalf("AddTrip(%s) failed: %v", trip.ID, err)
			}
		}
		trips, err := s.SavedTrips()
		if err != nil {
			t.Fatalf("SavedTrips failed: %v", err)
		}
		want := []string{"b", "c", "a"}
		for i, id := range want {
			if trips[i].ID != id {
				t.Errorf("trips[%d].ID = %s, want %s", i, trips[i].ID, id)
			}
		}
	})
}

func TestCallTimeFailureDegradesAndRetries(t *testing.T) {
	s := openStore(t, types.BackendSQLite)

	// Kill the structured backend underneath the facade. The next write
	// must flip to the flat path and still land.
	s.mu.Lock()
	backend := s.structured
	s.mu.Unlock()
	if err := backend.Close(); err != nil {
		t.Fatalf("closing backend: %v", err)
	}

	if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip after backend failure: %v", err)
	}

	// Sticky: subsequent calls route straight to the flat store.
	s.mu.Lock()
	degraded := s.fallback
	s.mu.Unlock()
	if !degraded {
		t.Error("fallback flag not set after call-time failure")
	}

	trips, err := s.SavedTrips()
	if err != nil {
		t.Fatalf("SavedTrips after degrade: %v", err)
	}
	if len(trips) != 1 || trips[0].Title != "Rome" {
		t.Errorf("write lost in degrade: %+v", trips)
	}
}

func TestMigrateFromLegacy(t *testing.T) {
	dir := t.TempDir()

	// Seed legacy data through a flat-only store, the shape a pre-upgrade
	// install leaves behind.
	legacy, err := Open(types.Config{Backend: types.BackendFlat, DataDir: dir}, nil)
	if err != nil {
		t.Fatalf("Open flat failed: %v", err)
	}
	if err := legacy.AddTrip(types.Trip{ID: "t1", Title: "Rome", Date: "2026-04-06"}); err != nil {
		t.Fatalf("seeding trip failed: %v", err)
	}
	if err := legacy.SaveCalendarEvents("t1", []types.Event{{Name: "Museum", Date: "2026-04-06"}}); err != nil {
		t.Fatalf("seeding events failed: %v", err)
	}
	legacy.Close()

	// A structured store over the same directory imports it on startup.
	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	defer s.Close()
	if err := s.InitSchema(); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	if err := s.MigrateFromLegacy(); err != nil {
		t.Fatalf("MigrateFromLegacy failed: %v", err)
	}

	trips, err := s.SavedTrips()
	if err != nil {
		t.Fatalf("SavedTrips failed: %v", err)
	}
	if len(trips) != 1 || trips[0].Title != "Rome" {
		t.Errorf("trips after migration: %+v", trips)
	}
	events, err := s.TripEvents("t1")
	if err != nil {
		t.Fatalf("TripEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Museum" {
		t.Errorf("events after migration: %+v", events)
	}

	// Second call is gated by the durable flag.
	if err := s.MigrateFromLegacy(); err != nil {
		t.Errorf("second MigrateFromLegacy errored: %v", err)
	}
}

func TestResetMigrationFlag(t *testing.T) {
	s := openStore(t, types.BackendSQLite)
	if err := s.MigrateFromLegacy(); err != nil {
		t.Fatalf("MigrateFromLegacy failed: %v", err)
	}
	if err := s.ResetMigrationFlag(); err != nil {
		t.Fatalf("ResetMigrationFlag failed: %v", err)
	}
	// Flag cleared; a second run proceeds instead of short-circuiting.
	if err := s.MigrateFromLegacy(); err != nil {
		t.Errorf("re-migration after reset errored: %v", err)
	}
}

func TestBlobRoundTripThroughAttachment(t *testing.T) {
	s := openStore(t, types.BackendSQLite)

	ref, err := s.Blobs().Put("receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}
	err = s.SaveRefAttachments("t1", "stay", "Roma", []types.Attachment{
		{Name: ref.Name, Type: ref.Type, Size: ref.Size, FileID: ref.ID},
	})
	if err != nil {
		t.Fatalf("SaveRefAttachments failed: %v", err)
	}

	items, err := s.RefAttachments("t1", "stay", "Roma")
	if err != nil {
		t.Fatalf("RefAttachments failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(items))
	}
	data, err := s.Blobs().Open(items[0].FileID)
	if err != nil {
		t.Fatalf("Open blob via file_id failed: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Error("blob payload did not round-trip through file_id")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := openStore(t, types.BackendSQLite)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close errored: %v", err)
	}
}
