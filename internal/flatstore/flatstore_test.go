// Tests for the flat fallback representation.
package flatstore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/voyagehq/tripvault/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestAddTripUpsertByID(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}
	if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome, revised", Date: "2026-04-08"}); err != nil {
		t.Fatalf("second AddTrip failed: %v", err)
	}

	trips, err := s.ListTrips()
	if err != nil {
		t.Fatalf("ListTrips failed: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 record, got %d", len(trips))
	}
	if trips[0].Title != "Rome, revised" {
		t.Errorf("latest values not kept: %+v", trips[0])
	}
}

func TestAddTripKeepsEmbeddedChildrenOnUpsert(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}
	if err := s.ReplaceEvents("t1", []types.Event{{Name: "Museum", Date: "2026-04-06"}}); err != nil {
		t.Fatalf("ReplaceEvents failed: %v", err)
	}
	if err := s.AddTrip(types.Trip{ID: "t1", Title: "Renamed", Date: "2026-04-06"}); err != nil {
		t.Fatalf("re-add failed: %v", err)
	}

	events, err := s.EventsForTrip("t1")
	if err != nil {
		t.Fatalf("EventsForTrip failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("embedded events lost on upsert: %+v", events)
	}
}

func TestAddTripCapEvictsOldest(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < MaxTrips+3; i++ {
		trip := types.Trip{
			ID:   fmt.Sprintf("t%02d", i),
			Date: fmt.Sprintf("2026-01-%02d", i+1),
		}
		if err := s.AddTrip(trip); err != nil {
			t.Fatalf("AddTrip(%d) failed: %v", i, err)
		}
	}

	trips, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(trips) != MaxTrips {
		t.Fatalf("expected cap of %d, got %d", MaxTrips, len(trips))
	}
	// Newest first; the three oldest are gone.
	if trips[0].ID != fmt.Sprintf("t%02d", MaxTrips+2) {
		t.Errorf("newest not at head: %s", trips[0].ID)
	}
	for _, tr := range trips {
		if tr.ID == "t00" || tr.ID == "t01" || tr.ID == "t02" {
			t.Errorf("oldest record %s not evicted", tr.ID)
		}
	}
}

func TestUpdateTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddTrip(types.Trip{ID: "t1", Title: "Rome", Date: "2026-04-06", Passengers: 2}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}

	name := "Easter in Rome"
	if err := s.UpdateTrip("t1", types.TripPatch{SavedCalendarName: &name}); err != nil {
		t.Fatalf("UpdateTrip failed: %v", err)
	}
	trips, _ := s.ListTrips()
	if trips[0].SavedCalendarName != name || trips[0].Title != "Rome" {
		t.Errorf("patch misapplied: %+v", trips[0])
	}

	// Unknown id and empty patch are no-ops.
	if err := s.UpdateTrip("missing", types.TripPatch{SavedCalendarName: &name}); err != nil {
		t.Errorf("unknown id errored: %v", err)
	}
	if err := s.UpdateTrip("t1", types.TripPatch{}); err != nil {
		t.Errorf("empty patch errored: %v", err)
	}
}

func TestListTripsOrdersByDateDescending(t *testing.T) {
	s := newTestStore(t)
	for _, trip := range []types.Trip{
		{ID: "a", Date: "2026-01-10"},
		{ID: "b", Date: "2026-06-01"},
		{ID: "c", Date: "2026-03-15"},
	} {
		if err := s.AddTrip(trip); err != nil {
			t.Fatalf("AddTrip(%s) failed: %v", trip.ID, err)
		}
	}

	trips, err := s.ListTrips()
	if err != nil {
		t.Fatalf("ListTrips failed: %v", err)
	}
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if trips[i].ID != id {
			t.Errorf("trips[%d].ID = %s, want %s", i, trips[i].ID, id)
		}
	}
}

func TestRemoveTripDropsEmbeddedChildren(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}
	if err := s.ReplaceEvents("t1", []types.Event{{Name: "Museum", Date: "2026-04-06"}}); err != nil {
		t.Fatalf("ReplaceEvents failed: %v", err)
	}
	if err := s.RemoveTrip("t1"); err != nil {
		t.Fatalf("RemoveTrip failed: %v", err)
	}

	events, err := s.EventsForTrip("t1")
	if err != nil {
		t.Fatalf("EventsForTrip failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events survived removal: %+v", events)
	}
	if err := s.RemoveTrip("t1"); err != nil {
		t.Errorf("removing missing trip errored: %v", err)
	}
}

func TestReplaceEventsReplacesWholeSet(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}

	if err := s.ReplaceEvents("t1", []types.Event{{Name: "e1", Date: "2026-04-06"}}); err != nil {
		t.Fatalf("first ReplaceEvents failed: %v", err)
	}
	if err := s.ReplaceEvents("t1", []types.Event{{Name: "e2", Date: "2026-04-07"}}); err != nil {
		t.Fatalf("second ReplaceEvents failed: %v", err)
	}

	events, _ := s.EventsForTrip("t1")
	if len(events) != 1 || events[0].Name != "e2" {
		t.Errorf("expected only e2, got %+v", events)
	}
}

func TestAppendRefAttachmentsAccumulates(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}

	if err := s.AppendRefAttachments("t1", "transport", "A->B", []types.Attachment{{Name: "x.pdf"}}); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := s.AppendRefAttachments("t1", "transport", "A->B", []types.Attachment{{Name: "y.pdf"}}); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	items, err := s.RefAttachments("t1", "transport", "A->B")
	if err != nil {
		t.Fatalf("RefAttachments failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected both attachments, got %+v", items)
	}
}

func TestReplaceLegAttachmentsScopedByLeg(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}

	if err := s.ReplaceLegAttachments("t1", types.LegOutbound, []types.Attachment{{Name: "out.pdf"}}); err != nil {
		t.Fatalf("outbound write failed: %v", err)
	}
	if err := s.ReplaceLegAttachments("t1", types.LegInbound, []types.Attachment{{Name: "in.pdf"}}); err != nil {
		t.Fatalf("inbound write failed: %v", err)
	}
	if err := s.ReplaceLegAttachments("t1", types.LegOutbound, []types.Attachment{{Name: "rebooked.pdf"}}); err != nil {
		t.Fatalf("outbound replace failed: %v", err)
	}

	outbound, _ := s.LegAttachments("t1", types.LegOutbound)
	if len(outbound) != 1 || outbound[0].Name != "rebooked.pdf" {
		t.Errorf("outbound = %+v", outbound)
	}
	inbound, _ := s.LegAttachments("t1", types.LegInbound)
	if len(inbound) != 1 || inbound[0].Name != "in.pdf" {
		t.Errorf("inbound = %+v", inbound)
	}
}

func TestLoadCorruptFileIsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, StoreFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seeding corrupt file: %v", err)
	}

	s := New(dir)
	trips, err := s.ListTrips()
	if err != nil {
		t.Fatalf("ListTrips on corrupt file errored: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("expected empty store, got %+v", trips)
	}

	// The store must be writable again after the corrupt read.
	if err := s.AddTrip(types.Trip{ID: "t1", Date: "2026-04-06"}); err != nil {
		t.Fatalf("AddTrip after corrupt read failed: %v", err)
	}
}
