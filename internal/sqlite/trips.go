// Trip row operations for the structured backend.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/voyagehq/tripvault/pkg/types"
)

const tripColumns = "id, title, date, passengers, flight_notes, reached_final_calendar, saved_calendar_name, saved_at"

// UpsertTrip writes a trip keyed by its ID. An existing row is fully
// replaced: scalar fields overwritten, flight notes replaced wholesale.
// Child rows are untouched; INSERT OR REPLACE would fire the cascade and
// wipe them, so the replace is spelled out as an explicit upsert.
func (b *Backend) UpsertTrip(trip types.Trip) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if trip.ID == "" {
		return types.ErrInvalidID
	}

	_, err = db.Exec(
		`INSERT INTO trips (`+tripColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   date = excluded.date,
		   passengers = excluded.passengers,
		   flight_notes = excluded.flight_notes,
		   reached_final_calendar = excluded.reached_final_calendar,
		   saved_calendar_name = excluded.saved_calendar_name,
		   saved_at = excluded.saved_at`,
		trip.ID, trip.Title, trip.Date, trip.Passengers,
		types.EncodeFlightNotes(trip.FlightNotes),
		boolToInt(trip.ReachedFinalCalendar),
		trip.SavedCalendarName, trip.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting trip %s: %w", trip.ID, err)
	}
	return nil
}

// PatchTrip applies a partial update to one trip. Empty patches and
// unknown IDs are no-ops.
func (b *Backend) PatchTrip(id string, patch types.TripPatch) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	if patch.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *patch.Title)
	}
	if patch.Date != nil {
		sets, args = append(sets, "date = ?"), append(args, *patch.Date)
	}
	if patch.Passengers != nil {
		sets, args = append(sets, "passengers = ?"), append(args, *patch.Passengers)
	}
	if patch.FlightNotes != nil {
		sets, args = append(sets, "flight_notes = ?"), append(args, types.EncodeFlightNotes(*patch.FlightNotes))
	}
	if patch.ReachedFinalCalendar != nil {
		sets, args = append(sets, "reached_final_calendar = ?"), append(args, boolToInt(*patch.ReachedFinalCalendar))
	}
	if patch.SavedCalendarName != nil {
		sets, args = append(sets, "saved_calendar_name = ?"), append(args, *patch.SavedCalendarName)
	}
	if patch.SavedAt != nil {
		sets, args = append(sets, "saved_at = ?"), append(args, *patch.SavedAt)
	}

	query := "UPDATE trips SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if _, err := db.Exec(query, args...); err != nil {
		return fmt.Errorf("updating trip %s: %w", id, err)
	}
	return nil
}

// ListTrips returns all trips ordered by date descending.
func (b *Backend) ListTrips() ([]types.Trip, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT " + tripColumns + " FROM trips ORDER BY date DESC")
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	var trips []types.Trip
	for rows.Next() {
		trip, err := hydrateTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trips: %w", err)
	}
	return trips, nil
}

// GetTrip returns one trip by ID. Returns ErrNotFound when absent.
func (b *Backend) GetTrip(id string) (types.Trip, error) {
	db, err := b.conn()
	if err != nil {
		return types.Trip{}, err
	}

	rows, err := db.Query("SELECT "+tripColumns+" FROM trips WHERE id = ?", id)
	if err != nil {
		return types.Trip{}, fmt.Errorf("getting trip %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return types.Trip{}, fmt.Errorf("getting trip %s: %w", id, err)
		}
		return types.Trip{}, types.ErrNotFound
	}
	trip, err := hydrateTrip(rows)
	if err != nil {
		return types.Trip{}, fmt.Errorf("hydrating trip %s: %w", id, err)
	}
	return trip, nil
}

// DeleteTrip removes a trip; the foreign keys cascade to its events and
// attachments. Unknown IDs are a no-op.
func (b *Backend) DeleteTrip(id string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}
	if _, err := db.Exec("DELETE FROM trips WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting trip %s: %w", id, err)
	}
	return nil
}

// hydrateTrip converts the current row of a trips query into a types.Trip.
// A corrupt flight_notes column decodes to an empty sequence.
func hydrateTrip(rows *sql.Rows) (types.Trip, error) {
	var t types.Trip
	var title, date, flightNotes, calendarName sql.NullString
	var passengers, reached sql.NullInt64
	var savedAt sql.NullInt64

	if err := rows.Scan(&t.ID, &title, &date, &passengers, &flightNotes, &reached, &calendarName, &savedAt); err != nil {
		return types.Trip{}, err
	}
	t.Title = title.String
	t.Date = date.String
	t.Passengers = int(passengers.Int64)
	t.FlightNotes = types.DecodeFlightNotes(flightNotes.String)
	t.ReachedFinalCalendar = reached.Int64 != 0
	t.SavedCalendarName = calendarName.String
	t.SavedAt = savedAt.Int64
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
