// Event row operations for the structured backend.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/voyagehq/tripvault/pkg/types"
)

// ReplaceEvents swaps a trip's whole event set: delete existing rows, insert
// the given sequence. Callers persist computed itineraries wholesale, so
// there is no incremental upsert path.
func (b *Backend) ReplaceEvents(tripID string, events []types.Event) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if tripID == "" {
		return types.ErrInvalidID
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events WHERE trip_id = ?", tripID); err != nil {
		return fmt.Errorf("clearing events for trip %s: %w", tripID, err)
	}
	for _, e := range events {
		e.Normalize()
		_, err := tx.Exec(
			"INSERT INTO events (trip_id, name, label, date, time, address, type) VALUES (?, ?, ?, ?, ?, ?, ?)",
			tripID, e.Name, e.Label, e.Date, e.Time, e.Address, e.Type,
		)
		if err != nil {
			return fmt.Errorf("inserting event for trip %s: %w", tripID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing events for trip %s: %w", tripID, err)
	}
	return nil
}

// EventsForTrip returns a trip's events ordered by date ascending, then
// time ascending; rows without a time sort before timed rows of the same day.
func (b *Backend) EventsForTrip(tripID string) ([]types.Event, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT event_id, trip_id, name, label, date, time, address, type FROM events WHERE trip_id = ? ORDER BY date ASC, time ASC",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var e types.Event
		var name, label, date, timeStr, address, typ sql.NullString
		if err := rows.Scan(&e.EventID, &e.TripID, &name, &label, &date, &timeStr, &address, &typ); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Name = name.String
		e.Label = label.String
		e.Date = date.String
		e.Time = timeStr.String
		e.Address = address.String
		e.Type = typ.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events for trip %s: %w", tripID, err)
	}
	return events, nil
}
