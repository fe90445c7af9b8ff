// Attachment row operations for the structured backend. Two indexing
// schemes coexist on one table: the legacy leg tag (replace-all writes) and
// the generalized category/ref key (additive writes).
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/voyagehq/tripvault/pkg/types"
)

const attachmentColumns = "att_id, trip_id, leg, name, type, size, file_id, category, ref"

// ReplaceLegAttachments swaps the attachments stored under one trip+leg
// pair: delete existing rows for that leg, insert the given items.
func (b *Backend) ReplaceLegAttachments(tripID, leg string, items []types.Attachment) error {
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

	if _, err := tx.Exec("DELETE FROM attachments WHERE trip_id = ? AND leg = ?", tripID, leg); err != nil {
		return fmt.Errorf("clearing %s attachments for trip %s: %w", leg, tripID, err)
	}
	for _, a := range items {
		_, err := tx.Exec(
			"INSERT INTO attachments (trip_id, leg, name, type, size, file_id) VALUES (?, ?, ?, ?, ?, ?)",
			tripID, leg, a.Name, a.Type, a.Size, a.FileID,
		)
		if err != nil {
			return fmt.Errorf("inserting attachment for trip %s: %w", tripID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing attachments for trip %s: %w", tripID, err)
	}
	return nil
}

// ReplaceAllAttachments swaps a trip's complete attachment set regardless of
// leg or category. Used by the legacy-blob migration, which imports whole
// embedded arrays.
func (b *Backend) ReplaceAllAttachments(tripID string, items []types.Attachment) error {
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

	if _, err := tx.Exec("DELETE FROM attachments WHERE trip_id = ?", tripID); err != nil {
		return fmt.Errorf("clearing attachments for trip %s: %w", tripID, err)
	}
	for _, a := range items {
		_, err := tx.Exec(
			"INSERT INTO attachments (trip_id, leg, name, type, size, file_id, category, ref) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			tripID, a.Leg, a.Name, a.Type, a.Size, a.FileID, a.Category, a.Ref,
		)
		if err != nil {
			return fmt.Errorf("inserting attachment for trip %s: %w", tripID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing attachments for trip %s: %w", tripID, err)
	}
	return nil
}

// AppendRefAttachments inserts attachments under a category/ref key without
// touching prior rows. Users attach documents to the same itinerary leg
// across multiple visits, so these writes accumulate.
func (b *Backend) AppendRefAttachments(tripID, category, ref string, items []types.Attachment) error {
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

	for _, a := range items {
		_, err := tx.Exec(
			"INSERT INTO attachments (trip_id, name, type, size, file_id, category, ref) VALUES (?, ?, ?, ?, ?, ?, ?)",
			tripID, a.Name, a.Type, a.Size, a.FileID, category, ref,
		)
		if err != nil {
			return fmt.Errorf("inserting %s attachment for trip %s: %w", category, tripID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing attachments for trip %s: %w", tripID, err)
	}
	return nil
}

// RefAttachments returns attachments filtered by category and ref. An empty
// category or ref widens the filter to match any value.
func (b *Backend) RefAttachments(tripID, category, ref string) ([]types.Attachment, error) {
	query := "SELECT " + attachmentColumns + " FROM attachments WHERE trip_id = ?"
	args := []any{tripID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if ref != "" {
		query += " AND ref = ?"
		args = append(args, ref)
	}
	return b.queryAttachments(query+" ORDER BY att_id ASC", args...)
}

// LegAttachments returns attachments filtered by the legacy leg tag. An
// empty leg matches every attachment of the trip.
func (b *Backend) LegAttachments(tripID, leg string) ([]types.Attachment, error) {
	query := "SELECT " + attachmentColumns + " FROM attachments WHERE trip_id = ?"
	args := []any{tripID}
	if leg != "" {
		query += " AND leg = ?"
		args = append(args, leg)
	}
	return b.queryAttachments(query+" ORDER BY att_id ASC", args...)
}

func (b *Backend) queryAttachments(query string, args ...any) ([]types.Attachment, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var items []types.Attachment
	for rows.Next() {
		var a types.Attachment
		var leg, name, typ, fileID, category, ref sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&a.AttID, &a.TripID, &leg, &name, &typ, &size, &fileID, &category, &ref); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		a.Leg = leg.String
		a.Name = name.String
		a.Type = typ.String
		a.Size = size.Int64
		a.FileID = fileID.String
		a.Category = category.String
		a.Ref = ref.String
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attachments: %w", err)
	}
	return items, nil
}
