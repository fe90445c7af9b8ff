package types

import "encoding/json"

// Flight leg directions.
const (
	LegOutbound = "outbound"
	LegInbound  = "inbound"
)

// FlightLeg is one directional half of a round-trip flight. Legs are stored
// embedded in the trip as a JSON text column, never as their own table.
type FlightLeg struct {
	Leg           string `json:"leg"` // LegOutbound or LegInbound.
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Date          string `json:"date"`
	DepartureTime string `json:"departureTime,omitempty"`
	ArrivalTime   string `json:"arrivalTime,omitempty"`
	FlightNumber  string `json:"flightNumber,omitempty"`
	ArrivesNext   bool   `json:"arrivesNextDay,omitempty"`
}

// Trip is one user-planned journey, the root aggregate of the store.
// The ID is caller-supplied and opaque; the store assumes no format.
type Trip struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Date                 string      `json:"date"` // ISO date, default sort key.
	Passengers           int         `json:"passengers"`
	FlightNotes          []FlightLeg `json:"flightNotes,omitempty"`
	ReachedFinalCalendar bool        `json:"reachedFinalCalendar,omitempty"`
	SavedCalendarName    string      `json:"savedCalendarName,omitempty"`
	SavedAt              int64       `json:"savedAt,omitempty"` // Epoch milliseconds.

	// Embedded child records, populated only on the flat fallback
	// representation and in legacy pre-migration blobs.
	SavedEvents []Event      `json:"savedEvents,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// TripPatch carries a partial trip update. Nil fields are left untouched.
// FlightNotes, when set, replaces the stored sequence wholesale.
type TripPatch struct {
	Title                *string
	Date                 *string
	Passengers           *int
	FlightNotes          *[]FlightLeg
	ReachedFinalCalendar *bool
	SavedCalendarName    *string
	SavedAt              *int64
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TripPatch) IsEmpty() bool {
	return p.Title == nil && p.Date == nil && p.Passengers == nil &&
		p.FlightNotes == nil && p.ReachedFinalCalendar == nil &&
		p.SavedCalendarName == nil && p.SavedAt == nil
}

// Apply writes the set fields of the patch onto the trip.
func (p TripPatch) Apply(t *Trip) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Passengers != nil {
		t.Passengers = *p.Passengers
	}
	if p.FlightNotes != nil {
		t.FlightNotes = *p.FlightNotes
	}
	if p.ReachedFinalCalendar != nil {
		t.ReachedFinalCalendar = *p.ReachedFinalCalendar
	}
	if p.SavedCalendarName != nil {
		t.SavedCalendarName = *p.SavedCalendarName
	}
	if p.SavedAt != nil {
		t.SavedAt = *p.SavedAt
	}
}

// DecodeFlightNotes parses a stored flight_notes JSON value. Corrupt or
// empty input decodes to nil rather than an error; a damaged column must
// never poison a trip read.
func DecodeFlightNotes(raw string) []FlightLeg {
	if raw == "" {
		return nil
	}
	var legs []FlightLeg
	if err := json.Unmarshal([]byte(raw), &legs); err != nil {
		return nil
	}
	return legs
}

// EncodeFlightNotes serializes legs for the flight_notes column. A nil or
// empty sequence encodes to "[]" so the column round-trips cleanly.
func EncodeFlightNotes(legs []FlightLeg) string {
	if len(legs) == 0 {
		return "[]"
	}
	data, err := json.Marshal(legs)
	if err != nil {
		return "[]"
	}
	return string(data)
}
