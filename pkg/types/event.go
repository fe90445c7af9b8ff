package types

import "sort"

// DefaultEventName labels an event saved without a name.
const DefaultEventName = "Event"

// Event is a calendar entry belonging to exactly one trip. Events carry an
// autoincrement surrogate key on the structured path; the key is zero for
// events held in the flat fallback representation.
type Event struct {
	EventID int64  `json:"eventId,omitempty"`
	TripID  string `json:"tripId,omitempty"`
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Date    string `json:"date"`
	Time    string `json:"time,omitempty"`
	Address string `json:"address,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Normalize fills the generic name label when none was supplied.
func (e *Event) Normalize() {
	if e.Name == "" {
		e.Name = DefaultEventName
	}
}

// SortEvents orders events by date ascending, then time ascending with
// empty times first. The sort is stable so equal keys keep insertion order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return eventLess(events[i], events[j])
	})
}

func eventLess(a, b Event) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.Time < b.Time
}
