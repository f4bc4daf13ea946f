package model

import "time"

// Details carries the descriptive columns of a program row. It is copied
// verbatim from the source row during validation; downstream stages never
// read unchecked row fields directly.
type Details struct {
	Type      string `json:"type"`
	Speaker   string `json:"speaker,omitempty"`
	ID        string `json:"id"`
	Room      string `json:"room,omitempty"`
	Session   string `json:"session,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Moderator string `json:"moderator,omitempty"`
	VideoLink string `json:"videolink,omitempty"`
	Track     string `json:"track,omitempty"`
}

// EventRecord is one validated program row, pre-merge. Title holds the talk
// identifier used as the display label and Subtitle the talk's own title,
// mirroring the source sheet's id/title columns.
//
// Invariant: OriginStart < OriginEnd, both wall-clock moments in the origin
// zone. Rows violating this never become EventRecords.
type EventRecord struct {
	ID       string
	Title    string
	Subtitle string
	Note     string

	OriginStart time.Time
	OriginEnd   time.Time

	Details   Details
	Color     string
	TextColor string
}

// MergedEvent is a session-level composite of one or more EventRecords
// sharing a session key. Start/End span the min start and max end of the
// constituent records, in the origin zone.
type MergedEvent struct {
	SessionKey string

	ID       string
	Title    string
	Subtitle string
	Note     string

	Start time.Time
	End   time.Time

	Details   Details
	Color     string
	TextColor string
}

// ConvertedEvent is a MergedEvent with its instants re-expressed in the
// display zone. Recomputed whenever the display zone or the event set
// changes; never persisted.
type ConvertedEvent struct {
	MergedEvent

	StartUser time.Time
	EndUser   time.Time
}

// ClippedEventEntry is a ConvertedEvent restricted to a single day's slot
// window, with the geometry the rendering layer positions it by. All layout
// fields are transient and recomputed on every render pass.
type ClippedEventEntry struct {
	Event ConvertedEvent

	// DayStart/DayEnd are the event's interval clipped to the day's slot
	// window, in the display zone.
	DayStart time.Time
	DayEnd   time.Time

	// Top/Height are pixel offsets within the day column.
	Top    float64
	Height float64

	// Lane is the column index separating overlapping events; Left/Width
	// are percentages of the day column.
	Lane  int
	Left  float64
	Width float64
}

// DayEvents is one visible day with its laid-out entries, sorted ascending
// by clipped start.
type DayEvents struct {
	Date    time.Time
	Entries []ClippedEventEntry
}
