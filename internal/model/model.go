package model

import "time"

// Event represents one logical wedding-programme entry (ceremony,
// reception, rehearsal, ...) before recurrence expansion. Most logic
// operates on the ics package's parsed form and on Occurrence, but a
// central Event type keeps the page and ics packages decoupled.
type Event struct {
	SourceID string // programme source ID (e.g., config ICS ID)
	UID      string // iCalendar UID

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Original start/end in the event's own timezone.
	Start time.Time
	End   time.Time
}

// Occurrence is a single concrete programme instance after recurrence
// expansion and timezone normalization. The shell renders these in the
// programme section; the earliest occurrence can also serve as the
// countdown deadline when the config does not name one explicitly.
type Occurrence struct {
	SourceID string
	UID      string

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// entry, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
