package models

import (
	"fmt"
	"time"
)

// CommandKind identifies the operation a structured command describes
type CommandKind string

const (
	KindEvent    CommandKind = "event"
	KindReminder CommandKind = "reminder"
	KindNote     CommandKind = "note"
	KindOther    CommandKind = "other"
)

// TimeOfDay is a wall-clock time in 24-hour form.
// Hour is 0-23 and Minute is 0-59; 12am maps to hour 0 and 12pm to hour 12.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Valid reports whether the time is a real wall-clock time
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the offset from midnight in minutes, used for ordering
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier in the day than other
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// ParseClock parses a 24-hour "HH:MM" string
func ParseClock(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	tod := TimeOfDay{Hour: h, Minute: m}
	if !tod.Valid() {
		return TimeOfDay{}, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return tod, nil
}

// DateSpec is a concrete calendar date
type DateSpec struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf extracts the date components from an instant
func DateOf(t time.Time) DateSpec {
	y, m, d := t.Date()
	return DateSpec{Year: y, Month: m, Day: d}
}

// Valid reports whether the date exists on the calendar,
// respecting days-per-month and leap years
func (d DateSpec) Valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	// time.Date normalizes overflow (Feb 30 -> Mar 2), so a round-trip
	// detects impossible dates.
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// String formats the date as YYYY-MM-DD
func (d DateSpec) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time combines the date with a time of day in the given location
func (d DateSpec) Time(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// AddDays returns the date n days later (or earlier for negative n)
func (d DateSpec) AddDays(n int) DateSpec {
	return DateOf(d.Time(TimeOfDay{}, time.UTC).AddDate(0, 0, n))
}

// Weekday returns the day of week the date falls on
func (d DateSpec) Weekday() time.Weekday {
	return d.Time(TimeOfDay{}, time.UTC).Weekday()
}

// Before reports whether d is strictly earlier than other
func (d DateSpec) Before(other DateSpec) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// ParseDate parses an explicit YYYY-MM-DD date and verifies it exists
func ParseDate(s string) (DateSpec, error) {
	var y, m, day int
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &day); err != nil {
		return DateSpec{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	d := DateSpec{Year: y, Month: time.Month(m), Day: day}
	if !d.Valid() {
		return DateSpec{}, fmt.Errorf("invalid date %q: no such day on the calendar", s)
	}
	return d, nil
}

// ContactRef is an extracted attendee: a display name plus any email
// addresses resolved for it. Emails are unique after case-insensitive
// comparison and keep their first-seen form and order.
type ContactRef struct {
	DisplayName string   `json:"display_name"`
	Emails      []string `json:"emails,omitempty"`
}

// StructuredCommand is the validated, unambiguous output of the
// normalization engine, ready for execution against a calendar,
// reminder, or note backend. It is never mutated after construction.
type StructuredCommand struct {
	Kind  CommandKind `json:"kind"`
	Title string      `json:"title"`

	Date  DateSpec  `json:"date"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	// EndDate equals Date unless the command explicitly spans midnight,
	// in which case it is exactly one day later.
	EndDate  DateSpec `json:"end_date"`
	Timezone string   `json:"timezone"`

	// Calendar is the target calendar for events, list for reminders,
	// or folder for notes.
	Calendar string `json:"calendar,omitempty"`

	Recurrence *RecurrenceRule `json:"recurrence,omitempty"`

	Contacts []ContactRef `json:"contacts,omitempty"`
	Emails   []string     `json:"emails,omitempty"`

	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	ZoomMeeting bool   `json:"zoom_meeting,omitempty"`
	// MeetingURL is the join link once a meeting has been provisioned
	MeetingURL string `json:"meeting_url,omitempty"`
}

// SpansMidnight reports whether the command ends on the following day
func (c *StructuredCommand) SpansMidnight() bool {
	return c.Date.Before(c.EndDate)
}

// DraftCommand is a loosely-typed candidate produced by an upstream
// probabilistic parser. It is only a hint: the normalizer consumes it
// once, trusts its intent/title/calendar fields, and re-derives every
// temporal field from the raw utterance whenever the text yields one.
type DraftCommand struct {
	Intent    string   `json:"intent,omitempty"`
	Title     string   `json:"title,omitempty"`
	Date      string   `json:"date,omitempty"`
	StartTime string   `json:"start_time,omitempty"`
	EndTime   string   `json:"end_time,omitempty"`
	Calendar  string   `json:"calendar,omitempty"`
	Contacts  []string `json:"contacts,omitempty"`
	Emails    []string `json:"emails,omitempty"`

	Repeat     string `json:"repeat,omitempty"`
	Interval   int    `json:"interval,omitempty"`
	Until      string `json:"until,omitempty"`
	Count      int    `json:"count,omitempty"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`

	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	ZoomMeeting bool   `json:"zoom_meeting,omitempty"`
}

// KindFromIntent maps a draft intent verb to a command kind
func KindFromIntent(intent string) CommandKind {
	switch intent {
	case "create_event", "schedule_event", "event":
		return KindEvent
	case "create_reminder", "reminder", "todo":
		return KindReminder
	case "create_note", "note":
		return KindNote
	default:
		return KindOther
	}
}
