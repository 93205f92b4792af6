package dose

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record id does not exist in its collection.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is wrapped by every validation failure. No record is
	// constructed when it is returned.
	ErrInvalidInput = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// TimeOfDay is a local wall-clock hour and minute with no date component.
// It serializes as 24-hour "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a strict 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, invalidf("time %q is not HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, invalidf("time %q is not HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// On returns the instant at this time of day on the calendar day of ref,
// in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar date without time or location. It serializes as "YYYY-MM-DD".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, invalidf("date %q is not YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day) }

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Medication is a daily recurring dose.
// Taken is cleared by the daily reset at local midnight.
type Medication struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Dosage string    `json:"dosage"`
	Time   TimeOfDay `json:"time"`
	Taken  bool      `json:"taken"`
}

// Appointment is a one-off medical appointment.
// Notified is set once by the scheduler and never cleared.
type Appointment struct {
	ID        string    `json:"id"`
	Date      Date      `json:"date"`
	Time      TimeOfDay `json:"time"`
	Specialty string    `json:"specialty"`
	Location  string    `json:"location"`
	Notified  bool      `json:"notified"`
}

// At returns the absolute instant of the appointment in loc.
func (a Appointment) At(loc *time.Location) time.Time {
	return time.Date(a.Date.Year, a.Date.Month, a.Date.Day, a.Time.Hour, a.Time.Minute, 0, 0, loc)
}

// JournalEntry is an immutable mood journal note.
type JournalEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// ArchivedFile is a stored document. Data is a self-contained
// "data:<mime>;base64,<payload>" URL.
type ArchivedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}
