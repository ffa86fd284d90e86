// Package dates provides a calendar-day type with day granularity, used as
// the natural key for daily bars. A Date carries no time-of-day or location.
package dates

import (
	"fmt"
	"time"
)

// Format is the ISO-8601 layout used whenever a Date is rendered as text
// (staging files, SQLite columns, API parameters).
const Format = "2006-01-02"

// Date represents a single calendar day.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month, and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Parse parses an ISO-8601 date string ("2006-01-02").
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return New(t.Date()), nil
}

// ParseLayout parses a date string in the given time layout.
func ParseLayout(s, layout string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return New(t.Date()), nil
}

// Today returns the current date in local time.
func Today() Date { return New(time.Now().Date()) }

// FromTime returns the calendar day of t.
func FromTime(t time.Time) Date { return New(t.Date()) }

// time returns the canonical representation of the day, midnight UTC.
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time returns the day at midnight UTC.
func (d Date) Time() time.Time { return d.time() }

// Year returns the year of the date.
func (d Date) Year() int { return d.y }

// Add returns a new Date with the given number of days added (negative to
// subtract).
func (d Date) Add(days int) Date { return New(d.y, d.m, d.d+days) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// String returns the ISO-8601 representation of the date.
func (d Date) String() string { return d.time().Format(Format) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalCSV implements the gocsv marshaller so staged bars render the date
// as ISO-8601 text.
func (d Date) MarshalCSV() (string, error) { return d.String(), nil }

// UnmarshalCSV implements the gocsv unmarshaller.
func (d *Date) UnmarshalCSV(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Min returns the earlier of a and b.
func Min(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// Max returns the later of a and b.
func Max(a, b Date) Date {
	if b.After(a) {
		return b
	}
	return a
}
