package model

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without time of day or location. It is comparable
// and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "2-1-2006"}

// ParseDate parses an ISO date (YYYY-MM-DD). The slash form and the
// day-first form used by older spreadsheets are accepted as well.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// MustDate parses s and panics on error. Intended for tests and fixtures.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d == Date{} }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Weekday returns the ISO weekday, 1=Monday through 7=Sunday.
func (d Date) Weekday() Weekday {
	wd := d.Time().Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// WeekOfMonth buckets the day of month into 1..5: days 1-7 are week 1,
// 8-14 week 2 and so on.
func (d Date) WeekOfMonth() int {
	return (d.Day-1)/7 + 1
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DateSet is a set of calendar dates.
type DateSet map[Date]struct{}

// NewDateSet builds a set from the given dates.
func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}
