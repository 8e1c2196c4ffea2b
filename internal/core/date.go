package core

import (
	"errors"
	"fmt"
	"time"
)

// Date is a calendar date. The embedded time is always midnight UTC; range
// comparisons that need an inclusive end-of-day use EndOfDay.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO calendar date ("2024-01-05").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the "YYYY-MM" grouping key. Lexicographic order on these
// keys equals chronological order, which consumers rely on when sorting.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// EndOfDay returns 23:59:59.999... of the date, for inclusive range ends.
func (d Date) EndOfDay() time.Time {
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// MonthKeyOf is MonthKey for a raw timestamp.
func MonthKeyOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
