// internal/clock/clock.go
package clock

import "time"

// Clock supplies the current calendar date for all lease date logic, and the timestamp for
// records stamped at creation.
type Clock interface {
	Today() time.Time
	Now() time.Time
}

// System reads the wall clock in the given location and returns its date as UTC midnight.
type System struct {
	Location *time.Location
}

func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.Local
	}
	return System{Location: loc}
}

func (s System) Today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

func (s System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same day. Used by tests and the sweep command.
type Fixed struct {
	Day time.Time
}

func (f Fixed) Today() time.Time {
	return DateOf(f.Day)
}

func (f Fixed) Now() time.Time {
	return f.Day.UTC()
}

// Date builds a date value (UTC midnight).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the time-of-day component, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses an ISO yyyy-mm-dd string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// AddMonths adds calendar months the way date libraries usually do: when the target month is shorter,
// the day is clamped to the month's last day (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// NextRun returns the first instant strictly after now that falls on hour:00 in now's location.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
