package period

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPeriod is returned when a period end is not after its start.
	ErrInvalidPeriod = errors.New("period: end must be after start")
	// ErrZeroStart is returned when a period start is zero.
	ErrZeroStart = errors.New("period: zero start")
)

// Period is a half-open time interval [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New validates and builds a Period.
func New(start, end time.Time) (Period, error) {
	if start.IsZero() {
		return Period{}, ErrZeroStart
	}
	if !end.After(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Duration returns the length of the period.
func (p Period) Duration() time.Duration { return p.End.Sub(p.Start) }

// Contains reports whether t falls in [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Previous returns the interval of identical duration ending at p.Start.
func (p Period) Previous() Period {
	return Period{Start: p.Start.Add(-p.Duration()), End: p.Start}
}

// Days returns the number of calendar days touched by the period,
// counting a partial trailing day as a full one.
func (p Period) Days() int {
	if !p.End.After(p.Start) {
		return 0
	}
	start := StartOfDay(p.Start)
	days := 0
	for day := start; day.Before(p.End); day = day.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// StartOfDay truncates t to midnight of its own calendar day and location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns the period covering the calendar day of now.
func Today(now time.Time) Period {
	start := StartOfDay(now)
	return Period{Start: start, End: start.AddDate(0, 0, 1)}
}

// LastNDays returns the n whole days ending with the day of now (inclusive).
func LastNDays(now time.Time, n int) Period {
	if n <= 0 {
		n = 1
	}
	end := StartOfDay(now).AddDate(0, 0, 1)
	return Period{Start: end.AddDate(0, 0, -n), End: end}
}

// FromDates builds a period from an inclusive first and last calendar day
// in loc.
func FromDates(first, last time.Time, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return New(start, end)
}
