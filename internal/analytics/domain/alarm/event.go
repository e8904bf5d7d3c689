package alarm

import "time"

// Priority is the alarm severity, 1 (critical) to 5 (info).
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
	PriorityInfo     Priority = 5
)

// Priorities lists every valid priority in ascending order.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityInfo}

// Normalize maps missing or out-of-range priorities to PriorityInfo.
func (p Priority) Normalize() Priority {
	if p < PriorityCritical || p > PriorityInfo {
		return PriorityInfo
	}
	return p
}

// Event is one row of the alarm history. A zero StartTime or NormTime
// stands for a missing value; a zero NormTime with a set StartTime is an
// open alarm.
type Event struct {
	ID        int64     `json:"id"`
	Tag       string    `json:"tag"`
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time"`
	NormTime  time.Time `json:"norm_time"`
	Priority  Priority  `json:"priority"`
	Area      string    `json:"area"`
	Value     float64   `json:"value"`
	Limit     float64   `json:"limit"`
}

// HasStart reports whether the start time is present.
func (e Event) HasStart() bool { return !e.StartTime.IsZero() }

// Cleared reports whether the normalize time is present.
func (e Event) Cleared() bool { return !e.NormTime.IsZero() }

// Open reports whether the alarm started and was never cleared.
func (e Event) Open() bool { return e.HasStart() && !e.Cleared() }

// DurationMinutes returns the active time of a cleared alarm.
func (e Event) DurationMinutes() (float64, bool) {
	if !e.HasStart() || !e.Cleared() {
		return 0, false
	}
	return e.NormTime.Sub(e.StartTime).Minutes(), true
}

// Filter selects events for a view.
type Filter func(Event) bool

// StartedAndClearedAfter keeps events whose start and normalize times are
// both strictly after t.
func StartedAndClearedAfter(t time.Time) Filter {
	return func(e Event) bool {
		return e.HasStart() && e.Cleared() && e.StartTime.After(t) && e.NormTime.After(t)
	}
}

// StartedAndClearedSince keeps events whose start and normalize times are
// both at or after t. There is no upper bound.
func StartedAndClearedSince(t time.Time) Filter {
	return func(e Event) bool {
		return e.HasStart() && e.Cleared() && !e.StartTime.Before(t) && !e.NormTime.Before(t)
	}
}

// StartedAndClearedWithin keeps events whose start and normalize times
// both fall in [from, to).
func StartedAndClearedWithin(from, to time.Time) Filter {
	return func(e Event) bool {
		if !e.HasStart() || !e.Cleared() {
			return false
		}
		return !e.StartTime.Before(from) && e.StartTime.Before(to) &&
			!e.NormTime.Before(from) && e.NormTime.Before(to)
	}
}

// StartedWithin keeps events whose start time falls in [from, to).
func StartedWithin(from, to time.Time) Filter {
	return func(e Event) bool {
		return e.HasStart() && !e.StartTime.Before(from) && e.StartTime.Before(to)
	}
}

func apply(events []Event, keep Filter) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
