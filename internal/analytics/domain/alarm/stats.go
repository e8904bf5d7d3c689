package alarm

import (
	"sort"
	"time"

	"dstech-dashboard/internal/analytics/domain/period"
)

// DefaultActiveLimit bounds the active alarm list.
const DefaultActiveLimit = 20

// SeverityDistribution counts alarms per priority that started in
// [periodStart, periodEnd). Every priority is present in the result.
func SeverityDistribution(events []Event, periodStart, periodEnd time.Time) map[Priority]int {
	counts := emptyDistribution()
	for _, e := range apply(events, StartedWithin(periodStart, periodEnd)) {
		counts[e.Priority.Normalize()]++
	}
	return counts
}

func emptyDistribution() map[Priority]int {
	counts := make(map[Priority]int, len(Priorities))
	for _, p := range Priorities {
		counts[p] = 0
	}
	return counts
}

// OpenAlarmCount counts alarms that started in p and are not cleared.
func OpenAlarmCount(events []Event, p period.Period) int {
	n := 0
	for _, e := range events {
		if e.Open() && p.Contains(e.StartTime) {
			n++
		}
	}
	return n
}

// CriticalHighCount counts critical and high alarms that started in p.
func CriticalHighCount(events []Event, p period.Period) int {
	n := 0
	for _, e := range apply(events, StartedWithin(p.Start, p.End)) {
		if e.Priority.Normalize() <= PriorityHigh {
			n++
		}
	}
	return n
}

// Comparison holds alarm counts of a period and the one before it.
type Comparison struct {
	Current        int           `json:"current"`
	Previous       int           `json:"previous"`
	CurrentPeriod  period.Period `json:"current_period"`
	PreviousPeriod period.Period `json:"previous_period"`
}

// Delta returns current minus previous.
func (c Comparison) Delta() int { return c.Current - c.Previous }

// ComparePeriods counts alarms that started and cleared within current and
// within the preceding period of equal length.
func ComparePeriods(events []Event, current period.Period) Comparison {
	previous := current.Previous()
	return Comparison{
		Current:        len(apply(events, StartedAndClearedWithin(current.Start, current.End))),
		Previous:       len(apply(events, StartedAndClearedWithin(previous.Start, previous.End))),
		CurrentPeriod:  current,
		PreviousPeriod: previous,
	}
}

// DailyCount is the number of alarms started on one day.
type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// DailyAlarmCounts counts alarms per start day in p, ascending. Days
// without alarms are omitted.
func DailyAlarmCounts(events []Event, p period.Period) []DailyCount {
	days := groupByStartDay(apply(events, StartedWithin(p.Start, p.End)))
	out := make([]DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, DailyCount{Date: d.date, Count: len(d.events)})
	}
	return out
}

// SeverityDay is the priority distribution of one day.
type SeverityDay struct {
	Date   time.Time        `json:"date"`
	Counts map[Priority]int `json:"counts"`
}

// SeverityTimeline returns the per-day priority distribution of alarms
// started in p, ascending by day.
func SeverityTimeline(events []Event, p period.Period) []SeverityDay {
	days := groupByStartDay(apply(events, StartedWithin(p.Start, p.End)))
	out := make([]SeverityDay, 0, len(days))
	for _, d := range days {
		counts := emptyDistribution()
		for _, e := range d.events {
			counts[e.Priority.Normalize()]++
		}
		out = append(out, SeverityDay{Date: d.date, Counts: counts})
	}
	return out
}

// AverageResolutionMinutes averages the active time of alarms started in
// p and already cleared. It returns nil when none qualify.
func AverageResolutionMinutes(events []Event, p period.Period) *float64 {
	var sum float64
	n := 0
	for _, e := range apply(events, StartedWithin(p.Start, p.End)) {
		if minutes, ok := e.DurationMinutes(); ok {
			sum += minutes
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// ActiveAlarm is an open alarm with its age at evaluation time.
type ActiveAlarm struct {
	ID         int64     `json:"id"`
	Tag        string    `json:"tag"`
	Message    string    `json:"message"`
	Area       string    `json:"area"`
	Priority   Priority  `json:"priority"`
	StartTime  time.Time `json:"start_time"`
	AgeMinutes float64   `json:"age_minutes"`
}

// ActiveAlarms lists open alarms started at or after since, most severe
// first and newest first within a priority.
func ActiveAlarms(events []Event, since, now time.Time, limit int) []ActiveAlarm {
	if limit <= 0 {
		limit = DefaultActiveLimit
	}
	out := make([]ActiveAlarm, 0)
	for _, e := range events {
		if !e.Open() || e.StartTime.Before(since) {
			continue
		}
		out = append(out, ActiveAlarm{
			ID:         e.ID,
			Tag:        e.Tag,
			Message:    e.Message,
			Area:       e.Area,
			Priority:   e.Priority.Normalize(),
			StartTime:  e.StartTime,
			AgeMinutes: now.Sub(e.StartTime).Minutes(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type startDay struct {
	date   time.Time
	events []Event
}

func groupByStartDay(events []Event) []startDay {
	index := make(map[time.Time]int)
	var days []startDay
	for _, e := range events {
		y, m, d := e.StartTime.Date()
		key := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, startDay{date: time.Date(y, m, d, 0, 0, 0, 0, e.StartTime.Location())})
		}
		days[i].events = append(days[i].events, e)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
	return days
}
