package alarm

import (
	"sort"
	"time"
)

const (
	// TodayLimit is the size of the today and period rankings.
	TodayLimit = 5
	// DefaultTopN is used when a ranking size is not positive.
	DefaultTopN = 10
)

// CountStrategy selects how occurrences of an alarm are counted.
type CountStrategy int

const (
	// CountRows counts every history row. Rankings use it.
	CountRows CountStrategy = iota
	// CountDistinct counts distinct alarm ids.
	CountDistinct
)

func (s CountStrategy) String() string {
	switch s {
	case CountDistinct:
		return "distinct"
	default:
		return "rows"
	}
}

// Ranking is one (tag, message) group of a frequency ranking.
type Ranking struct {
	Tag                string    `json:"tag"`
	Message            string    `json:"message"`
	Count              int       `json:"count"`
	LastSeen           time.Time `json:"last_seen"`
	Area               string    `json:"area"`
	AvgDurationMinutes float64   `json:"avg_duration_minutes"`
}

// AlarmsToday ranks alarms that started and cleared strictly after dayStart.
func AlarmsToday(events []Event, dayStart time.Time) []Ranking {
	return Rank(events, StartedAndClearedAfter(dayStart), TodayLimit, CountRows)
}

// AlarmsInPeriod ranks alarms that started and cleared at or after
// periodStart, without an upper bound.
func AlarmsInPeriod(events []Event, periodStart time.Time) []Ranking {
	return Rank(events, StartedAndClearedSince(periodStart), TodayLimit, CountRows)
}

// TopNAlarms is AlarmsInPeriod with a configurable size.
func TopNAlarms(events []Event, periodStart time.Time, n int) []Ranking {
	if n <= 0 {
		n = DefaultTopN
	}
	return Rank(events, StartedAndClearedSince(periodStart), n, CountRows)
}

type rankGroup struct {
	ranking     Ranking
	ids         map[int64]struct{}
	durationSum float64
	durations   int
}

type groupKey struct {
	tag     string
	message string
}

// Rank groups kept events by (tag, message) and returns the limit most
// frequent groups. Ties are broken by the most recent start, then tag and
// message.
func Rank(events []Event, keep Filter, limit int, strategy CountStrategy) []Ranking {
	groups := make(map[groupKey]*rankGroup)
	for _, e := range events {
		if keep != nil && !keep(e) {
			continue
		}
		k := groupKey{tag: e.Tag, message: e.Message}
		g, ok := groups[k]
		if !ok {
			g = &rankGroup{
				ranking: Ranking{Tag: e.Tag, Message: e.Message},
				ids:     make(map[int64]struct{}),
			}
			groups[k] = g
		}
		g.ranking.Count++
		g.ids[e.ID] = struct{}{}
		if e.StartTime.After(g.ranking.LastSeen) || g.ranking.LastSeen.IsZero() {
			g.ranking.LastSeen = e.StartTime
			g.ranking.Area = e.Area
		}
		if minutes, ok := e.DurationMinutes(); ok {
			g.durationSum += minutes
			g.durations++
		}
	}

	out := make([]Ranking, 0, len(groups))
	for _, g := range groups {
		r := g.ranking
		if strategy == CountDistinct {
			r.Count = len(g.ids)
		}
		if g.durations > 0 {
			r.AvgDurationMinutes = g.durationSum / float64(g.durations)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		return a.Message < b.Message
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
