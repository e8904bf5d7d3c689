package alarm

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var today = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestAlarmsTodayCountsRows(t *testing.T) {
	// The same alarm id repeats: cleared alarms are recorded as updates.
	events := []Event{
		{ID: 42, Tag: "PUMP1", Message: "Overpressure", StartTime: at(today, 8, 0), NormTime: at(today, 8, 10), Priority: 1},
		{ID: 42, Tag: "PUMP1", Message: "Overpressure", StartTime: at(today, 9, 0), NormTime: at(today, 9, 20), Priority: 1},
		{ID: 43, Tag: "PUMP1", Message: "Overpressure", StartTime: at(today, 10, 0), NormTime: at(today, 10, 30), Priority: 1},
	}

	got := AlarmsToday(events, today)
	if len(got) != 1 {
		t.Fatalf("expected one group, got %d", len(got))
	}
	if got[0].Count != 3 {
		t.Fatalf("expected row count 3, got %d", got[0].Count)
	}
	if !got[0].LastSeen.Equal(at(today, 10, 0)) {
		t.Fatalf("unexpected last seen %s", got[0].LastSeen)
	}
	if got[0].AvgDurationMinutes != 20 {
		t.Fatalf("unexpected average duration %v", got[0].AvgDurationMinutes)
	}

	distinct := Rank(events, StartedAndClearedAfter(today), TodayLimit, CountDistinct)
	if distinct[0].Count != 2 {
		t.Fatalf("expected distinct count 2, got %d", distinct[0].Count)
	}
}

func TestAlarmsTodayRequiresBothTimesAfterMidnight(t *testing.T) {
	yesterday := today.AddDate(0, 0, -1)
	events := []Event{
		{ID: 1, Tag: "T1", Message: "crosses midnight", StartTime: at(yesterday, 23, 0), NormTime: at(today, 1, 0)},
		{ID: 2, Tag: "T2", Message: "still open", StartTime: at(today, 2, 0)},
		{ID: 3, Tag: "T3", Message: "no start", NormTime: at(today, 3, 0)},
		{ID: 4, Tag: "T4", Message: "exactly midnight", StartTime: today, NormTime: at(today, 0, 5)},
		{ID: 5, Tag: "T5", Message: "ok", StartTime: at(today, 4, 0), NormTime: at(today, 4, 1)},
	}
	got := AlarmsToday(events, today)
	if len(got) != 1 || got[0].Tag != "T5" {
		t.Fatalf("expected only T5, got %+v", got)
	}
}

func TestAlarmsInPeriodHasNoUpperBound(t *testing.T) {
	periodStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: 1, Tag: "VALVE2", Message: "Stuck", StartTime: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), NormTime: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Tag: "OLD", Message: "Before", StartTime: time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), NormTime: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Tag: "EDGE", Message: "At start", StartTime: periodStart, NormTime: periodStart},
	}
	got := AlarmsInPeriod(events, periodStart)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %+v", got)
	}
	tags := map[string]bool{got[0].Tag: true, got[1].Tag: true}
	if !tags["VALVE2"] || !tags["EDGE"] {
		t.Fatalf("unexpected groups %+v", got)
	}
}

func TestRankingOrderAndLimit(t *testing.T) {
	var events []Event
	add := func(tag string, n int, hour int) {
		for i := 0; i < n; i++ {
			events = append(events, Event{ID: int64(len(events)), Tag: tag, Message: "m", StartTime: at(today, hour, i), NormTime: at(today, hour, i+1)})
		}
	}
	add("A", 2, 5)
	add("B", 2, 9)
	add("C", 4, 1)
	add("D", 1, 2)
	add("E", 1, 3)
	add("F", 1, 4)

	got := AlarmsToday(events, today)
	if len(got) != TodayLimit {
		t.Fatalf("expected %d groups, got %d", TodayLimit, len(got))
	}
	want := []string{"C", "B", "A", "F", "E"}
	for i, tag := range want {
		if got[i].Tag != tag {
			t.Fatalf("position %d: expected %s, got %s", i, tag, got[i].Tag)
		}
	}

	if top := TopNAlarms(events, today, 0); len(top) != 6 {
		t.Fatalf("expected default top-n to hold all 6 groups, got %d", len(top))
	}
	if top := TopNAlarms(events, today, 2); len(top) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(top))
	}
}

func TestRankingGroupsByTagAndMessage(t *testing.T) {
	events := []Event{
		{ID: 1, Tag: "PUMP1", Message: "Overpressure", StartTime: at(today, 1, 0), NormTime: at(today, 1, 1), Area: "Wash"},
		{ID: 2, Tag: "PUMP1", Message: "Dry run", StartTime: at(today, 2, 0), NormTime: at(today, 2, 1)},
		{ID: 3, Tag: "PUMP1", Message: "Overpressure", StartTime: at(today, 3, 0), NormTime: at(today, 3, 1), Area: "Rinse"},
	}
	got := AlarmsToday(events, today)
	if len(got) != 2 || got[0].Message != "Overpressure" || got[0].Count != 2 {
		t.Fatalf("unexpected grouping %+v", got)
	}
	if got[0].Area != "Rinse" {
		t.Fatalf("expected most recent area, got %q", got[0].Area)
	}
}

func TestRankingEmptyInput(t *testing.T) {
	if got := AlarmsToday(nil, today); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	if got := TopNAlarms([]Event{}, today, 3); len(got) != 0 {
		t.Fatalf("expected empty list")
	}
}

func TestProperty_RankingIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ranking twice yields identical output", prop.ForAll(
		func(offsets []int, tags []int) bool {
			n := len(offsets)
			if len(tags) < n {
				n = len(tags)
			}
			events := make([]Event, n)
			for i := 0; i < n; i++ {
				start := today.Add(time.Duration(offsets[i]) * time.Minute)
				events[i] = Event{
					ID:        int64(i),
					Tag:       string(rune('A' + tags[i])),
					Message:   "m",
					StartTime: start,
					NormTime:  start.Add(time.Minute),
				}
			}
			first := TopNAlarms(events, today, 3)
			second := TopNAlarms(events, today, 3)
			return reflect.DeepEqual(first, second)
		},
		gen.SliceOf(gen.IntRange(-600, 1440)),
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.TestingRun(t)
}
