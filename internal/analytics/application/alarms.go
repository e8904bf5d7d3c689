package application

import (
	"context"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
)

// AlarmOverview gathers the alarm views of a period.
type AlarmOverview struct {
	Period     period.Period          `json:"period"`
	Today      []alarm.Ranking        `json:"today"`
	InPeriod   []alarm.Ranking        `json:"in_period"`
	Severity   map[alarm.Priority]int `json:"severity"`
	Stats      AlarmStats             `json:"stats"`
	Comparison alarm.Comparison       `json:"comparison"`
}

// AlarmOverview computes rankings, severity and comparison for p. The
// period ranking has no upper bound.
func (s *Service) AlarmOverview(ctx context.Context, p period.Period) (AlarmOverview, error) {
	day := period.Today(s.Now())
	from := p.Previous().Start
	if day.Start.Before(from) {
		from = day.Start
	}
	events, err := s.alarms(ctx, Query{From: from})
	if err != nil {
		return AlarmOverview{}, err
	}
	return AlarmOverview{
		Period:     p,
		Today:      alarm.AlarmsToday(events, day.Start),
		InPeriod:   alarm.AlarmsInPeriod(events, p.Start),
		Severity:   alarm.SeverityDistribution(events, p.Start, p.End),
		Stats:      alarmStats(events, p),
		Comparison: alarm.ComparePeriods(events, p),
	}, nil
}

// TopAlarms ranks the n most frequent alarms since p.Start.
func (s *Service) TopAlarms(ctx context.Context, p period.Period, n int, strategy alarm.CountStrategy) ([]alarm.Ranking, error) {
	events, err := s.alarms(ctx, Query{From: p.Start})
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = alarm.DefaultTopN
	}
	return alarm.Rank(events, alarm.StartedAndClearedSince(p.Start), n, strategy), nil
}

// ActiveAlarms lists open alarms of the last week.
func (s *Service) ActiveAlarms(ctx context.Context, limit int) ([]alarm.ActiveAlarm, error) {
	now := s.Now()
	since := period.StartOfDay(now).AddDate(0, 0, -activeWindowDays)
	events, err := s.alarms(ctx, Query{From: since})
	if err != nil {
		return nil, err
	}
	return alarm.ActiveAlarms(events, since, now, limit), nil
}
