package application

import (
	"context"

	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
	"dstech-dashboard/internal/analytics/domain/production"
)

// AlarmStats is the alarm block of a KPI view.
type AlarmStats struct {
	Started              int      `json:"started"`
	CriticalHigh         int      `json:"critical_high"`
	Open                 int      `json:"open"`
	AvgResolutionMinutes *float64 `json:"avg_resolution_minutes"`
}

// PeriodKPIs is the headline view of a selected period.
type PeriodKPIs struct {
	Period     period.Period            `json:"period"`
	ClientID   int                      `json:"client_id,omitempty"`
	ClientName string                   `json:"client_name,omitempty"`
	Production production.PeriodSummary `json:"production"`
	Loads      production.LoadSummary   `json:"loads"`
	Alarms     AlarmStats               `json:"alarms"`
	Comparison alarm.Comparison         `json:"alarm_comparison"`
}

// TodayKPIs is the live view of the current plant day.
type TodayKPIs struct {
	Day        period.Period             `json:"day"`
	Fallback   bool                      `json:"fallback"`
	Status     *production.StatusSummary `json:"status"`
	Loads      production.LoadSummary    `json:"loads"`
	Efficiency float64                   `json:"efficiency_percent"`
	OpenAlarms int                       `json:"open_alarms"`
	TopAlarms  []alarm.Ranking           `json:"top_alarms"`
}

// PeriodKPIs computes production, consumption and alarm KPIs for p.
// clientID 0 covers every client; alarms and chemicals are plant-wide.
func (s *Service) PeriodKPIs(ctx context.Context, p period.Period, clientID int) (PeriodKPIs, error) {
	records, err := s.production(ctx, periodQuery(p, clientID))
	if err != nil {
		return PeriodKPIs{}, err
	}
	chemicals, err := s.chemicals(ctx, periodQuery(p, 0))
	if err != nil {
		return PeriodKPIs{}, err
	}
	loads, err := s.loads(ctx, periodQuery(p, clientID))
	if err != nil {
		return PeriodKPIs{}, err
	}
	previous := p.Previous()
	events, err := s.alarms(ctx, Query{From: previous.Start, To: p.End})
	if err != nil {
		return PeriodKPIs{}, err
	}

	kpis := PeriodKPIs{
		Period:     p,
		ClientID:   clientID,
		Production: production.SummarizePeriod(records, chemicals, p.Days()),
		Loads:      production.SummarizeLoads(loads),
		Alarms:     alarmStats(events, p),
		Comparison: alarm.ComparePeriods(events, p),
	}
	if clientID != 0 {
		kpis.ClientName = ClientName(s.aliases(ctx), clientID)
	}
	return kpis, nil
}

func alarmStats(events []alarm.Event, p period.Period) AlarmStats {
	started := 0
	keep := alarm.StartedWithin(p.Start, p.End)
	for _, e := range events {
		if keep(e) {
			started++
		}
	}
	return AlarmStats{
		Started:              started,
		CriticalHigh:         alarm.CriticalHighCount(events, p),
		Open:                 alarm.OpenAlarmCount(events, p),
		AvgResolutionMinutes: alarm.AverageResolutionMinutes(events, p),
	}
}

// TodayKPIs computes the live view of today. When today has no status
// rows the latest day with status data is used instead.
func (s *Service) TodayKPIs(ctx context.Context) (TodayKPIs, error) {
	now := s.Now()
	day := period.Today(now)

	snapshots, err := s.status(ctx, periodQuery(day, 0))
	if err != nil {
		return TodayKPIs{}, err
	}
	kpis := TodayKPIs{Day: day}
	latest, found := production.LatestSnapshot(snapshots)
	if !found {
		snapshot, ok, err := s.source.LatestStatus(ctx, 0)
		if err != nil {
			return TodayKPIs{}, Unavailable(DatasetStatus, err)
		}
		if ok {
			latest, found = snapshot, true
			kpis.Day = period.Today(snapshot.Timestamp.In(s.location))
			kpis.Fallback = true
			s.logger.Debug("today has no status rows, using latest day",
				zap.Time("day", kpis.Day.Start))
		}
	}
	if found {
		summary := production.SummarizeStatus(latest)
		kpis.Status = &summary
	}

	records, err := s.production(ctx, periodQuery(kpis.Day, 0))
	if err != nil {
		return TodayKPIs{}, err
	}
	loads, err := s.loads(ctx, periodQuery(kpis.Day, 0))
	if err != nil {
		return TodayKPIs{}, err
	}
	// Alarms always describe the real current day.
	events, err := s.alarms(ctx, Query{From: day.Start})
	if err != nil {
		return TodayKPIs{}, err
	}

	kpis.Loads = production.SummarizeLoads(loads)
	kpis.Efficiency = production.EfficiencyPercent(records)
	kpis.OpenAlarms = alarm.OpenAlarmCount(events, day)
	kpis.TopAlarms = alarm.AlarmsToday(events, day.Start)
	return kpis, nil
}
