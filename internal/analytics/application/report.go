package application

import (
	"context"
	"time"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
	"dstech-dashboard/internal/analytics/domain/production"
)

// Report is the executive report of a period with its detail datasets.
type Report struct {
	GeneratedAt        time.Time                     `json:"generated_at"`
	Period             period.Period                 `json:"period"`
	ClientID           int                           `json:"client_id,omitempty"`
	ClientName         string                        `json:"client_name,omitempty"`
	Summary            production.PeriodSummary      `json:"summary"`
	Loads              production.LoadSummary        `json:"loads"`
	Alarms             AlarmStats                    `json:"alarms"`
	Comparison         alarm.Comparison              `json:"alarm_comparison"`
	Severity           map[alarm.Priority]int        `json:"severity"`
	TopAlarms          []alarm.Ranking               `json:"top_alarms"`
	ProductionByClient []ClientShare                 `json:"production_by_client"`
	DailyProduction    []production.DailyLoad        `json:"daily_production"`
	WaterChemicals     []production.DailyConsumption `json:"water_chemicals_daily"`
	AlarmsDaily        []alarm.DailyCount            `json:"alarms_daily"`
}

// BuildReport gathers every dataset of the executive report for p.
func (s *Service) BuildReport(ctx context.Context, p period.Period, clientID int) (Report, error) {
	records, err := s.production(ctx, periodQuery(p, clientID))
	if err != nil {
		return Report{}, err
	}
	chemicals, err := s.chemicals(ctx, periodQuery(p, 0))
	if err != nil {
		return Report{}, err
	}
	loads, err := s.loads(ctx, periodQuery(p, clientID))
	if err != nil {
		return Report{}, err
	}
	events, err := s.alarms(ctx, Query{From: p.Previous().Start})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		GeneratedAt:        s.Now(),
		Period:             p,
		ClientID:           clientID,
		Summary:            production.SummarizePeriod(records, chemicals, p.Days()),
		Loads:              production.SummarizeLoads(loads),
		Alarms:             alarmStats(events, p),
		Comparison:         alarm.ComparePeriods(events, p),
		Severity:           alarm.SeverityDistribution(events, p.Start, p.End),
		TopAlarms:          alarm.TopNAlarms(events, p.Start, alarm.DefaultTopN),
		ProductionByClient: s.clientShares(ctx, production.ProductionByClient(loads)),
		DailyProduction:    production.DailyLoads(loads),
		WaterChemicals:     production.DailyWaterChemicals(records, chemicals),
		AlarmsDaily:        alarm.DailyAlarmCounts(events, p),
	}
	if clientID != 0 {
		report.ClientName = ClientName(s.aliases(ctx), clientID)
	}
	return report, nil
}
