package application

import (
	"context"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
	"dstech-dashboard/internal/analytics/domain/production"
)

// Charts holds the chart series of a period.
type Charts struct {
	Period           period.Period              `json:"period"`
	Efficiency       []production.Point         `json:"efficiency"`
	Water            []production.Point         `json:"water"`
	Chemicals        []production.ChemicalPoint `json:"chemicals"`
	AlarmsCurrent    []alarm.DailyCount         `json:"alarms_current"`
	AlarmsPrevious   []alarm.DailyCount         `json:"alarms_previous"`
	Severity         []alarm.SeverityDay        `json:"severity"`
	SeverityTotals   map[alarm.Priority]int     `json:"severity_totals"`
	TopAlarms        []alarm.Ranking            `json:"top_alarms"`
	ProductionDaily  []production.DailyLoad     `json:"production_daily"`
	ProductionClient []ClientShare              `json:"production_by_client"`
}

// ClientShare is a client's production with its display name.
type ClientShare struct {
	production.ClientProduction
	Name string `json:"name"`
}

// Breakdown is the production split of a period.
type Breakdown struct {
	Period    period.Period                  `json:"period"`
	ByClient  []ClientShare                  `json:"by_client"`
	ByProgram []production.ProgramProduction `json:"by_program"`
	Daily     []production.DailyLoad         `json:"daily"`
}

// Charts computes every chart series of p.
func (s *Service) Charts(ctx context.Context, p period.Period, clientID int) (Charts, error) {
	records, err := s.production(ctx, periodQuery(p, clientID))
	if err != nil {
		return Charts{}, err
	}
	chemicals, err := s.chemicals(ctx, periodQuery(p, 0))
	if err != nil {
		return Charts{}, err
	}
	loads, err := s.loads(ctx, periodQuery(p, clientID))
	if err != nil {
		return Charts{}, err
	}
	previous := p.Previous()
	events, err := s.alarms(ctx, Query{From: previous.Start})
	if err != nil {
		return Charts{}, err
	}

	return Charts{
		Period:           p,
		Efficiency:       production.DailyEfficiencySeries(records),
		Water:            production.DailyWaterSeries(records),
		Chemicals:        production.DailyChemicalSeries(chemicals, records),
		AlarmsCurrent:    alarm.DailyAlarmCounts(events, p),
		AlarmsPrevious:   alarm.DailyAlarmCounts(events, previous),
		Severity:         alarm.SeverityTimeline(events, p),
		SeverityTotals:   alarm.SeverityDistribution(events, p.Start, p.End),
		TopAlarms:        alarm.TopNAlarms(events, p.Start, alarm.DefaultTopN),
		ProductionDaily:  production.DailyLoads(loads),
		ProductionClient: s.clientShares(ctx, production.ProductionByClient(loads)),
	}, nil
}

// ProductionBreakdown splits the loads of p by client, program and day.
func (s *Service) ProductionBreakdown(ctx context.Context, p period.Period, clientID int) (Breakdown, error) {
	loads, err := s.loads(ctx, periodQuery(p, clientID))
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Period:    p,
		ByClient:  s.clientShares(ctx, production.ProductionByClient(loads)),
		ByProgram: production.ProductionByProgram(loads),
		Daily:     production.DailyLoads(loads),
	}, nil
}

func (s *Service) clientShares(ctx context.Context, rows []production.ClientProduction) []ClientShare {
	aliases := s.aliases(ctx)
	out := make([]ClientShare, 0, len(rows))
	for _, row := range rows {
		out = append(out, ClientShare{ClientProduction: row, Name: ClientName(aliases, row.ClientID)})
	}
	return out
}
