package reporting

import (
	"fmt"
	"strconv"
	"time"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/alarm"
)

// Dataset names of the report tables.
const (
	DatasetSummary        = "summary"
	DatasetByClient       = "production_by_client"
	DatasetDaily          = "daily_production"
	DatasetWaterChemicals = "water_chemicals_daily"
	DatasetAlarmsDaily    = "alarms_daily"
	DatasetTopAlarms      = "top_alarms"
	DatasetSeverity       = "severity"
)

const dateLayout = "2006-01-02"

var priorityLabels = map[alarm.Priority]string{
	alarm.PriorityCritical: "Crítico",
	alarm.PriorityHigh:     "Alto",
	alarm.PriorityMedium:   "Médio",
	alarm.PriorityLow:      "Baixo",
	alarm.PriorityInfo:     "Info",
}

// PriorityLabel returns the display label of a priority.
func PriorityLabel(p alarm.Priority) string {
	return priorityLabels[p.Normalize()]
}

// Table is one tabular section of a report. Cells hold float64, int,
// string or nil for a missing value.
type Table struct {
	Dataset string
	Sheet   string
	Title   string
	Headers []string
	Rows    [][]any
}

// Tables lays a report out as its sections, summary first.
func Tables(r application.Report) []Table {
	return []Table{
		summaryTable(r),
		byClientTable(r),
		dailyTable(r),
		waterChemicalsTable(r),
		alarmsDailyTable(r),
		topAlarmsTable(r),
		severityTable(r),
	}
}

// TableFor returns the section named dataset.
func TableFor(r application.Report, dataset string) (Table, bool) {
	for _, table := range Tables(r) {
		if table.Dataset == dataset {
			return table, true
		}
	}
	return Table{}, false
}

func summaryTable(r application.Report) Table {
	s := r.Summary
	rows := [][]any{
		{"Período (dias)", s.Days},
		{"Produção (kg)", s.ProductionKg},
		{"Ciclos", s.Cycles},
		{"Média diária (kg)", s.DailyAverageKg},
		{"Peso médio (kg)", optional(s.AverageWeightKg)},
		{"Eficiência (%)", s.EfficiencyPercent},
		{"Água (L)", s.WaterLiters},
		{"Água por kg (L/kg)", optional(s.WaterPerKg)},
		{"Químicos (ml)", s.ChemicalsMl},
		{"Químicos por kg (ml/kg)", optional(s.ChemicalsPerKg)},
		{"Cargas", r.Loads.Loads},
		{"Alarmes no período", r.Alarms.Started},
		{"Alarmes críticos/altos", r.Alarms.CriticalHigh},
		{"Alarmes ativos", r.Alarms.Open},
		{"Tempo médio de resolução (min)", optional(r.Alarms.AvgResolutionMinutes)},
		{"Alarmes período anterior", r.Comparison.Previous},
	}
	return Table{Dataset: DatasetSummary, Sheet: "Resumo", Title: "Resumo", Headers: []string{"Métrica", "Valor"}, Rows: rows}
}

func byClientTable(r application.Report) Table {
	rows := make([][]any, 0, len(r.ProductionByClient))
	for _, c := range r.ProductionByClient {
		rows = append(rows, []any{c.ClientID, c.Name, c.Loads, c.TotalKg, c.AverageLoadKg})
	}
	return Table{
		Dataset: DatasetByClient, Sheet: "Prod_Cliente", Title: "Produção por cliente",
		Headers: []string{"Cliente", "Nome", "Cargas", "Total (kg)", "Peso médio (kg)"},
		Rows:    rows,
	}
}

func dailyTable(r application.Report) Table {
	rows := make([][]any, 0, len(r.DailyProduction))
	for _, d := range r.DailyProduction {
		rows = append(rows, []any{d.Date.Format(dateLayout), d.Loads, d.TotalKg})
	}
	return Table{
		Dataset: DatasetDaily, Sheet: "Prod_Diaria", Title: "Produção diária",
		Headers: []string{"Data", "Cargas", "Total (kg)"},
		Rows:    rows,
	}
}

func waterChemicalsTable(r application.Report) Table {
	rows := make([][]any, 0, len(r.WaterChemicals))
	for _, d := range r.WaterChemicals {
		rows = append(rows, []any{
			d.Date.Format(dateLayout), d.ProductionKg, d.Cycles, d.WaterLiters,
			optional(d.WaterPerKg), d.ChemicalsMl, optional(d.ChemicalsPerKg),
		})
	}
	return Table{
		Dataset: DatasetWaterChemicals, Sheet: "Agua_Quimicos", Title: "Água e químicos",
		Headers: []string{"Data", "Produção (kg)", "Ciclos", "Água (L)", "Água/kg (L/kg)", "Químicos (ml)", "Químicos/kg (ml/kg)"},
		Rows:    rows,
	}
}

func alarmsDailyTable(r application.Report) Table {
	rows := make([][]any, 0, len(r.AlarmsDaily))
	for _, d := range r.AlarmsDaily {
		rows = append(rows, []any{d.Date.Format(dateLayout), d.Count})
	}
	return Table{
		Dataset: DatasetAlarmsDaily, Sheet: "Alarmes", Title: "Alarmes por dia",
		Headers: []string{"Data", "Alarmes"},
		Rows:    rows,
	}
}

func topAlarmsTable(r application.Report) Table {
	rows := make([][]any, 0, len(r.TopAlarms))
	for _, a := range r.TopAlarms {
		rows = append(rows, []any{a.Tag, a.Message, a.Area, a.Count, a.AvgDurationMinutes, a.LastSeen.Format(time.RFC3339)})
	}
	return Table{
		Dataset: DatasetTopAlarms, Sheet: "Top_Alarmes", Title: "Alarmes mais frequentes",
		Headers: []string{"Tag", "Mensagem", "Área", "Ocorrências", "Duração média (min)", "Última ocorrência"},
		Rows:    rows,
	}
}

func severityTable(r application.Report) Table {
	rows := make([][]any, 0, len(alarm.Priorities))
	for _, p := range alarm.Priorities {
		rows = append(rows, []any{int(p), PriorityLabel(p), r.Severity[p]})
	}
	return Table{
		Dataset: DatasetSeverity, Sheet: "Severidade", Title: "Distribuição por severidade",
		Headers: []string{"Prioridade", "Nível", "Alarmes"},
		Rows:    rows,
	}
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// formatCell renders a cell for text outputs; missing values are empty.
func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(value, 'f', 2, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
