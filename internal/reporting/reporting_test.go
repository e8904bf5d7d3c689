package reporting

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
	"dstech-dashboard/internal/analytics/domain/production"
	"dstech-dashboard/internal/audit"
)

var (
	plant   = time.FixedZone("BRT", -3*3600)
	weekEnd = time.Date(2024, 3, 8, 0, 0, 0, 0, plant)
)

func ptr(v float64) *float64 { return &v }

func sampleReport(p period.Period) application.Report {
	day := p.Start
	return application.Report{
		GeneratedAt: weekEnd.Add(9 * time.Hour),
		Period:      p,
		Summary: production.PeriodSummary{
			ProductionKg:      1234.5,
			Cycles:            30,
			WaterLiters:       9000,
			WaterPerKg:        ptr(7.29),
			EfficiencyPercent: 85.42,
			Days:              p.Days(),
			DailyAverageKg:    176.36,
		},
		Loads:  production.LoadSummary{Loads: 30, TotalKg: 1234.5},
		Alarms: application.AlarmStats{Started: 4, CriticalHigh: 1, Open: 1},
		Severity: map[alarm.Priority]int{
			alarm.PriorityCritical: 1, alarm.PriorityHigh: 0, alarm.PriorityMedium: 3,
			alarm.PriorityLow: 0, alarm.PriorityInfo: 0,
		},
		TopAlarms: []alarm.Ranking{{Tag: "PUMP1", Message: "Sobrepressão", Count: 3, LastSeen: day.Add(time.Hour)}},
		ProductionByClient: []application.ClientShare{{
			ClientProduction: production.ClientProduction{ClientID: 7, Loads: 20, TotalKg: 800, AverageLoadKg: 40},
			Name:             "Hotel Sol",
		}},
		DailyProduction: []production.DailyLoad{{Date: day, Loads: 5, TotalKg: 200}},
		WaterChemicals:  []production.DailyConsumption{{Date: day, ProductionKg: 200, WaterLiters: 1500, ChemicalsMl: 300}},
		AlarmsDaily:     []alarm.DailyCount{{Date: day, Count: 2}},
	}
}

func week() period.Period {
	return period.Period{Start: weekEnd.AddDate(0, 0, -7), End: weekEnd}
}

func TestTablesLayout(t *testing.T) {
	tables := Tables(sampleReport(week()))
	require.Len(t, tables, 7)
	assert.Equal(t, "Resumo", tables[0].Sheet)
	for _, table := range tables {
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Headers), table.Dataset)
		}
	}
	severity, ok := TableFor(sampleReport(week()), DatasetSeverity)
	require.True(t, ok)
	require.Len(t, severity.Rows, 5)
	assert.Equal(t, []any{1, "Crítico", 1}, severity.Rows[0])
	assert.Equal(t, "Info", PriorityLabel(9))
}

func TestBuildCSV(t *testing.T) {
	data, err := BuildCSV(sampleReport(week()), "")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Data", records[0][0])
	assert.Equal(t, []string{"2024-03-01", "200.00", "0", "1500.00", "", "300.00", ""}, records[1])

	summary, err := BuildCSV(sampleReport(week()), DatasetSummary)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Peso médio (kg),\n")

	_, err = BuildCSV(sampleReport(week()), "nope")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestBuildPDF(t *testing.T) {
	report := sampleReport(week())
	report.ClientName = "Hotel Sol"
	data, err := BuildPDF(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	empty, err := BuildPDF(application.Report{Period: week()})
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(sampleReport(week()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Resumo", "Prod_Cliente", "Prod_Diaria", "Agua_Quimicos", "Alarmes", "Top_Alarmes", "Severidade"}, f.GetSheetList())

	value, err := f.GetCellValue("Resumo", "B3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1234.5", value)
	name, err := f.GetCellValue("Prod_Cliente", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Hotel Sol", name)
}

func TestBuildBundle(t *testing.T) {
	data, err := BuildBundle(sampleReport(week()))
	require.NoError(t, err)
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	sort.Strings(names)
	assert.Contains(t, names, "report.pdf")
	assert.Contains(t, names, "report.xlsx")
	assert.Contains(t, names, "report.json")
	assert.Contains(t, names, "water_chemicals_daily.csv")
	assert.Len(t, names, 10)
}

func TestFileNameUsesInclusiveLastDay(t *testing.T) {
	report := sampleReport(week())
	assert.Equal(t, "relatorio_dstech_20240301_20240307.pdf", FileName(report, FormatPDF, ""))
	report.ClientID = 7
	assert.Equal(t, "relatorio_dstech_20240301_20240307_cliente7_alarms_daily.csv", FileName(report, FormatCSV, DatasetAlarmsDaily))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

type stubBuilder struct {
	now     time.Time
	err     error
	periods []period.Period
	clients []int
}

func (s *stubBuilder) BuildReport(_ context.Context, p period.Period, clientID int) (application.Report, error) {
	s.periods = append(s.periods, p)
	s.clients = append(s.clients, clientID)
	if s.err != nil {
		return application.Report{}, s.err
	}
	return sampleReport(p), nil
}

func (s *stubBuilder) Location() *time.Location { return plant }
func (s *stubBuilder) Now() time.Time           { return s.now }

type memoryArchive struct {
	keys []string
}

func (m *memoryArchive) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	m.keys = append(m.keys, key)
	return "mem://" + key, nil
}

func (m *memoryArchive) Backend() string { return "memory" }

type recordingAudit struct{ actions []string }

func (r *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	r.actions = append(r.actions, entry.Action)
	return nil
}

func TestSchedulerRunForArchivesDay(t *testing.T) {
	builder := &stubBuilder{now: weekEnd.Add(2 * time.Hour)}
	arch := &memoryArchive{}
	rec := &recordingAudit{}
	scheduler, err := NewScheduler(builder, arch, "02:00", nil, rec, nil)
	require.NoError(t, err)

	stored, err := scheduler.RunFor(context.Background(), weekEnd.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []string{
		"2024/03/relatorio_dstech_20240307_20240307.pdf",
		"2024/03/relatorio_dstech_20240307_20240307.xlsx",
	}, arch.keys)
	assert.Equal(t, "mem://"+arch.keys[0], stored[0].Location)
	require.Len(t, builder.periods, 1)
	assert.Equal(t, 24*time.Hour, builder.periods[0].Duration())
	assert.Equal(t, []string{audit.ActionReportDaily, audit.ActionReportDaily}, rec.actions)
}

func TestSchedulerRunsOncePerDay(t *testing.T) {
	scheduler, err := NewScheduler(&stubBuilder{}, &memoryArchive{}, "02:30", nil, nil, nil)
	require.NoError(t, err)

	at := time.Date(2024, 3, 8, 2, 30, 10, 0, plant)
	assert.True(t, scheduler.shouldRun(at))
	assert.False(t, scheduler.shouldRun(at.Add(20*time.Second)))
	assert.False(t, scheduler.shouldRun(at.Add(time.Minute)))
	assert.True(t, scheduler.shouldRun(at.AddDate(0, 0, 1)))

	_, err = NewScheduler(&stubBuilder{}, &memoryArchive{}, "25:99", nil, nil, nil)
	assert.Error(t, err)
}

func newExportRouter(t *testing.T, builder *stubBuilder, rec *recordingAudit) *mux.Router {
	t.Helper()
	scheduler, err := NewScheduler(builder, &memoryArchive{}, "02:00", []Format{FormatCSV}, nil, nil)
	require.NoError(t, err)
	handler, err := NewHandler(builder, scheduler, rec, nil)
	require.NoError(t, err)
	router := mux.NewRouter()
	handler.Register(router)
	return router
}

func TestExportEndpoint(t *testing.T) {
	builder := &stubBuilder{now: weekEnd.Add(10 * time.Hour)}
	rec := &recordingAudit{}
	router := newExportRouter(t, builder, rec)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.csv?from=2024-03-01&to=2024-03-07&client_id=7&dataset=alarms_daily", nil))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="relatorio_dstech_20240301_20240307_alarms_daily.csv"`, resp.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(resp.Body.String(), "Data,Alarmes"))
	assert.NotEmpty(t, resp.Header().Get("X-Report-ID"))
	assert.Equal(t, []int{7}, builder.clients)
	assert.Equal(t, []string{audit.ActionReportExport}, rec.actions)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.docx", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.csv?dataset=nope", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestExportUnavailableSource(t *testing.T) {
	builder := &stubBuilder{now: weekEnd, err: application.Unavailable(application.DatasetProduction, errors.New("down"))}
	router := newExportRouter(t, builder, &recordingAudit{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.pdf", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestArchiveEndpointDefaultsToYesterday(t *testing.T) {
	builder := &stubBuilder{now: weekEnd.Add(10 * time.Hour)}
	router := newExportRouter(t, builder, &recordingAudit{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/reports/archive", nil))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, builder.periods, 1)
	assert.True(t, builder.periods[0].Start.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, plant)))

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/reports/archive?date=07/03/2024", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
