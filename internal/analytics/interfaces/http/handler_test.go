package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
)

var plant = time.FixedZone("BRT", -3*3600)

type stubDashboard struct {
	err          error
	lastPeriod   period.Period
	lastClient   int
	lastN        int
	lastStrategy alarm.CountStrategy
}

func (s *stubDashboard) Now() time.Time           { return time.Date(2024, 3, 8, 15, 0, 0, 0, plant) }
func (s *stubDashboard) Location() *time.Location { return plant }

func (s *stubDashboard) PeriodKPIs(_ context.Context, p period.Period, clientID int) (application.PeriodKPIs, error) {
	s.lastPeriod, s.lastClient = p, clientID
	return application.PeriodKPIs{Period: p, ClientID: clientID}, s.err
}

func (s *stubDashboard) TodayKPIs(context.Context) (application.TodayKPIs, error) {
	return application.TodayKPIs{OpenAlarms: 2}, s.err
}

func (s *stubDashboard) AlarmOverview(_ context.Context, p period.Period) (application.AlarmOverview, error) {
	s.lastPeriod = p
	return application.AlarmOverview{Period: p, Severity: map[alarm.Priority]int{1: 3}}, s.err
}

func (s *stubDashboard) TopAlarms(_ context.Context, p period.Period, n int, strategy alarm.CountStrategy) ([]alarm.Ranking, error) {
	s.lastPeriod, s.lastN, s.lastStrategy = p, n, strategy
	return []alarm.Ranking{{Tag: "PUMP1", Message: "Overpressure", Count: 3}}, s.err
}

func (s *stubDashboard) ActiveAlarms(_ context.Context, limit int) ([]alarm.ActiveAlarm, error) {
	s.lastN = limit
	return []alarm.ActiveAlarm{}, s.err
}

func (s *stubDashboard) Charts(_ context.Context, p period.Period, clientID int) (application.Charts, error) {
	s.lastPeriod, s.lastClient = p, clientID
	return application.Charts{Period: p}, s.err
}

func (s *stubDashboard) ProductionBreakdown(_ context.Context, p period.Period, clientID int) (application.Breakdown, error) {
	s.lastPeriod, s.lastClient = p, clientID
	return application.Breakdown{Period: p}, s.err
}

func (s *stubDashboard) BuildReport(_ context.Context, p period.Period, clientID int) (application.Report, error) {
	s.lastPeriod, s.lastClient = p, clientID
	return application.Report{Period: p}, s.err
}

func newRouter(t *testing.T, dashboard Dashboard) *mux.Router {
	t.Helper()
	handler, err := NewHandler(dashboard, nil)
	require.NoError(t, err)
	router := mux.NewRouter()
	handler.Register(router)
	return router
}

func serve(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPeriodKPIsDateRangeIsInclusive(t *testing.T) {
	stub := &stubDashboard{}
	rec := serve(newRouter(t, stub), "/api/v1/kpis/period?from=2024-03-01&to=2024-03-07&client_id=7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.True(t, stub.lastPeriod.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, plant)))
	assert.True(t, stub.lastPeriod.End.Equal(time.Date(2024, 3, 8, 0, 0, 0, 0, plant)))
	assert.Equal(t, 7, stub.lastClient)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestDefaultPeriodIsLastSevenDays(t *testing.T) {
	stub := &stubDashboard{}
	rec := serve(newRouter(t, stub), "/api/v1/charts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stub.lastPeriod.Start.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, plant)))
	assert.True(t, stub.lastPeriod.End.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, plant)))
	assert.Equal(t, 0, stub.lastClient)
}

func TestRFC3339BoundsAreExact(t *testing.T) {
	stub := &stubDashboard{}
	rec := serve(newRouter(t, stub), "/api/v1/alarms/overview?from=2024-03-01T06:00:00Z&to=2024-03-01T18:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12*time.Hour, stub.lastPeriod.Duration())
}

func TestRFC3339PositiveOffsetSentUnescaped(t *testing.T) {
	stub := &stubDashboard{}
	rec := serve(newRouter(t, stub), "/api/v1/alarms/overview?from=2024-03-01T06:00:00+01:00&to=2024-03-01T18:00:00.5+01:00")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, stub.lastPeriod.Start.Equal(time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12*time.Hour+500*time.Millisecond, stub.lastPeriod.Duration())
}

func TestBadQueries(t *testing.T) {
	router := newRouter(t, &stubDashboard{})
	cases := []string{
		"/api/v1/kpis/period?from=yesterday",
		"/api/v1/kpis/period?to=2024-03-01",
		"/api/v1/kpis/period?from=2024-03-05&to=2024-03-01",
		"/api/v1/charts?client_id=abc",
		"/api/v1/alarms/top?n=-1",
		"/api/v1/alarms/top?count=unique",
		"/api/v1/alarms/active?limit=x",
	}
	for _, target := range cases {
		rec := serve(router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestTopAlarmsParameters(t *testing.T) {
	stub := &stubDashboard{}
	rec := serve(newRouter(t, stub), "/api/v1/alarms/top?from=2024-01-01&n=5&count=distinct")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, stub.lastN)
	assert.Equal(t, alarm.CountDistinct, stub.lastStrategy)

	var body []alarm.Ranking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, 3, body[0].Count)
}

func TestDataUnavailableMapsTo503(t *testing.T) {
	stub := &stubDashboard{err: application.Unavailable(application.DatasetAlarms, errors.New("dial tcp: refused"))}
	rec := serve(newRouter(t, stub), "/api/v1/kpis/today")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stub.err = errors.New("boom")
	rec = serve(newRouter(t, stub), "/api/v1/production/breakdown")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, &stubDashboard{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/kpis/today", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
