package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
)

// Dashboard is the application surface served over HTTP.
type Dashboard interface {
	Now() time.Time
	Location() *time.Location
	PeriodKPIs(ctx context.Context, p period.Period, clientID int) (application.PeriodKPIs, error)
	TodayKPIs(ctx context.Context) (application.TodayKPIs, error)
	AlarmOverview(ctx context.Context, p period.Period) (application.AlarmOverview, error)
	TopAlarms(ctx context.Context, p period.Period, n int, strategy alarm.CountStrategy) ([]alarm.Ranking, error)
	ActiveAlarms(ctx context.Context, limit int) ([]alarm.ActiveAlarm, error)
	Charts(ctx context.Context, p period.Period, clientID int) (application.Charts, error)
	ProductionBreakdown(ctx context.Context, p period.Period, clientID int) (application.Breakdown, error)
	BuildReport(ctx context.Context, p period.Period, clientID int) (application.Report, error)
}

// Handler provides dashboard HTTP endpoints.
type Handler struct {
	dashboard Dashboard
	logger    *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(dashboard Dashboard, logger *zap.Logger) (*Handler, error) {
	if dashboard == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dashboard: dashboard, logger: logger}, nil
}

// Register mounts the dashboard routes on router.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/kpis/period", h.handlePeriodKPIs).Methods(http.MethodGet)
	api.HandleFunc("/kpis/today", h.handleTodayKPIs).Methods(http.MethodGet)
	api.HandleFunc("/alarms/overview", h.handleAlarmOverview).Methods(http.MethodGet)
	api.HandleFunc("/alarms/top", h.handleTopAlarms).Methods(http.MethodGet)
	api.HandleFunc("/alarms/active", h.handleActiveAlarms).Methods(http.MethodGet)
	api.HandleFunc("/charts", h.handleCharts).Methods(http.MethodGet)
	api.HandleFunc("/production/breakdown", h.handleBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/reports/executive", h.handleReport).Methods(http.MethodGet)
}

func (h *Handler) periodAndClient(w http.ResponseWriter, r *http.Request) (period.Period, int, bool) {
	p, err := ParsePeriod(r, h.dashboard.Now(), h.dashboard.Location())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return period.Period{}, 0, false
	}
	clientID, err := ParseClientID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return period.Period{}, 0, false
	}
	return p, clientID, true
}

func (h *Handler) handlePeriodKPIs(w http.ResponseWriter, r *http.Request) {
	p, clientID, ok := h.periodAndClient(w, r)
	if !ok {
		return
	}
	kpis, err := h.dashboard.PeriodKPIs(r.Context(), p, clientID)
	h.respond(w, kpis, err)
}

func (h *Handler) handleTodayKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.dashboard.TodayKPIs(r.Context())
	h.respond(w, kpis, err)
}

func (h *Handler) handleAlarmOverview(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.periodAndClient(w, r)
	if !ok {
		return
	}
	overview, err := h.dashboard.AlarmOverview(r.Context(), p)
	h.respond(w, overview, err)
}

func (h *Handler) handleTopAlarms(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.periodAndClient(w, r)
	if !ok {
		return
	}
	n, err := parseNonNegative(r, "n")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	strategy, err := parseStrategy(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ranking, err := h.dashboard.TopAlarms(r.Context(), p, n, strategy)
	h.respond(w, ranking, err)
}

func (h *Handler) handleActiveAlarms(w http.ResponseWriter, r *http.Request) {
	limit, err := parseNonNegative(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	active, err := h.dashboard.ActiveAlarms(r.Context(), limit)
	h.respond(w, active, err)
}

func (h *Handler) handleCharts(w http.ResponseWriter, r *http.Request) {
	p, clientID, ok := h.periodAndClient(w, r)
	if !ok {
		return
	}
	charts, err := h.dashboard.Charts(r.Context(), p, clientID)
	h.respond(w, charts, err)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	p, clientID, ok := h.periodAndClient(w, r)
	if !ok {
		return
	}
	breakdown, err := h.dashboard.ProductionBreakdown(r.Context(), p, clientID)
	h.respond(w, breakdown, err)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	p, clientID, ok := h.periodAndClient(w, r)
	if !ok {
		return
	}
	report, err := h.dashboard.BuildReport(r.Context(), p, clientID)
	h.respond(w, report, err)
}

func (h *Handler) respond(w http.ResponseWriter, body any, err error) {
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps application errors to HTTP status codes.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, application.ErrDataUnavailable) {
		if logger != nil {
			logger.Warn("historian unavailable", zap.Error(err))
		}
		http.Error(w, "data unavailable", http.StatusServiceUnavailable)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}
