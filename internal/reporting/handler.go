package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/domain/period"
	analyticshttp "dstech-dashboard/internal/analytics/interfaces/http"
	"dstech-dashboard/internal/audit"
	"dstech-dashboard/internal/auth"
)

// Handler serves report exports.
type Handler struct {
	builder   ReportBuilder
	scheduler *Scheduler
	audit     audit.Logger
	logger    *zap.Logger
}

// NewHandler constructs a handler. scheduler may be nil when archiving is
// disabled.
func NewHandler(builder ReportBuilder, scheduler *Scheduler, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if builder == nil {
		return nil, errors.New("report handler: nil builder")
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{builder: builder, scheduler: scheduler, audit: auditLogger, logger: logger}, nil
}

// Register mounts the report routes on router.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1/reports").Subrouter()
	api.HandleFunc("/export.{format}", h.handleExport).Methods(http.MethodGet)
	if h.scheduler != nil {
		api.HandleFunc("/archive", h.handleArchive).Methods(http.MethodPost)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		http.Error(w, "format must be pdf, xlsx, csv or zip", http.StatusNotFound)
		return
	}
	p, err := analyticshttp.ParsePeriod(r, h.builder.Now(), h.builder.Location())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	clientID, err := analyticshttp.ParseClientID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dataset := strings.TrimSpace(r.URL.Query().Get("dataset"))

	report, err := h.builder.BuildReport(r.Context(), p, clientID)
	if err != nil {
		analyticshttp.WriteError(w, h.logger, err)
		return
	}
	doc, err := Render(report, format, dataset)
	if err != nil {
		if errors.Is(err, ErrUnknownDataset) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("render report failed", zap.String("format", string(format)), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	audit.Record(r, h.audit, h.logger, audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       audit.ActionReportExport,
		ResourceType: "report",
		ResourceID:   doc.ID,
		Metadata:     audit.Metadata(map[string]any{"name": doc.Name, "client_id": clientID}),
	})

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	w.Header().Set("X-Report-ID", doc.ID)
	_, _ = w.Write(doc.Body)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	loc := h.builder.Location()
	if loc == nil {
		loc = time.UTC
	}
	day := period.StartOfDay(h.builder.Now().In(loc)).AddDate(0, 0, -1)
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()
	stored, err := h.scheduler.RunFor(ctx, day)
	if err != nil {
		analyticshttp.WriteError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stored)
}
