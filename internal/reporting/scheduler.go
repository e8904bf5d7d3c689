package reporting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/period"
	"dstech-dashboard/internal/audit"
	"dstech-dashboard/internal/reporting/archive"
)

// DefaultFormats are archived by the daily run.
var DefaultFormats = []Format{FormatPDF, FormatXLSX}

// ReportBuilder produces executive reports.
type ReportBuilder interface {
	BuildReport(ctx context.Context, p period.Period, clientID int) (application.Report, error)
	Location() *time.Location
	Now() time.Time
}

// Archived is a document stored by a run.
type Archived struct {
	Document
	Location string `json:"location"`
}

// Scheduler archives the previous day's report once a day.
type Scheduler struct {
	builder ReportBuilder
	archive archive.Archive
	hour    int
	minute  int
	formats []Format
	audit   audit.Logger
	logger  *zap.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// NewScheduler constructs a Scheduler running at dailyAt (HH:MM, plant time).
func NewScheduler(builder ReportBuilder, arch archive.Archive, dailyAt string, formats []Format, auditLogger audit.Logger, logger *zap.Logger) (*Scheduler, error) {
	if builder == nil {
		return nil, errors.New("report scheduler: nil builder")
	}
	if arch == nil {
		return nil, errors.New("report scheduler: nil archive")
	}
	hour, minute, err := parseDailyAt(dailyAt)
	if err != nil {
		return nil, fmt.Errorf("report scheduler: daily_at %q: %w", dailyAt, err)
	}
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		builder: builder,
		archive: arch,
		hour:    hour,
		minute:  minute,
		formats: formats,
		audit:   auditLogger,
		logger:  logger,
	}, nil
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.builder.Now().In(s.location())
			if !s.shouldRun(now) {
				continue
			}
			if _, err := s.RunFor(ctx, now.AddDate(0, 0, -1)); err != nil {
				s.logger.Error("daily report failed", zap.Error(err))
			}
		}
	}
}

// shouldRun reports whether now is the scheduled minute of a day not yet
// processed.
func (s *Scheduler) shouldRun(now time.Time) bool {
	if now.Hour() != s.hour || now.Minute() != s.minute {
		return false
	}
	today := period.StartOfDay(now)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun.Equal(today) {
		return false
	}
	s.lastRun = today
	return true
}

// RunFor renders and archives the report of the calendar day of day.
func (s *Scheduler) RunFor(ctx context.Context, day time.Time) ([]Archived, error) {
	p := period.Today(day.In(s.location()))
	report, err := s.builder.BuildReport(ctx, p, 0)
	if err != nil {
		return nil, err
	}

	stored := make([]Archived, 0, len(s.formats))
	for _, format := range s.formats {
		doc, err := Render(report, format, "")
		if err != nil {
			return stored, fmt.Errorf("render %s: %w", format, err)
		}
		location, err := s.archive.Put(ctx, archive.Key(p.Start, doc.Name), doc.ContentType, doc.Body)
		if err != nil {
			return stored, fmt.Errorf("archive %s: %w", doc.Name, err)
		}
		stored = append(stored, Archived{Document: doc, Location: location})
		s.logger.Info("report archived",
			zap.String("name", doc.Name),
			zap.String("backend", s.archive.Backend()),
			zap.String("location", location),
		)
		if err := s.audit.Log(ctx, audit.Entry{
			Actor:        "scheduler",
			Action:       audit.ActionReportDaily,
			ResourceType: "report",
			ResourceID:   doc.ID,
			Metadata:     audit.Metadata(map[string]string{"name": doc.Name, "location": location}),
		}); err != nil {
			s.logger.Warn("audit write failed", zap.Error(err))
		}
	}
	return stored, nil
}

func (s *Scheduler) location() *time.Location {
	if loc := s.builder.Location(); loc != nil {
		return loc
	}
	return time.UTC
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
