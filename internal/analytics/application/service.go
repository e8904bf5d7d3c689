package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
	"dstech-dashboard/internal/analytics/domain/production"
)

// activeWindowDays bounds how far back open alarms are listed.
const activeWindowDays = 7

// Service assembles dashboard views from historian rows.
type Service struct {
	source   Source
	clients  ClientDirectory
	clock    Clock
	location *time.Location
	logger   *zap.Logger
}

// ServiceOption customizes the dashboard service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the plant time zone used to resolve calendar days.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClientDirectory assigns the client alias lookup.
func WithClientDirectory(clients ClientDirectory) ServiceOption {
	return func(s *Service) {
		s.clients = clients
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a dashboard service.
func NewService(source Source, opts ...ServiceOption) (*Service, error) {
	if source == nil {
		return nil, errors.New("analytics: nil source")
	}
	service := &Service{
		source:   source,
		clock:    systemClock{},
		location: time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Location returns the plant time zone.
func (s *Service) Location() *time.Location { return s.location }

// Now returns the current time in the plant time zone.
func (s *Service) Now() time.Time { return s.clock.Now().In(s.location) }

// DefaultPeriod returns the last seven whole days including today.
func (s *Service) DefaultPeriod() period.Period {
	return period.LastNDays(s.Now(), 7)
}

func (s *Service) aliases(ctx context.Context) map[int]string {
	if s.clients == nil {
		return nil
	}
	aliases, err := s.clients.Aliases(ctx)
	if err != nil {
		s.logger.Warn("client aliases unavailable", zap.Error(err))
		return nil
	}
	return aliases
}

func (s *Service) production(ctx context.Context, q Query) ([]production.ProductionRecord, error) {
	rows, err := s.source.ProductionRecords(ctx, q)
	return rows, Unavailable(DatasetProduction, err)
}

func (s *Service) loads(ctx context.Context, q Query) ([]production.LoadRecord, error) {
	rows, err := s.source.LoadRecords(ctx, q)
	return rows, Unavailable(DatasetLoads, err)
}

func (s *Service) chemicals(ctx context.Context, q Query) ([]production.ChemicalRecord, error) {
	rows, err := s.source.ChemicalRecords(ctx, q)
	return rows, Unavailable(DatasetChemicals, err)
}

func (s *Service) status(ctx context.Context, q Query) ([]production.StatusSnapshot, error) {
	rows, err := s.source.StatusSnapshots(ctx, q)
	return rows, Unavailable(DatasetStatus, err)
}

func (s *Service) alarms(ctx context.Context, q Query) ([]alarm.Event, error) {
	rows, err := s.source.AlarmEvents(ctx, q)
	return rows, Unavailable(DatasetAlarms, err)
}

func periodQuery(p period.Period, clientID int) Query {
	return Query{From: p.Start, To: p.End, ClientID: clientID}
}
