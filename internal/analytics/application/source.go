package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/production"
)

// ErrDataUnavailable marks a failure to read the historian.
var ErrDataUnavailable = errors.New("analytics: data unavailable")

// Dataset names, used for cache keys, metrics and errors.
const (
	DatasetProduction = "production"
	DatasetLoads      = "loads"
	DatasetChemicals  = "chemicals"
	DatasetStatus     = "status"
	DatasetAlarms     = "alarms"
)

// Query bounds a dataset read to [From, To). A zero To leaves the upper
// bound open. ClientID 0 selects every client.
type Query struct {
	From     time.Time
	To       time.Time
	ClientID int
}

// Bounded reports whether the query has an upper bound.
func (q Query) Bounded() bool { return !q.To.IsZero() }

// Source reads historian rows ordered by timestamp.
type Source interface {
	ProductionRecords(ctx context.Context, q Query) ([]production.ProductionRecord, error)
	LoadRecords(ctx context.Context, q Query) ([]production.LoadRecord, error)
	ChemicalRecords(ctx context.Context, q Query) ([]production.ChemicalRecord, error)
	StatusSnapshots(ctx context.Context, q Query) ([]production.StatusSnapshot, error)
	AlarmEvents(ctx context.Context, q Query) ([]alarm.Event, error)
	// LatestStatus returns the most recent snapshot regardless of date.
	LatestStatus(ctx context.Context, clientID int) (production.StatusSnapshot, bool, error)
}

// Unavailable wraps a read failure of dataset with ErrDataUnavailable.
func Unavailable(dataset string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDataUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrDataUnavailable, dataset, err)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClientDirectory resolves client display names.
type ClientDirectory interface {
	Aliases(ctx context.Context) (map[int]string, error)
}

// ClientName returns the alias of id or the default label.
func ClientName(aliases map[int]string, id int) string {
	if name, ok := aliases[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Cliente %d", id)
}
