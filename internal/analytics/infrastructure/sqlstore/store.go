package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/production"
	"dstech-dashboard/internal/observability/metrics"
	"dstech-dashboard/internal/platform/database"
)

// Store reads the plant historian tables.
type Store struct {
	db       *sql.DB
	dialect  database.Dialect
	location *time.Location
	logger   *zap.Logger
}

// Option customizes the store.
type Option func(*Store)

// WithWallClock treats historian timestamps as wall-clock times of loc.
// Query bounds are converted to loc before binding and scanned values are
// labelled with loc.
func WithWallClock(loc *time.Location) Option {
	return func(s *Store) {
		s.location = loc
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore constructs a historian store.
func NewStore(db *sql.DB, dialect database.Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil db")
	}
	store := &Store{db: db, dialect: dialect, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

var _ application.Source = (*Store)(nil)

// ProductionRecords reads "Rel_Diario".
func (s *Store) ProductionRecords(ctx context.Context, q application.Query) ([]production.ProductionRecord, error) {
	query := s.rangeQuery(`
SELECT "Time_Stamp", COALESCE("C0", 0), COALESCE("C1", 0), COALESCE("C2", 0), COALESCE("C4", 0), COALESCE("C5", 0)
FROM "Rel_Diario"`, q)
	if q.ClientID != 0 {
		query.where(`"C5" = %s`, q.ClientID)
	}

	var out []production.ProductionRecord
	err := s.each(ctx, application.DatasetProduction, query, func(rows *sql.Rows) error {
		var r production.ProductionRecord
		var client float64
		if err := rows.Scan(&r.Timestamp, &r.DowntimeMinutes, &r.ProductionMinutes, &r.WaterM3, &r.ProductionKg, &client); err != nil {
			return err
		}
		r.Timestamp = s.stamp(r.Timestamp)
		r.ClientID = toInt(client)
		out = append(out, r)
		return nil
	})
	return out, err
}

// LoadRecords reads "Rel_Carga".
func (s *Store) LoadRecords(ctx context.Context, q application.Query) ([]production.LoadRecord, error) {
	query := s.rangeQuery(`
SELECT "Time_Stamp", COALESCE("C0", 0), COALESCE("C1", 0), COALESCE("C2", 0), COALESCE("C3", 0)
FROM "Rel_Carga"`, q)
	if q.ClientID != 0 {
		query.where(`"C1" = %s`, q.ClientID)
	}

	var out []production.LoadRecord
	err := s.each(ctx, application.DatasetLoads, query, func(rows *sql.Rows) error {
		var r production.LoadRecord
		var program, client float64
		if err := rows.Scan(&r.Timestamp, &program, &client, &r.LoadWeightKg, &r.WaterM3); err != nil {
			return err
		}
		r.Timestamp = s.stamp(r.Timestamp)
		r.ProgramID = toInt(program)
		r.ClientID = toInt(client)
		out = append(out, r)
		return nil
	})
	return out, err
}

// ChemicalRecords reads "Rel_Quimico".
func (s *Store) ChemicalRecords(ctx context.Context, q application.Query) ([]production.ChemicalRecord, error) {
	query := s.rangeQuery(`
SELECT "Time_Stamp",
	COALESCE("Q1", 0), COALESCE("Q2", 0), COALESCE("Q3", 0),
	COALESCE("Q4", 0), COALESCE("Q5", 0), COALESCE("Q6", 0),
	COALESCE("Q7", 0), COALESCE("Q8", 0), COALESCE("Q9", 0)
FROM "Rel_Quimico"`, q)

	var out []production.ChemicalRecord
	err := s.each(ctx, application.DatasetChemicals, query, func(rows *sql.Rows) error {
		var r production.ChemicalRecord
		dest := []any{&r.Timestamp}
		for i := range r.Channels {
			dest = append(dest, &r.Channels[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		r.Timestamp = s.stamp(r.Timestamp)
		out = append(out, r)
		return nil
	})
	return out, err
}

const statusColumns = `
SELECT "Time_Stamp", COALESCE("D1", 0), COALESCE("D2", 0), COALESCE("D3", 0), COALESCE("D4", 0)
FROM "Sts_Dados"`

// StatusSnapshots reads "Sts_Dados".
func (s *Store) StatusSnapshots(ctx context.Context, q application.Query) ([]production.StatusSnapshot, error) {
	query := s.rangeQuery(statusColumns, q)
	if q.ClientID != 0 {
		query.where(`"D4" = %s`, q.ClientID)
	}

	var out []production.StatusSnapshot
	err := s.each(ctx, application.DatasetStatus, query, func(rows *sql.Rows) error {
		r, err := s.scanStatus(rows)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// LatestStatus returns the newest "Sts_Dados" row.
func (s *Store) LatestStatus(ctx context.Context, clientID int) (production.StatusSnapshot, bool, error) {
	query := &selectQuery{dialect: s.dialect, base: statusColumns, suffix: `ORDER BY "Time_Stamp" DESC LIMIT 1`}
	if clientID != 0 {
		query.where(`"D4" = %s`, clientID)
	}

	var latest production.StatusSnapshot
	found := false
	err := s.each(ctx, application.DatasetStatus, query, func(rows *sql.Rows) error {
		r, err := s.scanStatus(rows)
		if err != nil {
			return err
		}
		latest, found = r, true
		return nil
	})
	return latest, found, err
}

// AlarmEvents reads "ALARMHISTORY" rows whose start time is in the query
// range. Rows without a start time are never returned.
func (s *Store) AlarmEvents(ctx context.Context, q application.Query) ([]alarm.Event, error) {
	query := &selectQuery{
		dialect: s.dialect,
		base: `
SELECT "Al_ID", "Al_Tag", "Al_Message", "Al_Start_Time", "Al_Norm_Time",
	"Al_Priority", "Al_Selection", "Al_Value", "Al_Limit"
FROM "ALARMHISTORY"`,
		suffix: `ORDER BY "Al_Start_Time"`,
	}
	query.where(`"Al_Start_Time" >= %s`, s.arg(q.From))
	if q.Bounded() {
		query.where(`"Al_Start_Time" < %s`, s.arg(q.To))
	}

	var out []alarm.Event
	err := s.each(ctx, application.DatasetAlarms, query, func(rows *sql.Rows) error {
		e, err := s.scanAlarm(rows)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

type alarmScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanAlarm(row alarmScanner) (alarm.Event, error) {
	var e alarm.Event
	var id sql.NullInt64
	var tag, message, area sql.NullString
	var start, norm sql.NullTime
	var priority, value, limit sql.NullFloat64
	if err := row.Scan(&id, &tag, &message, &start, &norm, &priority, &area, &value, &limit); err != nil {
		return alarm.Event{}, err
	}
	e.ID = id.Int64
	e.Tag = tag.String
	e.Message = message.String
	e.Area = area.String
	if start.Valid {
		e.StartTime = s.stamp(start.Time)
	}
	if norm.Valid {
		e.NormTime = s.stamp(norm.Time)
	}
	if priority.Valid {
		e.Priority = alarm.Priority(toInt(priority.Float64))
	}
	e.Value = value.Float64
	e.Limit = limit.Float64
	return e, nil
}

func (s *Store) scanStatus(row alarmScanner) (production.StatusSnapshot, error) {
	var r production.StatusSnapshot
	var batches, client float64
	if err := row.Scan(&r.Timestamp, &r.WaterM3, &batches, &r.ProductionKg, &client); err != nil {
		return production.StatusSnapshot{}, err
	}
	r.Timestamp = s.stamp(r.Timestamp)
	r.Batches = int64(math.Round(batches))
	r.ClientID = toInt(client)
	return r, nil
}

func (s *Store) rangeQuery(base string, q application.Query) *selectQuery {
	query := &selectQuery{dialect: s.dialect, base: base, suffix: `ORDER BY "Time_Stamp"`}
	query.where(`"Time_Stamp" >= %s`, s.arg(q.From))
	if q.Bounded() {
		query.where(`"Time_Stamp" < %s`, s.arg(q.To))
	}
	return query
}

// each runs query and hands every row to scan, recording metrics and
// wrapping failures as data unavailable.
func (s *Store) each(ctx context.Context, dataset string, query *selectQuery, scan func(*sql.Rows) error) (err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveSourceQuery(dataset, err, time.Since(started))
		if err != nil {
			s.logger.Warn("historian query failed", zap.String("dataset", dataset), zap.Error(err))
			err = application.Unavailable(dataset, err)
		}
	}()

	rows, err := s.db.QueryContext(ctx, query.String(), query.args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// arg converts a bound to the historian's wall clock.
func (s *Store) arg(t time.Time) any {
	if s.location == nil {
		return t
	}
	w := t.In(s.location)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)
}

// stamp labels a scanned wall-clock time with the plant location.
func (s *Store) stamp(t time.Time) time.Time {
	if s.location == nil {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.location)
}

func toInt(v float64) int {
	return int(math.Round(v))
}
