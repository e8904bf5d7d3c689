package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/production"
	"dstech-dashboard/internal/observability/metrics"
)

// DefaultTTL keeps cached row sets close to real time.
const DefaultTTL = 30 * time.Second

const keyPrefix = "dashboard:rows:"

// Source caches row sets of an inner source keyed by dataset, bounds and
// client filter.
type Source struct {
	inner  application.Source
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewSource wraps inner with a cache. A non-positive ttl uses DefaultTTL.
func NewSource(inner application.Source, store Store, ttl time.Duration, logger *zap.Logger) (*Source, error) {
	if inner == nil {
		return nil, errors.New("cache: nil source")
	}
	if store == nil {
		return nil, errors.New("cache: nil store")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{inner: inner, store: store, ttl: ttl, logger: logger}, nil
}

var _ application.Source = (*Source)(nil)

// Key derives the cache key of a dataset query.
func Key(dataset string, q application.Query) string {
	to := "open"
	if q.Bounded() {
		to = strconv.FormatInt(q.To.UnixNano(), 10)
	}
	raw := dataset + "|" + strconv.FormatInt(q.From.UnixNano(), 10) + "|" + to + "|" + strconv.Itoa(q.ClientID)
	h1, h2 := murmur3.Sum128([]byte(raw))
	var sum [16]byte
	binary.BigEndian.PutUint64(sum[:8], h1)
	binary.BigEndian.PutUint64(sum[8:], h2)
	return keyPrefix + dataset + ":" + hex.EncodeToString(sum[:])
}

func (s *Source) ProductionRecords(ctx context.Context, q application.Query) ([]production.ProductionRecord, error) {
	return through(ctx, s, application.DatasetProduction, Key(application.DatasetProduction, q), func() ([]production.ProductionRecord, error) {
		return s.inner.ProductionRecords(ctx, q)
	})
}

func (s *Source) LoadRecords(ctx context.Context, q application.Query) ([]production.LoadRecord, error) {
	return through(ctx, s, application.DatasetLoads, Key(application.DatasetLoads, q), func() ([]production.LoadRecord, error) {
		return s.inner.LoadRecords(ctx, q)
	})
}

func (s *Source) ChemicalRecords(ctx context.Context, q application.Query) ([]production.ChemicalRecord, error) {
	return through(ctx, s, application.DatasetChemicals, Key(application.DatasetChemicals, q), func() ([]production.ChemicalRecord, error) {
		return s.inner.ChemicalRecords(ctx, q)
	})
}

func (s *Source) StatusSnapshots(ctx context.Context, q application.Query) ([]production.StatusSnapshot, error) {
	return through(ctx, s, application.DatasetStatus, Key(application.DatasetStatus, q), func() ([]production.StatusSnapshot, error) {
		return s.inner.StatusSnapshots(ctx, q)
	})
}

func (s *Source) AlarmEvents(ctx context.Context, q application.Query) ([]alarm.Event, error) {
	return through(ctx, s, application.DatasetAlarms, Key(application.DatasetAlarms, q), func() ([]alarm.Event, error) {
		return s.inner.AlarmEvents(ctx, q)
	})
}

// LatestStatus is never cached.
func (s *Source) LatestStatus(ctx context.Context, clientID int) (production.StatusSnapshot, bool, error) {
	return s.inner.LatestStatus(ctx, clientID)
}

// through serves rows from the store or loads and stores them. Store
// failures degrade to a direct load.
func through[T any](ctx context.Context, s *Source, dataset, key string, load func() ([]T, error)) ([]T, error) {
	var cached []T
	if s.lookup(ctx, dataset, key, &cached) {
		return cached, nil
	}
	rows, err := load()
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, rows)
	return rows, nil
}

func (s *Source) lookup(ctx context.Context, dataset, key string, dest any) bool {
	payload, ok, err := s.store.Get(ctx, key)
	if err != nil {
		metrics.IncCache(dataset, metrics.CacheError)
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		metrics.IncCache(dataset, metrics.CacheMiss)
		return false
	}
	raw, err := snappy.Decode(nil, payload)
	if err == nil {
		err = json.Unmarshal(raw, dest)
	}
	if err != nil {
		metrics.IncCache(dataset, metrics.CacheError)
		s.logger.Warn("cache payload unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	metrics.IncCache(dataset, metrics.CacheHit)
	return true
}

func (s *Source) save(ctx context.Context, key string, rows any) {
	raw, err := json.Marshal(rows)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, snappy.Encode(nil, raw), s.ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
