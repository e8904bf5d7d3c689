package live

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/application"
)

// DefaultInterval spaces live refreshes.
const DefaultInterval = 15 * time.Second

// TodaySource computes the current day's KPIs.
type TodaySource interface {
	TodayKPIs(ctx context.Context) (application.TodayKPIs, error)
	Now() time.Time
}

// Message is the payload pushed to live clients.
type Message struct {
	Type  string                 `json:"type"`
	At    time.Time              `json:"at"`
	Today *application.TodayKPIs `json:"today,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// Publisher refreshes today's KPIs on an interval and publishes them.
type Publisher struct {
	source   TodaySource
	broker   *Broker
	interval time.Duration
	logger   *zap.Logger
}

// NewPublisher constructs a publisher.
func NewPublisher(source TodaySource, broker *Broker, interval time.Duration, logger *zap.Logger) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("live publisher: nil source")
	}
	if broker == nil {
		return nil, errors.New("live publisher: nil broker")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{source: source, broker: broker, interval: interval, logger: logger}, nil
}

// Run publishes immediately and then every interval until ctx ends.
func (p *Publisher) Run(ctx context.Context) {
	p.PublishOnce(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.broker.Subscribers() == 0 {
				continue
			}
			p.PublishOnce(ctx)
		}
	}
}

// PublishOnce computes and publishes one snapshot. Failures are published
// as error messages so clients can show stale data.
func (p *Publisher) PublishOnce(ctx context.Context) {
	msg := Message{Type: "today", At: p.source.Now()}
	today, err := p.source.TodayKPIs(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Warn("live refresh failed", zap.Error(err))
		msg.Type = "error"
		msg.Error = "internal error"
		if errors.Is(err, application.ErrDataUnavailable) {
			msg.Error = "data unavailable"
		}
	} else {
		msg.Today = &today
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("live encode failed", zap.Error(err))
		return
	}
	p.broker.Publish(payload)
}
