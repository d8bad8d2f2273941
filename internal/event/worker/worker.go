// Package worker relays committed events from the log to external sinks.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"veilpay/internal/event"
	"veilpay/internal/platform/metrics"
)

const batchSize = 100

// Source is the outbox side of the event log.
type Source interface {
	Unpublished(ctx context.Context, limit int) ([]*event.Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Publisher is the durable sink. A failed publish leaves the batch
// unacknowledged so the next tick retries it; delivery is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, events []*event.Event) error
}

// Feed is the best-effort low-latency sink. Feed failures are logged and
// skipped; they never hold back acknowledgement.
type Feed interface {
	Push(ctx context.Context, events []*event.Event) error
}

// Relay drains the event outbox on a fixed interval. Events reach sinks only
// after their transaction committed, so a consumer never observes an event
// whose balance mutations were rolled back.
type Relay struct {
	source    Source
	publisher Publisher
	feed      Feed
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Relay)

// WithPublisher attaches the durable sink. Without one, events are
// acknowledged after the feed push alone.
func WithPublisher(p Publisher) Option {
	return func(r *Relay) { r.publisher = p }
}

// WithFeed attaches the recent-events feed.
func WithFeed(f Feed) Option {
	return func(r *Relay) { r.feed = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func NewRelay(source Source, interval time.Duration, opts ...Option) *Relay {
	r := &Relay{
		source:   source,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "event relay tick failed", "error", err)
			}
		}
	}
}

// Drain relays every pending event in batches. Exported so tests and the
// shutdown path can flush without waiting on the ticker.
func (r *Relay) Drain(ctx context.Context) error {
	for {
		batch, err := r.source.Unpublished(ctx, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if r.publisher != nil {
			if err := r.publisher.Publish(ctx, batch); err != nil {
				return err
			}
		}
		if r.feed != nil {
			if err := r.feed.Push(ctx, batch); err != nil {
				r.logger.WarnContext(ctx, "recent-events feed push failed", "error", err)
			}
		}

		ids := make([]uuid.UUID, 0, len(batch))
		for _, ev := range batch {
			ids = append(ids, ev.ID)
		}
		if err := r.source.MarkPublished(ctx, ids); err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.IncEventsRelayed(len(batch))
		}
		if len(batch) < batchSize {
			return nil
		}
	}
}
