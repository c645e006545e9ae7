// Package worker relays audit events from the outbox table to Kafka.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "github.com/bellsc7/hrsyncad/pkg/platform/audit"
)

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 100
)

// Outbox is the claim-and-mark surface of the outbox store.
type Outbox interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer publishes records synchronously. *kgo.Client satisfies it.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Worker polls the outbox and publishes pending entries to a topic. Entries
// are marked published in the same transaction that claimed them, so a
// failed produce leaves them pending for the next tick.
type Worker struct {
	outbox    Outbox
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int
	breaker   *breaker
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithBreaker opens the relay after threshold failed batches for cooldown.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(w *Worker) { w.breaker = newBreaker(threshold, cooldown) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func NewWorker(outbox Outbox, producer Producer, topic string, opts ...Option) (*Worker, error) {
	if outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	w := &Worker{
		outbox:    outbox,
		producer:  producer,
		topic:     topic,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		breaker:   newBreaker(5, time.Minute),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run relays on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were relayed.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	if !w.breaker.allow() {
		return 0, nil
	}
	var relayed int
	err := w.outbox.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		records := make([]*kgo.Record, 0, len(entries))
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			records = append(records, toRecord(w.topic, e))
			ids = append(ids, e.ID)
		}
		if err := w.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
			return fmt.Errorf("produce outbox batch: %w", err)
		}
		if err := w.outbox.MarkPublished(ctx, ids, w.now()); err != nil {
			return err
		}
		relayed = len(entries)
		return nil
	})
	if err != nil {
		if w.breaker.failure() {
			w.logger.ErrorContext(ctx, "outbox relay circuit opened", "error", err)
		}
		return 0, err
	}
	w.breaker.success()
	if relayed > 0 {
		w.logger.DebugContext(ctx, "outbox entries relayed", "count", relayed, "topic", w.topic)
	}
	return relayed, nil
}

func toRecord(topic string, e audit.OutboxEntry) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "aggregate_type", Value: []byte(e.AggregateType)},
			{Key: "outbox_id", Value: []byte(e.ID.String())},
		},
		Timestamp: e.CreatedAt,
	}
}
