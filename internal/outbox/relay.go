// Package outbox drains the transactional outbox: records written alongside
// committed sales are handed to an events.Publisher and marked sent.
// Delivery is at least once; consumers deduplicate on the event ID.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/shop-api/internal/events"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/platform/metrics"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
)

// Relay outcomes recorded in shop_outbox_relayed_total.
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
)

// Config tunes the relay loop.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Relay periodically publishes pending outbox records.
type Relay struct {
	uow       store.UnitOfWork
	publisher events.Publisher
	cfg       Config
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewRelay creates a Relay. metrics may be nil.
func NewRelay(
	uow store.UnitOfWork,
	publisher events.Publisher,
	cfg Config,
	m *metrics.Metrics,
	log *slog.Logger,
) (*Relay, error) {
	if uow == nil {
		return nil, errors.New("outbox relay requires a unit of work")
	}
	if publisher == nil {
		return nil, errors.New("outbox relay requires a publisher")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		uow:       uow,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		logger:    log.With(slog.String("component", "outbox_relay")),
	}, nil
}

// RelayOnce publishes one batch of pending records and returns how many were
// marked sent. The batch is fetched in one unit of work, published with no
// unit of work open, and the delivered records are marked sent in a second
// one. A crash between publishing and marking leaves records pending, so
// they go out again on the next run.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	var records []*store.OutboxRecord
	err := r.uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		var err error
		records, err = l.Outbox.FetchPending(ctx, r.cfg.BatchSize)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fetch pending outbox records: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	msgs := make([]events.Message, len(records))
	for i, rec := range records {
		msgs[i] = events.Message{Topic: rec.Topic, Key: rec.Key, Value: rec.Payload}
	}
	publishErr := r.publisher.Publish(ctx, msgs...)
	delivered := events.Delivered(publishErr, len(records))

	sent := make([]*store.OutboxRecord, 0, len(records))
	for i, rec := range records {
		if delivered[i] {
			sent = append(sent, rec)
			continue
		}
		r.metrics.ObserveRelay(OutcomeFailed)
		log.Warn("failed to publish outbox record",
			slog.String("record_id", rec.ID.String()),
			slog.String("topic", rec.Topic))
	}
	if publishErr != nil {
		publishErr = fmt.Errorf("publish outbox batch: %w", publishErr)
		log.Warn("outbox batch partly undelivered",
			slog.Int("delivered", len(sent)),
			slog.Int("batch", len(records)),
			slog.String("error", redact.Error(publishErr)))
	}
	if len(sent) == 0 {
		return 0, publishErr
	}

	err = r.uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		now := time.Now().UTC()
		for _, rec := range sent {
			if err := l.Outbox.MarkSent(ctx, rec.ID, now); err != nil {
				return fmt.Errorf("mark outbox record %s sent: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Join(err, publishErr)
	}

	for range sent {
		r.metrics.ObserveRelay(OutcomePublished)
	}
	log.Debug("relayed outbox records", slog.Int("count", len(sent)))
	return len(sent), publishErr
}

// Run relays until ctx is cancelled. Errors are logged and retried on the
// next tick. A full batch triggers an immediate follow-up run.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Int("batch_size", r.cfg.BatchSize))

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
		}

		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Error("outbox relay run failed", slog.String("error", redact.Error(err)))
				}
				break
			}
			if n < r.cfg.BatchSize {
				break
			}
		}
	}
}
