package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Outbox хранилище очереди уведомлений
type Outbox interface {
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]model.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, lastErr string, nextAttempt time.Time, delivered []string) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
	CountPending(ctx context.Context) (int64, error)
}

type DispatcherConfig struct {
	BatchSize   int
	MaxAttempts int
	Lease       time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Lease <= 0 {
		c.Lease = time.Minute
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 10 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = time.Hour
	}
	return c
}

// Dispatcher забирает уведомления из outbox и доставляет их.
// Сбой доставки не влияет на бронирование: строка уходит на повтор,
// после MaxAttempts помечается failed.
type Dispatcher struct {
	outbox   Outbox
	notifier Notifier
	limiter  *rate.Limiter
	metrics  *Metrics
	cfg      DispatcherConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewDispatcher(outbox Outbox, notifier Notifier, limiter *rate.Limiter, metrics *Metrics, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		outbox:   outbox,
		notifier: notifier,
		limiter:  limiter,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce обрабатывает одну пачку и возвращает число доставленных уведомлений
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	batch, err := d.outbox.ClaimDue(ctx, d.cfg.BatchSize, d.cfg.Lease)
	if err != nil {
		return 0, fmt.Errorf("claim notifications: %w", err)
	}

	sent := 0
	for _, n := range batch {
		if err := d.wait(ctx); err != nil {
			return sent, err
		}
		if d.deliver(ctx, n) {
			sent++
		}
	}

	if pending, err := d.outbox.CountPending(ctx); err == nil {
		d.metrics.QueueSize.Set(float64(pending))
	}

	return sent, nil
}

func (d *Dispatcher) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	if !d.limiter.Allow() {
		d.metrics.RateLimitWaits.Inc()
		if err := d.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) bool {
	start := d.now()
	err := d.notifier.Send(ctx, n)
	d.metrics.SendDuration.Observe(d.now().Sub(start).Seconds())

	if err == nil {
		if markErr := d.outbox.MarkSent(ctx, n.ID); markErr != nil {
			d.logger.Error("Failed to mark notification sent", zap.Int64("notification_id", n.ID), zap.Error(markErr))
		}
		d.metrics.SentTotal.WithLabelValues("sent", string(n.Kind)).Inc()
		return true
	}

	if n.Attempts >= d.cfg.MaxAttempts {
		d.logger.Error("Notification delivery failed permanently",
			zap.Int64("notification_id", n.ID),
			zap.Int64("booking_id", n.BookingID),
			zap.Int("attempts", n.Attempts),
			zap.Error(err),
		)
		if markErr := d.outbox.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			d.logger.Error("Failed to mark notification failed", zap.Int64("notification_id", n.ID), zap.Error(markErr))
		}
		d.metrics.SentTotal.WithLabelValues("failed", string(n.Kind)).Inc()
		return false
	}

	delivered := slices.Clone(n.DeliveredTo)
	var partial *PartialDeliveryError
	if errors.As(err, &partial) {
		for _, name := range partial.Delivered {
			if !slices.Contains(delivered, name) {
				delivered = append(delivered, name)
			}
		}
	}

	next := d.now().Add(d.backoff(n.Attempts))
	d.logger.Warn("Notification delivery failed, will retry",
		zap.Int64("notification_id", n.ID),
		zap.Int64("booking_id", n.BookingID),
		zap.Int("attempts", n.Attempts),
		zap.Time("next_attempt_at", next),
		zap.Strings("delivered_to", delivered),
		zap.Error(err),
	)
	if markErr := d.outbox.MarkRetry(ctx, n.ID, err.Error(), next, delivered); markErr != nil {
		d.logger.Error("Failed to schedule notification retry", zap.Int64("notification_id", n.ID), zap.Error(markErr))
	}
	d.metrics.Retries.Inc()
	d.metrics.SentTotal.WithLabelValues("retry", string(n.Kind)).Inc()
	return false
}

// backoff экспоненциальная задержка: base, 2*base, 4*base... но не больше MaxBackoff
func (d *Dispatcher) backoff(attempts int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return delay
}
