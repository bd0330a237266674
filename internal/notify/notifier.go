// Package notify доставляет уведомления по бронированиям из outbox
// в Telegram, NATS и лог.
package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"go.uber.org/zap"
)

// Notifier канал доставки одного уведомления
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

// Sink именованный канал; имя попадает в outbox как отметка о доставке
type Sink struct {
	Name     string
	Notifier Notifier
}

// PartialDeliveryError часть каналов не справилась. Delivered каналы,
// доставившие уведомление в этой попытке.
type PartialDeliveryError struct {
	Delivered []string
	Err       error
}

func (e *PartialDeliveryError) Error() string { return e.Err.Error() }

func (e *PartialDeliveryError) Unwrap() error { return e.Err }

// Multi отправляет во все каналы, кроме перечисленных в n.DeliveredTo.
// Если хоть один канал не справился, возвращает *PartialDeliveryError.
type Multi []Sink

func (m Multi) Send(ctx context.Context, n model.Notification) error {
	var (
		errs      []error
		delivered []string
	)
	for _, s := range m {
		if slices.Contains(n.DeliveredTo, s.Name) {
			continue
		}
		if err := s.Notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		delivered = append(delivered, s.Name)
	}
	if len(errs) == 0 {
		return nil
	}
	return &PartialDeliveryError{Delivered: delivered, Err: errors.Join(errs...)}
}

// LogNotifier пишет уведомления в лог, используется когда внешние каналы не настроены
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Send(_ context.Context, n model.Notification) error {
	l.logger.Info("Notification",
		zap.String("key", n.Key.String()),
		zap.String("kind", string(n.Kind)),
		zap.Int64("booking_id", n.BookingID),
		zap.Int64("recipient_id", n.RecipientID),
		zap.String("recipient_email", n.RecipientEmail),
		zap.String("subject", n.Subject),
	)
	return nil
}
