package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/google/uuid"
)

// Publisher публикация в шину; *nats.Conn подходит
type Publisher interface {
	Publish(subject string, data []byte) error
}

// BookingEvent событие по бронированию для внешних подписчиков
type BookingEvent struct {
	EventType   string    `json:"event_type"`
	Key         uuid.UUID `json:"key"`
	BookingID   int64     `json:"booking_id"`
	RecipientID int64     `json:"recipient_id"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// NatsPublisher публикует уведомления в subject booking.<kind>, например
// booking.booking_created; письма отправляет подписчик. Доставка at-least-once:
// после сбоя между публикацией и отметкой в outbox событие придёт снова,
// подписчик отбрасывает повторы по key.
type NatsPublisher struct {
	conn Publisher
}

func NewNatsPublisher(conn Publisher) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func Subject(kind model.NotificationKind) string {
	return "booking." + string(kind)
}

func (p *NatsPublisher) Send(_ context.Context, n model.Notification) error {
	event := BookingEvent{
		EventType:   Subject(n.Kind),
		Key:         n.Key,
		BookingID:   n.BookingID,
		RecipientID: n.RecipientID,
		Email:       n.RecipientEmail,
		Subject:     n.Subject,
		Body:        n.Body,
		CreatedAt:   n.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	if err := p.conn.Publish(event.EventType, data); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	return nil
}
