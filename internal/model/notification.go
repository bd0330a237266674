package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationBookingCreated       NotificationKind = "booking_created"
	NotificationBookingPriceProposed NotificationKind = "booking_price_proposed"
	NotificationBookingApproved      NotificationKind = "booking_approved"
	NotificationBookingRejected      NotificationKind = "booking_rejected"
	NotificationBookingCanceled      NotificationKind = "booking_canceled"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification запись outbox: намерение уведомить участника бронирования
type Notification struct {
	ID             int64              `json:"id"`
	Key            uuid.UUID          `json:"key"`
	BookingID      int64              `json:"bookingId"`
	Kind           NotificationKind   `json:"kind"`
	RecipientID    int64              `json:"recipientId"`
	RecipientEmail string             `json:"recipientEmail"`
	RecipientName  string             `json:"recipientName"`
	Subject        string             `json:"subject"`
	Body           string             `json:"body"`
	Status         NotificationStatus `json:"status"`
	Attempts       int                `json:"attempts"`
	LastError      string             `json:"lastError,omitempty"`
	DeliveredTo    []string           `json:"deliveredTo,omitempty"` // Каналы, уже доставившие уведомление
	NextAttemptAt  time.Time          `json:"nextAttemptAt"`
	CreatedAt      time.Time          `json:"createdAt"`
	SentAt         *time.Time         `json:"sentAt,omitempty"`
}
