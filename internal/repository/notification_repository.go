package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `
	id, key, booking_id, kind, recipient_id, recipient_email, recipient_name, subject, body,
	status, attempts, last_error, delivered_to, next_attempt_at, created_at, sent_at`

// NotificationRepository outbox уведомлений по бронированиям
type NotificationRepository struct {
	db base.DBTX
}

func NewNotificationRepository(db base.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Enqueue ставит уведомления в очередь в той же транзакции, что и изменение бронирования
func (r *NotificationRepository) Enqueue(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range notifications {
		n := &notifications[i]
		if n.Key == uuid.Nil {
			n.Key = uuid.New()
		}
		batch.Queue(`
			INSERT INTO notifications (key, booking_id, kind, recipient_id, recipient_email, recipient_name, subject, body)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (key) DO NOTHING`,
			n.Key, n.BookingID, n.Kind, n.RecipientID, n.RecipientEmail, n.RecipientName, n.Subject, n.Body,
		)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("enqueue notifications: %w", err)
	}
	return nil
}

// ClaimDue забирает до limit готовых к отправке уведомлений. Выбранные строки
// откладываются на lease, чтобы другой воркер не взял их повторно.
func (r *NotificationRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]model.Notification, error) {
	query := `
		UPDATE notifications
		SET attempts = attempts + 1, next_attempt_at = now() + make_interval(secs => $2)
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status = 'pending' AND next_attempt_at <= now()
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + notificationColumns

	rows, err := r.db.Query(ctx, query, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.Key,
			&n.BookingID,
			&n.Kind,
			&n.RecipientID,
			&n.RecipientEmail,
			&n.RecipientName,
			&n.Subject,
			&n.Body,
			&n.Status,
			&n.Attempts,
			&n.LastError,
			&n.DeliveredTo,
			&n.NextAttemptAt,
			&n.CreatedAt,
			&n.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim notifications: %w", err)
	}

	return out, nil
}

// MarkSent отмечает успешную доставку
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE notifications SET status = 'sent', sent_at = now(), last_error = '' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkRetry откладывает повторную попытку до nextAttempt и запоминает
// каналы, которые уже получили уведомление
func (r *NotificationRepository) MarkRetry(ctx context.Context, id int64, lastErr string, nextAttempt time.Time, delivered []string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET last_error = $2, next_attempt_at = $3, delivered_to = $4 WHERE id = $1`,
		id, lastErr, nextAttempt, textArray(delivered),
	)
	if err != nil {
		return fmt.Errorf("mark notification retry: %w", err)
	}
	return nil
}

// MarkFailed больше не пытаться доставить
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	_, err := r.db.Exec(ctx, `UPDATE notifications SET status = 'failed', last_error = $2 WHERE id = $1`, id, lastErr)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// CountPending размер очереди
func (r *NotificationRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE status = 'pending'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending notifications: %w", err)
	}
	return n, nil
}
