package repository

import (
	"context"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx операции над бронированиями, выполняемые в одной транзакции
type Tx interface {
	LockTeacherSchedule(ctx context.Context, teacherID int64) error
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	HasConflict(ctx context.Context, teacherID int64, days []model.Weekday, from, to string, excludeID int64) (bool, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	EnqueueNotifications(ctx context.Context, n []model.Notification) error
}

// Store открывает транзакции поверх пула
type Store struct {
	*base.Repository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Repository: base.NewRepository(pool)}
}

// InTx выполняет fn в транзакции с репозиториями, привязанными к ней
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.Repository.InTx(ctx, func(t pgx.Tx) error {
		return fn(ctx, &txRepos{
			bookings:      NewBookingRepository(t),
			users:         NewUserRepository(t),
			notifications: NewNotificationRepository(t),
		})
	})
}

type txRepos struct {
	bookings      *BookingRepository
	users         *UserRepository
	notifications *NotificationRepository
}

func (t *txRepos) LockTeacherSchedule(ctx context.Context, teacherID int64) error {
	return t.bookings.LockTeacherSchedule(ctx, teacherID)
}

func (t *txRepos) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return t.bookings.GetByIDForUpdate(ctx, id)
}

func (t *txRepos) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return t.users.GetByID(ctx, id)
}

func (t *txRepos) HasConflict(ctx context.Context, teacherID int64, days []model.Weekday, from, to string, excludeID int64) (bool, error) {
	return t.bookings.HasConflict(ctx, teacherID, days, from, to, excludeID)
}

func (t *txRepos) CreateBooking(ctx context.Context, b *model.Booking) error {
	return t.bookings.Create(ctx, b)
}

func (t *txRepos) UpdateBooking(ctx context.Context, b *model.Booking) error {
	return t.bookings.Update(ctx, b)
}

func (t *txRepos) EnqueueNotifications(ctx context.Context, n []model.Notification) error {
	return t.notifications.Enqueue(ctx, n)
}
