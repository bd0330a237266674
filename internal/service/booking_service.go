package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/booking"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository"
	"go.uber.org/zap"
)

// TxRunner открывает транзакцию над хранилищем бронирований
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

// BookingReader чтение бронирований вне транзакции
type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]model.Booking, error)
	GetByTeacherID(ctx context.Context, teacherID int64) ([]model.Booking, error)
	GetAll(ctx context.Context) ([]model.Booking, error)
	GetFiltered(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
}

// UserLookup пакетная загрузка пользователей
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
}

// BookingRequest время и параметры занятия от студента
type BookingRequest struct {
	Days        []model.Weekday
	TimeFrom    string
	TimeTo      string
	Duration    model.Duration
	Date        *time.Time
	Style       model.Style
	SessionType model.SessionType
	Subjects    []string
	Notes       string
}

// DecisionRequest решение учителя по запросу
type DecisionRequest struct {
	Status      model.BookingStatus
	Price       *float64
	Telephone   string
	MeetingLink string
}

// RescheduleRequest новое время; nil поля не меняются
type RescheduleRequest struct {
	Days     []model.Weekday
	TimeFrom string
	TimeTo   string
	Duration *model.Duration
	Notes    *string
	Subjects []string
}

type BookingService struct {
	tx       TxRunner
	bookings BookingReader
	users    UserLookup
	logger   *zap.Logger
}

func NewBookingService(tx TxRunner, bookings BookingReader, users UserLookup, logger *zap.Logger) *BookingService {
	return &BookingService{
		tx:       tx,
		bookings: bookings,
		users:    users,
		logger:   logger,
	}
}

// Create создаёт запрос студента на занятия с учителем
func (s *BookingService) Create(ctx context.Context, actor booking.Actor, teacherID int64, req BookingRequest) (*model.Booking, error) {
	// Принятый запрос доводится до конца даже если клиент отключился
	ctx = context.WithoutCancel(ctx)

	if !booking.AllowsRole(booking.ActionCreate, actor.Role) {
		return nil, apperror.Forbidden("only students can book a teacher")
	}

	var created model.Booking
	err := s.tx.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		student, err := tx.GetUser(ctx, actor.ID)
		if err != nil {
			return apperror.Dependency("get student", err)
		}
		if student == nil {
			return apperror.NotFound("user")
		}

		teacher, err := tx.GetUser(ctx, teacherID)
		if err != nil {
			return apperror.Dependency("get teacher", err)
		}

		var conflict bool
		if teacher != nil {
			if err := tx.LockTeacherSchedule(ctx, teacherID); err != nil {
				return apperror.Dependency("lock teacher schedule", err)
			}
			conflict, err = tx.HasConflict(ctx, teacherID, req.Days, req.TimeFrom, req.TimeTo, 0)
			if err != nil {
				return apperror.Dependency("check conflict", err)
			}
		}

		res, err := booking.Create(actor, booking.CreateInput{
			Student:     *student,
			Teacher:     teacher,
			Days:        req.Days,
			TimeFrom:    req.TimeFrom,
			TimeTo:      req.TimeTo,
			Duration:    req.Duration,
			Date:        req.Date,
			Style:       req.Style,
			SessionType: req.SessionType,
			Subjects:    req.Subjects,
			Notes:       req.Notes,
			HasConflict: conflict,
		})
		if err != nil {
			return err
		}

		created = res.Booking
		if err := tx.CreateBooking(ctx, &created); err != nil {
			return storeErr("create booking", err)
		}

		// Текст уведомления строим заново, когда известен ID
		return s.enqueue(ctx, tx, created, booking.Intents(booking.ActionCreate, created, actor))
	})
	if err != nil {
		return nil, s.fail("create booking", err, zap.Int64("teacher_id", teacherID), zap.Int64("student_id", actor.ID))
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", created.ID),
		zap.Int64("teacher_id", created.TeacherID),
		zap.Int64("student_id", created.StudentID),
		zap.Strings("days", daysToStrings(created.Days)),
		zap.String("time_from", created.TimeFrom),
		zap.String("time_to", created.TimeTo),
	)

	return &created, nil
}

// Decide учитель подтверждает (с ценой) или отклоняет запрос
func (s *BookingService) Decide(ctx context.Context, actor booking.Actor, bookingID int64, req DecisionRequest) (*model.Booking, error) {
	switch req.Status {
	case model.BookingStatusConfirmed:
		return s.transition(ctx, actor, bookingID, booking.ActionConfirm, false,
			func(_ context.Context, _ repository.Tx, current model.Booking) (booking.Result, error) {
				return booking.Confirm(current, actor, booking.ConfirmInput{
					Price:       req.Price,
					Telephone:   req.Telephone,
					MeetingLink: req.MeetingLink,
				})
			})
	case model.BookingStatusRejected:
		return s.transition(ctx, actor, bookingID, booking.ActionReject, false,
			func(_ context.Context, _ repository.Tx, current model.Booking) (booking.Result, error) {
				return booking.Reject(current, actor)
			})
	default:
		return nil, apperror.Validation("status must be confirmed or rejected")
	}
}

// Approve студент принимает цену учителя. Слот проверяется заново: бронирование
// в awaiting_approval не активно, и его время мог занять другой запрос.
func (s *BookingService) Approve(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, actor, bookingID, booking.ActionApprove, true,
		func(ctx context.Context, tx repository.Tx, current model.Booking) (booking.Result, error) {
			if err := booking.Authorize(booking.ActionApprove, current, actor); err != nil {
				return booking.Result{}, err
			}
			conflict, err := tx.HasConflict(ctx, current.TeacherID, current.Days, current.TimeFrom, current.TimeTo, current.ID)
			if err != nil {
				return booking.Result{}, apperror.Dependency("check conflict", err)
			}
			return booking.Approve(current, actor, conflict)
		})
}

// Cancel отменяет бронирование
func (s *BookingService) Cancel(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, actor, bookingID, booking.ActionCancel, false,
		func(_ context.Context, _ repository.Tx, current model.Booking) (booking.Result, error) {
			return booking.Cancel(current, actor)
		})
}

// Complete учитель завершает занятия
func (s *BookingService) Complete(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, actor, bookingID, booking.ActionComplete, false,
		func(_ context.Context, _ repository.Tx, current model.Booking) (booking.Result, error) {
			return booking.Complete(current, actor)
		})
}

// Review студент оценивает завершённые занятия
func (s *BookingService) Review(ctx context.Context, actor booking.Actor, bookingID int64, rating int, review string) (*model.Booking, error) {
	return s.transition(ctx, actor, bookingID, booking.ActionReview, false,
		func(_ context.Context, _ repository.Tx, current model.Booking) (booking.Result, error) {
			return booking.Review(current, actor, booking.ReviewInput{Rating: rating, Review: review})
		})
}

// Reschedule переносит бронирование студента на другое время
func (s *BookingService) Reschedule(ctx context.Context, actor booking.Actor, bookingID int64, req RescheduleRequest) (*model.Booking, error) {
	return s.transition(ctx, actor, bookingID, booking.ActionReschedule, true,
		func(ctx context.Context, tx repository.Tx, current model.Booking) (booking.Result, error) {
			if err := booking.Authorize(booking.ActionReschedule, current, actor); err != nil {
				return booking.Result{}, err
			}

			teacher, err := tx.GetUser(ctx, current.TeacherID)
			if err != nil {
				return booking.Result{}, apperror.Dependency("get teacher", err)
			}
			var avail []model.AvailabilityEntry
			if teacher != nil {
				avail = teacher.Availability
			}

			conflict, err := tx.HasConflict(ctx, current.TeacherID, req.Days, req.TimeFrom, req.TimeTo, current.ID)
			if err != nil {
				return booking.Result{}, apperror.Dependency("check conflict", err)
			}

			return booking.Reschedule(current, actor, booking.RescheduleInput{
				Days:                req.Days,
				TimeFrom:            req.TimeFrom,
				TimeTo:              req.TimeTo,
				Duration:            req.Duration,
				Notes:               req.Notes,
				Subjects:            req.Subjects,
				TeacherAvailability: avail,
				HasConflict:         conflict,
			})
		})
}

type decideFunc func(ctx context.Context, tx repository.Tx, current model.Booking) (booking.Result, error)

// transition общий путь изменения: чтение с блокировкой, решение движка,
// одна запись и постановка уведомлений в outbox в одной транзакции
func (s *BookingService) transition(ctx context.Context, actor booking.Actor, bookingID int64, action booking.Action, lockSchedule bool, decide decideFunc) (*model.Booking, error) {
	ctx = context.WithoutCancel(ctx)

	if !booking.AllowsRole(action, actor.Role) {
		return nil, apperror.Forbidden("role " + string(actor.Role) + " cannot " + string(action) + " a booking")
	}

	var updated model.Booking
	err := s.tx.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return apperror.Dependency("get booking", err)
		}
		if current == nil {
			return apperror.NotFound("booking")
		}

		if lockSchedule {
			if err := tx.LockTeacherSchedule(ctx, current.TeacherID); err != nil {
				return apperror.Dependency("lock teacher schedule", err)
			}
		}

		res, err := decide(ctx, tx, *current)
		if err != nil {
			return err
		}

		updated = res.Booking
		if err := tx.UpdateBooking(ctx, &updated); err != nil {
			return storeErr("update booking", err)
		}

		return s.enqueue(ctx, tx, updated, res.Notifications)
	})
	if err != nil {
		return nil, s.fail(string(action)+" booking", err, zap.Int64("booking_id", bookingID), zap.Int64("actor_id", actor.ID))
	}

	s.logger.Info("Booking "+string(action),
		zap.Int64("booking_id", updated.ID),
		zap.Int64("actor_id", actor.ID),
		zap.String("status", string(updated.Status)),
	)

	return &updated, nil
}

func (s *BookingService) enqueue(ctx context.Context, tx repository.Tx, b model.Booking, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for i := range notifications {
		notifications[i].BookingID = b.ID
	}
	if err := tx.EnqueueNotifications(ctx, notifications); err != nil {
		return apperror.Dependency("enqueue notifications", err)
	}
	return nil
}

// fail логирует сбои зависимостей; ошибки клиента возвращаются как есть
func (s *BookingService) fail(op string, err error, fields ...zap.Field) error {
	if apperror.KindOf(err) == apperror.KindDependency {
		s.logger.Error("Failed to "+op, append(fields, zap.Error(err))...)
		return storeErr(op, err)
	}
	return err
}

// StudentBookings бронирования студента, новые первыми
func (s *BookingService) StudentBookings(ctx context.Context, studentID int64) ([]model.Booking, error) {
	list, err := s.bookings.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, apperror.Dependency("get student bookings", err)
	}
	return list, nil
}

// TeacherBookings бронирования учителя, новые первыми
func (s *BookingService) TeacherBookings(ctx context.Context, teacherID int64) ([]model.Booking, error) {
	list, err := s.bookings.GetByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, apperror.Dependency("get teacher bookings", err)
	}
	return list, nil
}

// AllBookings полный список для администратора
func (s *BookingService) AllBookings(ctx context.Context) ([]model.Booking, error) {
	list, err := s.bookings.GetAll(ctx)
	if err != nil {
		return nil, apperror.Dependency("get all bookings", err)
	}
	return list, nil
}

// BookingsForTeacher админский просмотр по учителю; пустой результат - 404
func (s *BookingService) BookingsForTeacher(ctx context.Context, teacherID int64) ([]model.Booking, error) {
	list, err := s.TeacherBookings(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperror.NotFound("bookings")
	}
	return list, nil
}

// BookingsForStudent админский просмотр по студенту; пустой результат - 404
func (s *BookingService) BookingsForStudent(ctx context.Context, studentID int64) ([]model.Booking, error) {
	list, err := s.StudentBookings(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperror.NotFound("bookings")
	}
	return list, nil
}

// FilterBookings админский поиск. Статус, тип и даты фильтрует хранилище,
// имена и предмет проверяются по загруженному списку.
func (s *BookingService) FilterBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	list, err := s.bookings.GetFiltered(ctx, f)
	if err != nil {
		return nil, apperror.Dependency("get filtered bookings", err)
	}

	var teachers map[int64]*model.User
	if f.Subject != "" && len(list) > 0 {
		teachers, err = s.users.GetByIDs(ctx, teacherIDs(list))
		if err != nil {
			return nil, apperror.Dependency("get teachers", err)
		}
	}

	return applyFilter(list, f, teachers), nil
}

// PartyBooking бронирование для участника или администратора
func (s *BookingService) PartyBooking(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Dependency("get booking", err)
	}
	if b == nil {
		return nil, apperror.NotFound("booking")
	}
	if !actor.Role.IsAdmin() && b.TeacherID != actor.ID && b.StudentID != actor.ID {
		return nil, apperror.NotFound("booking")
	}
	return b, nil
}

func applyFilter(list []model.Booking, f model.BookingFilter, teachers map[int64]*model.User) []model.Booking {
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		if f.TeacherName != "" && !containsFold(b.TeacherName, f.TeacherName) {
			continue
		}
		if f.StudentName != "" && !containsFold(b.StudentName, f.StudentName) {
			continue
		}
		if f.Subject != "" {
			t := teachers[b.TeacherID]
			if t == nil || !hasSubject(t.Subjects, f.Subject) {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func hasSubject(subjects []string, subject string) bool {
	for _, s := range subjects {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}

func teacherIDs(list []model.Booking) []int64 {
	seen := make(map[int64]struct{}, len(list))
	ids := make([]int64, 0, len(list))
	for _, b := range list {
		if _, ok := seen[b.TeacherID]; ok {
			continue
		}
		seen[b.TeacherID] = struct{}{}
		ids = append(ids, b.TeacherID)
	}
	return ids
}

func daysToStrings(days []model.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func storeErr(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Dependency(op, err)
}
