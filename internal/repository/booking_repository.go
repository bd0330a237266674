package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `
	id, teacher_id, student_id, teacher_name, teacher_email, student_name, student_email,
	days, time_from, time_to, duration, date, style, session_type, subjects, notes,
	status, telephone, meeting_link, price, currency, rating, review,
	version, created_at, updated_at`

type BookingRepository struct {
	db base.DBTX
}

func NewBookingRepository(db base.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	query := `
		INSERT INTO bookings (
			teacher_id, student_id, teacher_name, teacher_email, student_name, student_email,
			days, time_from, time_to, duration, date, style, session_type, subjects, notes,
			status, currency
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, version, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		b.TeacherID,
		b.StudentID,
		b.TeacherName,
		b.TeacherEmail,
		b.StudentName,
		b.StudentEmail,
		daysToText(b.Days),
		b.TimeFrom,
		b.TimeTo,
		b.Duration,
		b.Date,
		b.Style,
		b.SessionType,
		textArray(b.Subjects),
		b.Notes,
		b.Status,
		b.Currency,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return b, nil
}

// GetByIDForUpdate читает бронирование и блокирует строку до конца транзакции
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking for update: %w", err)
	}

	return b, nil
}

// Update сохраняет новую версию бронирования. Запись должна иметь ту версию,
// с которой её прочитали, иначе изменение отклоняется.
func (r *BookingRepository) Update(ctx context.Context, b *model.Booking) error {
	query := `
		UPDATE bookings
		SET days = $3, time_from = $4, time_to = $5, duration = $6, subjects = $7, notes = $8,
			status = $9, telephone = $10, meeting_link = $11, price = $12, rating = $13, review = $14,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		b.ID,
		b.Version,
		daysToText(b.Days),
		b.TimeFrom,
		b.TimeTo,
		b.Duration,
		textArray(b.Subjects),
		b.Notes,
		b.Status,
		b.Telephone,
		b.MeetingLink,
		b.Price,
		b.Rating,
		b.Review,
	).Scan(&b.Version, &b.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return apperror.StateConflict("booking was modified concurrently")
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}

// LockTeacherSchedule сериализует изменения расписания одного учителя до конца транзакции
func (r *BookingRepository) LockTeacherSchedule(ctx context.Context, teacherID int64) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, teacherID); err != nil {
		return fmt.Errorf("lock teacher schedule: %w", err)
	}
	return nil
}

// HasConflict есть ли у учителя активное бронирование, пересекающееся с окном.
// excludeID = 0 ничего не исключает.
func (r *BookingRepository) HasConflict(ctx context.Context, teacherID int64, days []model.Weekday, from, to string, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE teacher_id = $1
			  AND days && $2::text[]
			  AND time_from < $4
			  AND time_to > $3
			  AND status = ANY($5::text[])
			  AND id <> $6
		)
	`

	active := make([]string, len(model.ActiveBookingStatuses))
	for i, s := range model.ActiveBookingStatuses {
		active[i] = string(s)
	}

	var exists bool
	err := r.db.QueryRow(ctx, query, teacherID, daysToText(days), from, to, active, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check booking conflict: %w", err)
	}
	return exists, nil
}

// GetByStudentID получает все бронирования студента, новые первыми
func (r *BookingRepository) GetByStudentID(ctx context.Context, studentID int64) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE student_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "get bookings by student", query, studentID)
}

// GetByTeacherID получает все бронирования учителя, новые первыми
func (r *BookingRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE teacher_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "get bookings by teacher", query, teacherID)
}

// GetAll все бронирования, новые первыми
func (r *BookingRepository) GetAll(ctx context.Context) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "get all bookings", query)
}

// GetFiltered фильтрует по статусу, типу занятия и дате создания.
// Поиск по именам и предметам выполняет сервис.
func (r *BookingRepository) GetFiltered(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE ($1::text = '' OR status = $1::text)
		  AND ($2::text = '' OR session_type = $2::text)
		  AND ($3::timestamptz IS NULL OR created_at >= $3::timestamptz)
		  AND ($4::timestamptz IS NULL OR created_at <= $4::timestamptz)
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "get filtered bookings", query, string(f.Status), string(f.SessionType), f.StartDate, f.EndDate)
}

func (r *BookingRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b        model.Booking
		days     []string
		subjects []string
	)
	err := row.Scan(
		&b.ID,
		&b.TeacherID,
		&b.StudentID,
		&b.TeacherName,
		&b.TeacherEmail,
		&b.StudentName,
		&b.StudentEmail,
		&days,
		&b.TimeFrom,
		&b.TimeTo,
		&b.Duration,
		&b.Date,
		&b.Style,
		&b.SessionType,
		&subjects,
		&b.Notes,
		&b.Status,
		&b.Telephone,
		&b.MeetingLink,
		&b.Price,
		&b.Currency,
		&b.Rating,
		&b.Review,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Days = textToDays(days)
	b.Subjects = textArray(subjects)
	return &b, nil
}

func daysToText(days []model.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func textToDays(s []string) []model.Weekday {
	out := make([]model.Weekday, len(s))
	for i, d := range s {
		out[i] = model.Weekday(d)
	}
	return out
}

// textArray заменяет nil пустым массивом, колонки text[] объявлены NOT NULL
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
