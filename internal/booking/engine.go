package booking

import (
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/schedule"
)

// Actor аутентифицированный пользователь, выполняющий действие
type Actor struct {
	ID   int64
	Role model.Role
}

// Result новая версия бронирования и уведомления, которые нужно поставить в очередь
type Result struct {
	Booking       model.Booking
	Notifications []model.Notification
}

// CreateInput запрос студента на бронирование
type CreateInput struct {
	Student     model.User
	Teacher     *model.User
	Days        []model.Weekday
	TimeFrom    string
	TimeTo      string
	Duration    model.Duration
	Date        *time.Time
	Style       model.Style
	SessionType model.SessionType
	Subjects    []string
	Notes       string
	// HasConflict результат проверки конфликтов в хранилище
	HasConflict bool
}

// ConfirmInput данные, которые учитель указывает при подтверждении
type ConfirmInput struct {
	Price       *float64
	Telephone   string
	MeetingLink string
}

// RescheduleInput новое время и необязательные поля
type RescheduleInput struct {
	Days                []model.Weekday
	TimeFrom            string
	TimeTo              string
	Duration            *model.Duration
	Notes               *string
	Subjects            []string
	TeacherAvailability []model.AvailabilityEntry
	HasConflict         bool
}

// ReviewInput оценка после завершения занятий
type ReviewInput struct {
	Rating int
	Review string
}

// Create создаёт новое бронирование в статусе pending
func Create(actor Actor, in CreateInput) (Result, error) {
	if !AllowsRole(ActionCreate, actor.Role) {
		return Result{}, apperror.Forbidden("only students can book a teacher")
	}
	if in.Teacher == nil || in.Teacher.Role != model.RoleTeacher {
		return Result{}, apperror.NotFound("teacher")
	}
	if !in.Teacher.IsVerifiedTeacher() {
		return Result{}, apperror.Validation("teacher is not verified")
	}
	if err := schedule.ValidateWindow(in.Days, in.TimeFrom, in.TimeTo); err != nil {
		return Result{}, err
	}

	duration, style, sessionType, err := withDefaults(in.Duration, in.Style, in.SessionType)
	if err != nil {
		return Result{}, err
	}

	if !schedule.IsWithinAvailability(in.Teacher.Availability, in.Days, in.TimeFrom, in.TimeTo) {
		return Result{}, apperror.SchedulingConflict("teacher is not available at the requested time")
	}
	if in.HasConflict {
		return Result{}, apperror.SchedulingConflict("teacher already has a booking at the requested time")
	}

	currency := in.Teacher.Currency
	if currency == "" {
		currency = model.CurrencyGHS
	}

	b := model.Booking{
		TeacherID:    in.Teacher.ID,
		StudentID:    actor.ID,
		TeacherName:  in.Teacher.DisplayName(),
		TeacherEmail: in.Teacher.Email,
		StudentName:  in.Student.DisplayName(),
		StudentEmail: in.Student.Email,
		Days:         slices.Clone(in.Days),
		TimeFrom:     in.TimeFrom,
		TimeTo:       in.TimeTo,
		Duration:     duration,
		Style:        style,
		SessionType:  sessionType,
		Subjects:     nonNil(in.Subjects),
		Notes:        in.Notes,
		Status:       transitions[ActionCreate].To,
		Currency:     currency,
	}
	if in.Date != nil {
		d := *in.Date
		b.Date = &d
	}

	return Result{
		Booking:       b,
		Notifications: Intents(ActionCreate, b, actor),
	}, nil
}

// Confirm учитель назначает цену, бронирование ждёт одобрения студента
func Confirm(current model.Booking, actor Actor, in ConfirmInput) (Result, error) {
	next, err := apply(ActionConfirm, current, actor)
	if err != nil {
		return Result{}, err
	}
	if in.Price == nil || *in.Price <= 0 {
		return Result{}, apperror.Validation("price is required when confirming a booking")
	}

	price := *in.Price
	next.Price = &price
	if next.SessionType == model.SessionTypeOffline && in.Telephone != "" {
		next.Telephone = in.Telephone
	}
	if next.SessionType == model.SessionTypeOnline && in.MeetingLink != "" {
		next.MeetingLink = in.MeetingLink
	}

	return Result{Booking: next, Notifications: Intents(ActionConfirm, next, actor)}, nil
}

// Reject учитель отклоняет запрос
func Reject(current model.Booking, actor Actor) (Result, error) {
	next, err := apply(ActionReject, current, actor)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: next, Notifications: Intents(ActionReject, next, actor)}, nil
}

// Approve студент соглашается с ценой
func Approve(current model.Booking, actor Actor, hasConflict bool) (Result, error) {
	next, err := apply(ActionApprove, current, actor)
	if err != nil {
		return Result{}, err
	}
	// Пока бронирование ждало одобрения, слот мог занять другой студент
	if hasConflict {
		return Result{}, apperror.SchedulingConflict("teacher already has a booking at the requested time")
	}
	return Result{Booking: next, Notifications: Intents(ActionApprove, next, actor)}, nil
}

// Cancel отмена любой из сторон; повторная отмена запрещена
func Cancel(current model.Booking, actor Actor) (Result, error) {
	next, err := apply(ActionCancel, current, actor)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: next, Notifications: Intents(ActionCancel, next, actor)}, nil
}

// Complete учитель отмечает занятия проведёнными
func Complete(current model.Booking, actor Actor) (Result, error) {
	next, err := apply(ActionComplete, current, actor)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: next}, nil
}

// Review студент оставляет отзыв, один раз
func Review(current model.Booking, actor Actor, in ReviewInput) (Result, error) {
	next, err := apply(ActionReview, current, actor)
	if err != nil {
		return Result{}, err
	}
	if current.Rating != nil {
		return Result{}, apperror.StateConflict("booking has already been reviewed")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return Result{}, apperror.Validation("rating must be between 1 and 5")
	}

	rating := in.Rating
	review := in.Review
	next.Rating = &rating
	next.Review = &review
	return Result{Booking: next}, nil
}

// Reschedule переносит бронирование; учитель должен подтвердить его заново
func Reschedule(current model.Booking, actor Actor, in RescheduleInput) (Result, error) {
	next, err := apply(ActionReschedule, current, actor)
	if err != nil {
		return Result{}, err
	}
	if err := schedule.ValidateWindow(in.Days, in.TimeFrom, in.TimeTo); err != nil {
		return Result{}, err
	}
	if in.Duration != nil && !validDuration(*in.Duration) {
		return Result{}, apperror.Validation("invalid duration %q", *in.Duration)
	}
	if !schedule.IsWithinAvailability(in.TeacherAvailability, in.Days, in.TimeFrom, in.TimeTo) {
		return Result{}, apperror.SchedulingConflict("teacher is not available at the requested time")
	}
	if in.HasConflict {
		return Result{}, apperror.SchedulingConflict("teacher already has a booking at the requested time")
	}

	next.Days = slices.Clone(in.Days)
	next.TimeFrom = in.TimeFrom
	next.TimeTo = in.TimeTo
	if in.Duration != nil {
		next.Duration = *in.Duration
	}
	if in.Notes != nil {
		next.Notes = *in.Notes
	}
	if in.Subjects != nil {
		next.Subjects = slices.Clone(in.Subjects)
	}
	// Цену и контакты учитель укажет при новом подтверждении
	next.Price = nil
	next.Telephone = ""
	next.MeetingLink = ""

	return Result{Booking: next, Notifications: Intents(ActionReschedule, next, actor)}, nil
}

// Authorize проверяет роль и владение без смены статуса
func Authorize(a Action, current model.Booking, actor Actor) error {
	t, ok := transitions[a]
	if !ok {
		return apperror.Validation("unknown action %q", a)
	}
	if !slices.Contains(t.Roles, actor.Role) {
		return apperror.Forbidden(fmt.Sprintf("role %s cannot %s a booking", actor.Role, a))
	}
	if !owns(t.Owner, current, actor) {
		return apperror.NotFound("booking")
	}
	return nil
}

func apply(a Action, current model.Booking, actor Actor) (model.Booking, error) {
	if err := Authorize(a, current, actor); err != nil {
		return model.Booking{}, err
	}
	if !CanTransition(current.Status, a) {
		return model.Booking{}, apperror.StateConflict("cannot %s a booking that is %s", a, current.Status)
	}

	next := current.Clone()
	next.Status = transitions[a].To
	return next, nil
}

func owns(o owner, b model.Booking, actor Actor) bool {
	switch o {
	case ownerTeacher:
		return b.TeacherID == actor.ID
	case ownerStudent:
		return b.StudentID == actor.ID
	case ownerEither:
		return b.TeacherID == actor.ID || b.StudentID == actor.ID
	default:
		return true
	}
}

func withDefaults(d model.Duration, s model.Style, st model.SessionType) (model.Duration, model.Style, model.SessionType, error) {
	if d == "" {
		d = model.DurationOneMonth
	}
	if s == "" {
		s = model.StyleCasual
	}
	if st == "" {
		st = model.SessionTypeOffline
	}
	if !validDuration(d) {
		return "", "", "", apperror.Validation("invalid duration %q", d)
	}
	switch s {
	case model.StyleCasual, model.StyleIntensive, model.StyleSuperIntensive:
	default:
		return "", "", "", apperror.Validation("invalid style %q", s)
	}
	switch st {
	case model.SessionTypeOffline, model.SessionTypeOnline:
	default:
		return "", "", "", apperror.Validation("invalid session type %q", st)
	}
	return d, s, st, nil
}

func validDuration(d model.Duration) bool {
	switch d {
	case model.DurationOneMonth, model.DurationThreeMonths, model.DurationSixMonths, model.DurationOneYear:
		return true
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
