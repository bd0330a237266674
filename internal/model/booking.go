package model

import (
	"slices"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending          BookingStatus = "pending"           // Ждёт решения учителя
	BookingStatusAwaitingApproval BookingStatus = "awaiting_approval" // Учитель назначил цену, ждём студента
	BookingStatusConfirmed        BookingStatus = "confirmed"         // Подтверждено обеими сторонами
	BookingStatusCompleted        BookingStatus = "completed"         // Завершено
	BookingStatusCanceled         BookingStatus = "canceled"          // Отменено
	BookingStatusRejected         BookingStatus = "rejected"          // Отклонено учителем
)

// ActiveBookingStatuses статусы, которые участвуют в проверке конфликтов
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// IsActive сообщает, занимает ли бронирование время учителя
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Duration string

const (
	DurationOneMonth    Duration = "1month"
	DurationThreeMonths Duration = "3months"
	DurationSixMonths   Duration = "6months"
	DurationOneYear     Duration = "1year"
)

type Style string

const (
	StyleCasual         Style = "casual"
	StyleIntensive      Style = "intensive"
	StyleSuperIntensive Style = "super-intensive"
)

type SessionType string

const (
	SessionTypeOffline SessionType = "offline"
	SessionTypeOnline  SessionType = "online"
)

type Currency string

const (
	CurrencyGHS Currency = "GH₵"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyNGN Currency = "NGN"
)

type Booking struct {
	ID        int64 `json:"id"`
	TeacherID int64 `json:"teacherId"`
	StudentID int64 `json:"studentId"`

	// Снимок имён и почты на момент создания
	TeacherName  string `json:"teacherName"`
	TeacherEmail string `json:"teacherEmail"`
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`

	Days     []Weekday  `json:"day"`
	TimeFrom string     `json:"timeFrom"`
	TimeTo   string     `json:"timeTo"`
	Duration Duration   `json:"duration"`
	Date     *time.Time `json:"date,omitempty"`

	Style       Style       `json:"style"`
	SessionType SessionType `json:"sessionType"`
	Subjects    []string    `json:"subjects"`
	Notes       string      `json:"notes"`

	Status      BookingStatus `json:"status"`
	Telephone   string        `json:"telephone,omitempty"`
	MeetingLink string        `json:"meetingLink,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Currency    Currency      `json:"currency"`

	Rating *int    `json:"rating,omitempty"`
	Review *string `json:"review,omitempty"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone возвращает копию без общих слайсов и указателей
func (b Booking) Clone() Booking {
	c := b
	c.Days = slices.Clone(b.Days)
	c.Subjects = slices.Clone(b.Subjects)
	if b.Date != nil {
		d := *b.Date
		c.Date = &d
	}
	if b.Price != nil {
		p := *b.Price
		c.Price = &p
	}
	if b.Rating != nil {
		r := *b.Rating
		c.Rating = &r
	}
	if b.Review != nil {
		r := *b.Review
		c.Review = &r
	}
	return c
}

// BookingFilter параметры админского поиска по бронированиям
type BookingFilter struct {
	Status      BookingStatus
	SessionType SessionType
	TeacherName string
	StudentName string
	Subject     string
	StartDate   *time.Time
	EndDate     *time.Time
}
