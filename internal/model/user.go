package model

import "time"

type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// IsAdmin true для admin и superadmin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// DocumentTypes документы, которые проверяет администратор
var DocumentTypes = []string{"academicCert", "teachingCert", "idProof", "resume", "proofOfAddress"}

// Levels уровни обучения
var Levels = []string{"Primary School", "Junior High School", "Senior High School"}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`

	FullName string   `json:"fullName"`
	Region   string   `json:"region"`
	Bio      string   `json:"bio"`
	Subjects []string `json:"subjects"`
	Levels   []string `json:"levels"`

	Availability    []AvailabilityEntry `json:"availability"`
	PricePerSession *float64            `json:"pricePerSession,omitempty"`
	Currency        Currency            `json:"currency,omitempty"`

	Documents          map[string]string  `json:"documents,omitempty"`
	DocumentStatus     map[string]bool    `json:"documentStatus,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`

	TelegramChatID *int64 `json:"telegramChatId,omitempty"` // Куда слать уведомления в Telegram

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName имя для писем и снимков в бронировании
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// IsVerifiedTeacher учитель прошёл проверку документов
func (u *User) IsVerifiedTeacher() bool {
	return u.Role == RoleTeacher && u.VerificationStatus == VerificationApproved
}

// TeacherSearch параметры поиска учителей
type TeacherSearch struct {
	Subjects []string
	Levels   []string
	Region   string
	Day      Weekday
	SortBy   string
}

// TeacherProfile публичная часть анкеты учителя: без контактов, документов и чата
type TeacherProfile struct {
	ID                 int64               `json:"id"`
	FullName           string              `json:"fullName"`
	Region             string              `json:"region"`
	Bio                string              `json:"bio"`
	Subjects           []string            `json:"subjects"`
	Levels             []string            `json:"levels"`
	Availability       []AvailabilityEntry `json:"availability"`
	PricePerSession    *float64            `json:"pricePerSession,omitempty"`
	Currency           Currency            `json:"currency,omitempty"`
	VerificationStatus VerificationStatus  `json:"verificationStatus"`
}

// PublicProfile проекция пользователя для поиска и карточки учителя
func (u *User) PublicProfile() TeacherProfile {
	return TeacherProfile{
		ID:                 u.ID,
		FullName:           u.DisplayName(),
		Region:             u.Region,
		Bio:                u.Bio,
		Subjects:           u.Subjects,
		Levels:             u.Levels,
		Availability:       u.Availability,
		PricePerSession:    u.PricePerSession,
		Currency:           u.Currency,
		VerificationStatus: u.VerificationStatus,
	}
}
