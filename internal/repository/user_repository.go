package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, username, email, password_hash, role, full_name, region, bio, subjects, levels,
	availability, price_per_session, currency, documents, document_status,
	verification_status, telegram_chat_id, created_at, updated_at`

// Поля, по которым разрешена сортировка в поиске учителей
var teacherSortColumns = map[string]string{
	"fullName":        "full_name",
	"region":          "region",
	"pricePerSession": "price_per_session",
	"createdAt":       "created_at",
}

type UserRepository struct {
	db base.DBTX
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, verification_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.VerificationStatus,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return apperror.AlreadyExists("user with this email or username already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByEmail получает пользователя по email (без учёта регистра)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::bigint[])`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	users := make(map[int64]*model.User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	return users, nil
}

// UpdateProfile сохраняет данные профиля
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET role = $2, full_name = $3, region = $4, bio = $5, subjects = $6, levels = $7,
			availability = $8, price_per_session = $9, currency = $10, documents = $11,
			telegram_chat_id = $12, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		user.ID,
		user.Role,
		user.FullName,
		user.Region,
		user.Bio,
		textArray(user.Subjects),
		textArray(user.Levels),
		availabilityOrEmpty(user.Availability),
		user.PricePerSession,
		user.Currency,
		stringMapOrEmpty(user.Documents),
		user.TelegramChatID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return apperror.NotFound("user")
		}
		return fmt.Errorf("update user profile: %w", err)
	}

	return nil
}

// UpdateVerification сохраняет статусы документов и итог проверки
func (r *UserRepository) UpdateVerification(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET document_status = $2, verification_status = $3, updated_at = now()
		WHERE id = $1
	`

	affected, err := base.ExecAffected(ctx, r.db, query, user.ID, boolMapOrEmpty(user.DocumentStatus), user.VerificationStatus)
	if err != nil {
		return fmt.Errorf("update user verification: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user")
	}

	return nil
}

// SearchTeachers ищет учителей по предметам, уровням, региону и дню недели
func (r *UserRepository) SearchTeachers(ctx context.Context, s model.TeacherSearch) ([]model.User, error) {
	var (
		conds = []string{"role = 'teacher'"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(s.Subjects) > 0 {
		conds = append(conds, "subjects && "+arg(s.Subjects)+"::text[]")
	}
	if len(s.Levels) > 0 {
		conds = append(conds, "levels && "+arg(s.Levels)+"::text[]")
	}
	if s.Region != "" {
		conds = append(conds, "region = "+arg(s.Region))
	}
	if s.Day != "" {
		conds = append(conds, "availability @> jsonb_build_array(jsonb_build_object('day', "+arg(string(s.Day))+"::text))")
	}

	order := "id"
	if col, ok := teacherSortColumns[s.SortBy]; ok {
		order = col + " ASC, id"
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY ` + order

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}
	defer rows.Close()

	teachers := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		teachers = append(teachers, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}

	return teachers, nil
}

// GetTelegramChatID возвращает chat id для уведомлений, nil если не привязан
func (r *UserRepository) GetTelegramChatID(ctx context.Context, userID int64) (*int64, error) {
	var chatID *int64
	err := r.db.QueryRow(ctx, `SELECT telegram_chat_id FROM users WHERE id = $1`, userID).Scan(&chatID)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get telegram chat id: %w", err)
	}
	return chatID, nil
}

// GetByTelegramChatID находит пользователя, привязавшего этот чат
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id = $1 ORDER BY id LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram chat id: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.FullName,
		&u.Region,
		&u.Bio,
		&u.Subjects,
		&u.Levels,
		&u.Availability,
		&u.PricePerSession,
		&u.Currency,
		&u.Documents,
		&u.DocumentStatus,
		&u.VerificationStatus,
		&u.TelegramChatID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func availabilityOrEmpty(a []model.AvailabilityEntry) []model.AvailabilityEntry {
	if a == nil {
		return []model.AvailabilityEntry{}
	}
	return a
}

func stringMapOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func boolMapOrEmpty(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}
