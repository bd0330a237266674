package service

import (
	"context"
	"slices"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/schedule"
	"go.uber.org/zap"
)

// UserRepository хранилище пользователей
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateVerification(ctx context.Context, user *model.User) error
	SearchTeachers(ctx context.Context, s model.TeacherSearch) ([]model.User, error)
}

// TeacherCache кэш публичных профилей учителей
type TeacherCache interface {
	GetTeacher(ctx context.Context, id int64) (*model.TeacherProfile, error)
	SetTeacher(ctx context.Context, teacher *model.TeacherProfile) error
	InvalidateTeacher(ctx context.Context, id int64) error
}

// PasswordHasher хеширование паролей
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer выпускает токен доступа
type TokenIssuer interface {
	Issue(userID int64, role model.Role) (string, error)
}

// RegisterInput данные регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

// ProfileInput данные анкеты после регистрации
type ProfileInput struct {
	Role            model.Role
	FullName        string
	Region          string
	Bio             string
	Subjects        []string
	Levels          []string
	Availability    []model.AvailabilityEntry
	PricePerSession *float64
	Currency        model.Currency
	Documents       map[string]string
	TelegramChatID  *int64
}

type UserService struct {
	users  UserRepository
	cache  TeacherCache
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger
}

func NewUserService(users UserRepository, cache TeacherCache, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		cache:  cache,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register создаёт ученика или учителя; административные роли так не выдаются
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	if role != model.RoleStudent && role != model.RoleTeacher {
		return nil, apperror.Validation("role must be student or teacher")
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperror.Dependency("get user by email", err)
	}
	if existing != nil {
		return nil, apperror.AlreadyExists("user with this email already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Dependency("hash password", err)
	}

	user := &model.User{
		Username:           strings.TrimSpace(in.Username),
		Email:              strings.TrimSpace(in.Email),
		PasswordHash:       hash,
		Role:               role,
		VerificationStatus: model.VerificationPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeErr("create user", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Login проверяет пароль и выдаёт токен
func (s *UserService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, apperror.Dependency("get user by email", err)
	}
	if user == nil || s.hasher.Compare(user.PasswordHash, password) != nil {
		return "", nil, apperror.Unauthenticated("invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, apperror.Dependency("issue token", err)
	}

	return token, user, nil
}

// Me профиль текущего пользователя
func (s *UserService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.Dependency("get user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}
	return user, nil
}

// CompleteProfile заполняет анкету. Учитель обязан указать предметы и расписание.
func (s *UserService) CompleteProfile(ctx context.Context, userID int64, in ProfileInput) (*model.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	role := user.Role
	if in.Role != "" {
		if role.IsAdmin() || (in.Role != model.RoleStudent && in.Role != model.RoleTeacher) {
			return nil, apperror.Validation("role can only be switched between student and teacher")
		}
		role = in.Role
	}

	if err := validateProfile(role, in); err != nil {
		return nil, err
	}

	user.Role = role
	user.FullName = in.FullName
	user.Region = in.Region
	user.Bio = in.Bio
	user.Subjects = in.Subjects
	user.Levels = in.Levels
	user.TelegramChatID = in.TelegramChatID
	reverify := mergeDocuments(user, in.Documents)
	if role == model.RoleTeacher {
		user.Availability = in.Availability
		user.PricePerSession = in.PricePerSession
		user.Currency = in.Currency
		if user.Currency == "" {
			user.Currency = model.CurrencyGHS
		}
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, storeErr("update profile", err)
	}
	if reverify {
		if err := s.users.UpdateVerification(ctx, user); err != nil {
			return nil, storeErr("update verification", err)
		}
	}
	s.invalidate(ctx, user.ID)

	s.logger.Info("Profile completed",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Int("availability_entries", len(user.Availability)),
	)

	return user, nil
}

// mergeDocuments накладывает присланные ссылки на уже загруженные, пустая
// ссылка удаляет документ. Заменённый документ теряет отметку о проверке,
// одобренный учитель снова ждёт проверки. Возвращает true, если отметки изменились.
func mergeDocuments(user *model.User, docs map[string]string) bool {
	reverify := false
	for doc, url := range docs {
		if user.Documents[doc] == url {
			continue
		}
		if user.Documents == nil {
			user.Documents = map[string]string{}
		}
		if url == "" {
			delete(user.Documents, doc)
		} else {
			user.Documents[doc] = url
		}
		if _, ok := user.DocumentStatus[doc]; ok {
			delete(user.DocumentStatus, doc)
			reverify = true
		}
		if user.VerificationStatus == model.VerificationApproved && url != "" {
			user.VerificationStatus = model.VerificationPending
			reverify = true
		}
	}
	return reverify
}

// SearchTeachers поиск учителей по фильтрам, только публичные поля
func (s *UserService) SearchTeachers(ctx context.Context, q model.TeacherSearch) ([]model.TeacherProfile, error) {
	if q.Day != "" && !q.Day.Valid() {
		return nil, apperror.Validation("invalid day %q", q.Day)
	}
	teachers, err := s.users.SearchTeachers(ctx, q)
	if err != nil {
		return nil, apperror.Dependency("search teachers", err)
	}

	out := make([]model.TeacherProfile, 0, len(teachers))
	for i := range teachers {
		out = append(out, teachers[i].PublicProfile())
	}
	return out, nil
}

// TeacherProfile публичный профиль учителя, из кэша если он там есть
func (s *UserService) TeacherProfile(ctx context.Context, teacherID int64) (*model.TeacherProfile, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTeacher(ctx, teacherID)
		if err != nil {
			s.logger.Warn("Teacher cache read failed", zap.Int64("teacher_id", teacherID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, apperror.Dependency("get teacher", err)
	}
	if teacher == nil || teacher.Role != model.RoleTeacher {
		return nil, apperror.NotFound("teacher")
	}
	profile := teacher.PublicProfile()

	if s.cache != nil {
		if err := s.cache.SetTeacher(ctx, &profile); err != nil {
			s.logger.Warn("Teacher cache write failed", zap.Int64("teacher_id", teacherID), zap.Error(err))
		}
	}

	return &profile, nil
}

// VerifyDocument администратор отмечает документ учителя. Когда все
// загруженные документы проверены, учитель становится approved.
func (s *UserService) VerifyDocument(ctx context.Context, userID int64, document string, isVerified bool) (*model.User, error) {
	if !slices.Contains(model.DocumentTypes, document) {
		return nil, apperror.Validation("invalid document type %q", document)
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Documents[document] == "" {
		return nil, apperror.Validation("document %s not uploaded yet", document)
	}

	if user.DocumentStatus == nil {
		user.DocumentStatus = map[string]bool{}
	}
	user.DocumentStatus[document] = isVerified

	allVerified := true
	for _, doc := range model.DocumentTypes {
		if user.Documents[doc] != "" && !user.DocumentStatus[doc] {
			allVerified = false
			break
		}
	}
	if allVerified {
		user.VerificationStatus = model.VerificationApproved
	}

	if err := s.users.UpdateVerification(ctx, user); err != nil {
		return nil, storeErr("update verification", err)
	}
	s.invalidate(ctx, user.ID)

	s.logger.Info("Document verified",
		zap.Int64("user_id", user.ID),
		zap.String("document", document),
		zap.Bool("is_verified", isVerified),
		zap.String("verification_status", string(user.VerificationStatus)),
	)

	return user, nil
}

func (s *UserService) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTeacher(ctx, userID); err != nil {
		s.logger.Warn("Teacher cache invalidation failed", zap.Int64("teacher_id", userID), zap.Error(err))
	}
}

func validateProfile(role model.Role, in ProfileInput) error {
	if strings.TrimSpace(in.FullName) == "" {
		return apperror.Validation("fullName is required")
	}
	for _, l := range in.Levels {
		if !slices.Contains(model.Levels, l) {
			return apperror.Validation("invalid level %q", l)
		}
	}
	for doc := range in.Documents {
		if !slices.Contains(model.DocumentTypes, doc) {
			return apperror.Validation("invalid document type %q", doc)
		}
	}

	if role != model.RoleTeacher {
		return nil
	}

	if len(in.Subjects) == 0 {
		return apperror.Validation("teachers must list at least one subject")
	}
	if len(in.Availability) == 0 {
		return apperror.Validation("teachers must declare availability")
	}
	for _, a := range in.Availability {
		if err := schedule.ValidateWindow([]model.Weekday{a.Day}, a.From, a.To); err != nil {
			return err
		}
	}
	if in.PricePerSession != nil && *in.PricePerSession < 0 {
		return apperror.Validation("pricePerSession must not be negative")
	}
	switch in.Currency {
	case "", model.CurrencyGHS, model.CurrencyUSD, model.CurrencyEUR, model.CurrencyNGN:
	default:
		return apperror.Validation("invalid currency %q", in.Currency)
	}
	return nil
}
