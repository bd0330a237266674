package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UserService регистрация, анкеты и поиск учителей
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	Me(ctx context.Context, userID int64) (*model.User, error)
	CompleteProfile(ctx context.Context, userID int64, in service.ProfileInput) (*model.User, error)
	SearchTeachers(ctx context.Context, q model.TeacherSearch) ([]model.TeacherProfile, error)
	TeacherProfile(ctx context.Context, teacherID int64) (*model.TeacherProfile, error)
	VerifyDocument(ctx context.Context, userID int64, document string, isVerified bool) (*model.User, error)
}

type UserHandler struct {
	users    UserService
	validate *validator.Validate
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users, validate: newValidator()}
}

type registerRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=64"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=student teacher"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Role            model.Role                `json:"role" validate:"omitempty,oneof=student teacher"`
	FullName        string                    `json:"fullName" validate:"required,max=128"`
	Region          string                    `json:"region" validate:"max=128"`
	Bio             string                    `json:"bio" validate:"max=4000"`
	Subjects        []string                  `json:"subjects" validate:"omitempty,dive,required"`
	Levels          []string                  `json:"levels"`
	Availability    []model.AvailabilityEntry `json:"availability"`
	PricePerSession *float64                  `json:"pricePerSession"`
	Currency        model.Currency            `json:"currency"`
	Documents       map[string]string         `json:"documents"`
	TelegramChatID  *int64                    `json:"telegramChatId"`
}

type verifyDocumentRequest struct {
	Document   string `json:"document" validate:"required"`
	IsVerified *bool  `json:"isVerified" validate:"required"`
}

type userResponse struct {
	Message string      `json:"message,omitempty"`
	User    *model.User `json:"user"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type teacherListResponse struct {
	Count    int                    `json:"count"`
	Teachers []model.TeacherProfile `json:"teachers"`
}

type teacherResponse struct {
	Teacher *model.TeacherProfile `json:"teacher"`
}

func (h *UserHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, bindError(err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(c, bindError(err))
		return false
	}
	return true
}

// Register POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse{Message: "User registered successfully", User: user})
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user})
}

// CompleteProfile PATCH /api/users/complete-profile
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	var req profileRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.users.CompleteProfile(c.Request.Context(), actorFrom(c).ID, service.ProfileInput{
		Role:            req.Role,
		FullName:        req.FullName,
		Region:          req.Region,
		Bio:             req.Bio,
		Subjects:        req.Subjects,
		Levels:          req.Levels,
		Availability:    req.Availability,
		PricePerSession: req.PricePerSession,
		Currency:        req.Currency,
		Documents:       req.Documents,
		TelegramChatID:  req.TelegramChatID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{Message: "Profile updated successfully", User: user})
}

// SearchTeachers GET /api/users/teachers/search
func (h *UserHandler) SearchTeachers(c *gin.Context) {
	q := model.TeacherSearch{
		Subjects: splitQuery(c.Query("subjects")),
		Levels:   splitQuery(c.Query("levels")),
		Region:   c.Query("region"),
		Day:      model.Weekday(c.Query("day")),
		SortBy:   c.Query("sortBy"),
	}

	teachers, err := h.users.SearchTeachers(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	if teachers == nil {
		teachers = []model.TeacherProfile{}
	}
	c.JSON(http.StatusOK, teacherListResponse{Count: len(teachers), Teachers: teachers})
}

// TeacherProfile GET /api/users/teachers/:id
func (h *UserHandler) TeacherProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	teacher, err := h.users.TeacherProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teacherResponse{Teacher: teacher})
}

// VerifyDocument POST /api/verify-documents/:id
func (h *UserHandler) VerifyDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req verifyDocumentRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.users.VerifyDocument(c.Request.Context(), id, req.Document, *req.IsVerified)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{Message: "Document verification updated", User: user})
}

func splitQuery(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
