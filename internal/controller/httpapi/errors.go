package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation:         http.StatusBadRequest,
	apperror.KindNotFound:           http.StatusNotFound,
	apperror.KindForbidden:          http.StatusForbidden,
	apperror.KindUnauthenticated:    http.StatusUnauthorized,
	apperror.KindStateConflict:      http.StatusBadRequest,
	apperror.KindSchedulingConflict: http.StatusBadRequest,
	apperror.KindAlreadyExists:      http.StatusConflict,
	apperror.KindDependency:         http.StatusInternalServerError,
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func statusOf(err error) (int, apperror.Kind) {
	kind := apperror.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, kind
}

func errorBody(c *gin.Context, err error) (int, errorResponse) {
	status, kind := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		// Детали сбоя только в логе
		msg = "internal server error"
	}
	return status, errorResponse{Error: msg, Code: string(kind), RequestID: requestID(c)}
}

func writeError(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	_ = c.Error(err)
	c.JSON(status, body)
}

func abortWithError(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	c.AbortWithStatusJSON(status, body)
}

// bindError превращает ошибку разбора или валидации тела в Validation
func bindError(err error) error {
	if apperror.IsValidation(err) {
		return err
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request body")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperror.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "clock":
		return field + " must be in HH:MM format"
	case "weekday":
		return field + " must be a day of the week"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "email":
		return field + " must be a valid email"
	default:
		return field + " is invalid"
	}
}
