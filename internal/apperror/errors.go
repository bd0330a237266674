package apperror

import (
	"errors"
	"fmt"
)

// Kind категория ошибки, по ней транспорт выбирает статус ответа
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindUnauthenticated    Kind = "unauthenticated"
	KindStateConflict      Kind = "state_conflict"
	KindSchedulingConflict Kind = "scheduling_conflict"
	KindAlreadyExists      Kind = "already_exists"
	KindDependency         Kind = "dependency_failure"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет сравнивать с шаблонами вида &Error{Kind: KindNotFound}
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound одинаков для "нет такой записи" и "запись чужая"
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Msg: resource + " not found"}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

func StateConflict(format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Msg: fmt.Sprintf(format, args...)}
}

func SchedulingConflict(msg string) *Error {
	return &Error{Kind: KindSchedulingConflict, Msg: msg}
}

func AlreadyExists(msg string) *Error {
	return &Error{Kind: KindAlreadyExists, Msg: msg}
}

// Dependency оборачивает сбой хранилища или внешнего сервиса
func Dependency(op string, err error) *Error {
	return &Error{Kind: KindDependency, Msg: op, Err: err}
}

// KindOf возвращает категорию ошибки; неизвестные ошибки считаются сбоем зависимости
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsValidation(err error) bool    { return IsKind(err, KindValidation) }
func IsStateConflict(err error) bool { return IsKind(err, KindStateConflict) }
func IsSchedulingConflict(err error) bool {
	return IsKind(err, KindSchedulingConflict)
}
