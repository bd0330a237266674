// Package booking реализует жизненный цикл бронирования как чистые функции:
// текущая запись и действие на входе, новая запись и намерения уведомить
// на выходе. Хранилище и доставка уведомлений сюда не попадают.
package booking

import (
	"slices"

	"github.com/Freeeeeet/tutoring_api/internal/model"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionConfirm    Action = "confirm"
	ActionReject     Action = "reject"
	ActionApprove    Action = "approve"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionComplete   Action = "complete"
	ActionReview     Action = "review"
)

type owner int

const (
	ownerNone owner = iota
	ownerTeacher
	ownerStudent
	ownerEither
)

// Transition разрешённое ребро графа статусов
type Transition struct {
	Action Action
	Roles  []model.Role
	Owner  owner
	From   []model.BookingStatus
	To     model.BookingStatus
}

var transitions = map[Action]Transition{
	ActionCreate: {
		Action: ActionCreate,
		Roles:  []model.Role{model.RoleStudent},
		Owner:  ownerNone,
		To:     model.BookingStatusPending,
	},
	ActionConfirm: {
		Action: ActionConfirm,
		Roles:  []model.Role{model.RoleTeacher},
		Owner:  ownerTeacher,
		From:   []model.BookingStatus{model.BookingStatusPending},
		To:     model.BookingStatusAwaitingApproval,
	},
	ActionReject: {
		Action: ActionReject,
		Roles:  []model.Role{model.RoleTeacher},
		Owner:  ownerTeacher,
		From:   []model.BookingStatus{model.BookingStatusPending},
		To:     model.BookingStatusRejected,
	},
	ActionApprove: {
		Action: ActionApprove,
		Roles:  []model.Role{model.RoleStudent},
		Owner:  ownerStudent,
		From:   []model.BookingStatus{model.BookingStatusAwaitingApproval},
		To:     model.BookingStatusConfirmed,
	},
	ActionCancel: {
		Action: ActionCancel,
		Roles:  []model.Role{model.RoleStudent, model.RoleTeacher},
		Owner:  ownerEither,
		From: []model.BookingStatus{
			model.BookingStatusPending,
			model.BookingStatusConfirmed,
			model.BookingStatusAwaitingApproval,
		},
		To: model.BookingStatusCanceled,
	},
	ActionReschedule: {
		Action: ActionReschedule,
		Roles:  []model.Role{model.RoleStudent},
		Owner:  ownerStudent,
		From: []model.BookingStatus{
			model.BookingStatusPending,
			model.BookingStatusConfirmed,
			model.BookingStatusAwaitingApproval,
		},
		To: model.BookingStatusPending,
	},
	ActionComplete: {
		Action: ActionComplete,
		Roles:  []model.Role{model.RoleTeacher},
		Owner:  ownerTeacher,
		From:   []model.BookingStatus{model.BookingStatusConfirmed},
		To:     model.BookingStatusCompleted,
	},
	ActionReview: {
		Action: ActionReview,
		Roles:  []model.Role{model.RoleStudent},
		Owner:  ownerStudent,
		From:   []model.BookingStatus{model.BookingStatusCompleted},
		To:     model.BookingStatusCompleted,
	},
}

// Lookup возвращает описание перехода для действия
func Lookup(a Action) (Transition, bool) {
	t, ok := transitions[a]
	return t, ok
}

// CanTransition разрешено ли действие из статуса from
func CanTransition(from model.BookingStatus, a Action) bool {
	t, ok := transitions[a]
	if !ok {
		return false
	}
	return slices.Contains(t.From, from)
}

// AllowsRole может ли роль вообще выполнять действие
func AllowsRole(a Action, r model.Role) bool {
	t, ok := transitions[a]
	return ok && slices.Contains(t.Roles, r)
}
