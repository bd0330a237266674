package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetByTelegramChatID(_ context.Context, chatID int64) (*model.User, error) {
	return f[chatID], nil
}

type fakeBookings struct {
	student map[int64][]model.Booking
	teacher map[int64][]model.Booking
	err     error
}

func (f *fakeBookings) StudentBookings(_ context.Context, id int64) ([]model.Booking, error) {
	return f.student[id], f.err
}

func (f *fakeBookings) TeacherBookings(_ context.Context, id int64) ([]model.Booking, error) {
	return f.teacher[id], f.err
}

func TestStartText(t *testing.T) {
	assert.Contains(t, startText(12345), "12345")
}

func TestMyBookingsText_Unlinked(t *testing.T) {
	h := NewHandlers(fakeUsers{}, &fakeBookings{}, zap.NewNop())
	text, err := h.myBookingsText(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, text, "not linked")
}

func TestMyBookingsText_ByRole(t *testing.T) {
	users := fakeUsers{
		10: {ID: 1, Role: model.RoleTeacher},
		20: {ID: 2, Role: model.RoleStudent},
	}
	bk := model.Booking{
		ID:          7,
		TeacherName: "Ama",
		StudentName: "Kofi",
		Days:        []model.Weekday{model.Monday},
		TimeFrom:    "09:00",
		TimeTo:      "10:00",
		Status:      model.BookingStatusAwaitingApproval,
	}
	h := NewHandlers(users, &fakeBookings{
		teacher: map[int64][]model.Booking{1: {bk}},
		student: map[int64][]model.Booking{2: {bk}},
	}, zap.NewNop())

	text, err := h.myBookingsText(context.Background(), 10)
	require.NoError(t, err)
	assert.Contains(t, text, "Student: Kofi")
	assert.Contains(t, text, "Price proposed")

	text, err = h.myBookingsText(context.Background(), 20)
	require.NoError(t, err)
	assert.Contains(t, text, "Teacher: Ama")
	assert.Contains(t, text, "Monday 09:00-10:00")
}

func TestMyBookingsText_Truncates(t *testing.T) {
	var list []model.Booking
	for i := 1; i <= maxListedBookings+3; i++ {
		list = append(list, model.Booking{ID: int64(i), Status: model.BookingStatusPending})
	}
	h := NewHandlers(fakeUsers{5: {ID: 2, Role: model.RoleStudent}}, &fakeBookings{
		student: map[int64][]model.Booking{2: list},
	}, zap.NewNop())

	text, err := h.myBookingsText(context.Background(), 5)
	require.NoError(t, err)
	assert.Contains(t, text, fmt.Sprintf("Your bookings (%d)", maxListedBookings+3))
	assert.Contains(t, text, "and 3 more")
}

func TestMyBookingsText_Error(t *testing.T) {
	h := NewHandlers(fakeUsers{5: {ID: 2, Role: model.RoleStudent}}, &fakeBookings{err: errors.New("db down")}, zap.NewNop())
	_, err := h.myBookingsText(context.Background(), 5)
	assert.Error(t, err)
}

func TestGetStatusDisplay(t *testing.T) {
	for _, s := range []model.BookingStatus{
		model.BookingStatusPending, model.BookingStatusAwaitingApproval, model.BookingStatusConfirmed,
		model.BookingStatusCompleted, model.BookingStatusCanceled, model.BookingStatusRejected,
	} {
		assert.NotEqual(t, "Unknown", GetStatusDisplay(s).Text, s)
	}
	assert.Equal(t, "Unknown", GetStatusDisplay("archived").Text)
}

func TestScheduleImage(t *testing.T) {
	users := fakeUsers{
		10: {ID: 1, Role: model.RoleTeacher, FullName: "Ama Mensah"},
		20: {ID: 2, Role: model.RoleStudent},
	}
	h := NewHandlers(users, &fakeBookings{
		teacher: map[int64][]model.Booking{1: {{
			ID: 3, StudentName: "Kofi", Days: []model.Weekday{model.Tuesday},
			TimeFrom: "16:00", TimeTo: "17:00", Status: model.BookingStatusConfirmed,
		}}},
	}, zap.NewNop())

	img, text, err := h.scheduleImage(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, text)
	require.NotEmpty(t, img)
	assert.Equal(t, "\x89PNG", string(img[:4]))

	img, text, err = h.scheduleImage(context.Background(), 20)
	require.NoError(t, err)
	assert.Nil(t, img)
	assert.Contains(t, text, "no bookings")

	img, text, err = h.scheduleImage(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, img)
	assert.Contains(t, text, "not linked")
}
