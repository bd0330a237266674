package httpapi

import (
	"context"

	"github.com/Freeeeeet/tutoring_api/internal/booking"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/service"
	"github.com/stretchr/testify/mock"
)

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) one(args mock.Arguments) (*model.Booking, error) {
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) list(args mock.Arguments) ([]model.Booking, error) {
	l, _ := args.Get(0).([]model.Booking)
	return l, args.Error(1)
}

func (m *mockBookings) Create(ctx context.Context, actor booking.Actor, teacherID int64, req service.BookingRequest) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, teacherID, req))
}

func (m *mockBookings) Decide(ctx context.Context, actor booking.Actor, id int64, req service.DecisionRequest) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id, req))
}

func (m *mockBookings) Approve(ctx context.Context, actor booking.Actor, id int64) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id))
}

func (m *mockBookings) Cancel(ctx context.Context, actor booking.Actor, id int64) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id))
}

func (m *mockBookings) Complete(ctx context.Context, actor booking.Actor, id int64) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id))
}

func (m *mockBookings) Review(ctx context.Context, actor booking.Actor, id int64, rating int, review string) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id, rating, review))
}

func (m *mockBookings) Reschedule(ctx context.Context, actor booking.Actor, id int64, req service.RescheduleRequest) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id, req))
}

func (m *mockBookings) StudentBookings(ctx context.Context, studentID int64) ([]model.Booking, error) {
	return m.list(m.Called(ctx, studentID))
}

func (m *mockBookings) TeacherBookings(ctx context.Context, teacherID int64) ([]model.Booking, error) {
	return m.list(m.Called(ctx, teacherID))
}

func (m *mockBookings) AllBookings(ctx context.Context) ([]model.Booking, error) {
	return m.list(m.Called(ctx))
}

func (m *mockBookings) BookingsForTeacher(ctx context.Context, teacherID int64) ([]model.Booking, error) {
	return m.list(m.Called(ctx, teacherID))
}

func (m *mockBookings) BookingsForStudent(ctx context.Context, studentID int64) ([]model.Booking, error) {
	return m.list(m.Called(ctx, studentID))
}

func (m *mockBookings) FilterBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	return m.list(m.Called(ctx, f))
}

func (m *mockBookings) PartyBooking(ctx context.Context, actor booking.Actor, id int64) (*model.Booking, error) {
	return m.one(m.Called(ctx, actor, id))
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) user(args mock.Arguments) (*model.User, error) {
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	return m.user(m.Called(ctx, in))
}

func (m *mockUsers) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(1).(*model.User)
	return args.String(0), u, args.Error(2)
}

func (m *mockUsers) Me(ctx context.Context, userID int64) (*model.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *mockUsers) CompleteProfile(ctx context.Context, userID int64, in service.ProfileInput) (*model.User, error) {
	return m.user(m.Called(ctx, userID, in))
}

func (m *mockUsers) SearchTeachers(ctx context.Context, q model.TeacherSearch) ([]model.TeacherProfile, error) {
	args := m.Called(ctx, q)
	l, _ := args.Get(0).([]model.TeacherProfile)
	return l, args.Error(1)
}

func (m *mockUsers) TeacherProfile(ctx context.Context, teacherID int64) (*model.TeacherProfile, error) {
	args := m.Called(ctx, teacherID)
	p, _ := args.Get(0).(*model.TeacherProfile)
	return p, args.Error(1)
}

func (m *mockUsers) VerifyDocument(ctx context.Context, userID int64, document string, isVerified bool) (*model.User, error) {
	return m.user(m.Called(ctx, userID, document, isVerified))
}
