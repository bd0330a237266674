//go:build integration

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/app"
	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/booking"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository"
	"github.com/Freeeeeet/tutoring_api/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const concurrentRequests = 10

type BookingServiceIntegrationTestSuite struct {
	suite.Suite
	ctx  context.Context
	pgc  *postgres.PostgresContainer
	pool *pgxpool.Pool

	users    *repository.UserRepository
	bookings *repository.BookingRepository
	svc      *BookingService

	teacher  booking.Actor
	students []booking.Actor
}

func TestBookingServiceIntegration(t *testing.T) {
	suite.Run(t, new(BookingServiceIntegrationTestSuite))
}

func (s *BookingServiceIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tutoring"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.pgc = pgc

	dsn, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	cfg, err := pgxpool.ParseConfig(dsn)
	s.Require().NoError(err)
	cfg.MaxConns = concurrentRequests + 2
	s.pool, err = pgxpool.NewWithConfig(s.ctx, cfg)
	s.Require().NoError(err)

	migrator, err := app.NewMigrator(s.pool, migrations.FS, zap.NewNop())
	s.Require().NoError(err)
	s.Require().NoError(migrator.Run(s.ctx))
	s.Require().NoError(migrator.Close())

	s.users = repository.NewUserRepository(s.pool)
	s.bookings = repository.NewBookingRepository(s.pool)
	s.svc = NewBookingService(repository.NewStore(s.pool), s.bookings, s.users, zap.NewNop())
}

func (s *BookingServiceIntegrationTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgc != nil {
		s.Require().NoError(s.pgc.Terminate(s.ctx))
	}
}

func (s *BookingServiceIntegrationTestSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE notifications, bookings, users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)

	t := &model.User{
		Username: "ama", Email: "ama@example.com", PasswordHash: "x",
		Role: model.RoleTeacher, VerificationStatus: model.VerificationApproved,
	}
	s.Require().NoError(s.users.Create(s.ctx, t))
	t.FullName = "Ama Mensah"
	t.Subjects = []string{"Mathematics"}
	t.Availability = []model.AvailabilityEntry{{Day: model.Monday, From: "08:00", To: "20:00"}}
	s.Require().NoError(s.users.UpdateProfile(s.ctx, t))
	s.teacher = booking.Actor{ID: t.ID, Role: model.RoleTeacher}

	s.students = nil
	for i := 0; i < concurrentRequests; i++ {
		u := &model.User{
			Username: fmt.Sprintf("student%d", i), Email: fmt.Sprintf("student%d@example.com", i),
			PasswordHash: "x", Role: model.RoleStudent, VerificationStatus: model.VerificationPending,
		}
		s.Require().NoError(s.users.Create(s.ctx, u))
		s.students = append(s.students, booking.Actor{ID: u.ID, Role: model.RoleStudent})
	}
}

// race запускает op для каждого i одновременно; возвращает успехи и конфликты расписания
func (s *BookingServiceIntegrationTestSuite) race(n int, op func(i int) error) (successes, conflicts int) {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		start = make(chan struct{})
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := op(i)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.IsSchedulingConflict(err):
				conflicts++
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	return successes, conflicts
}

func (s *BookingServiceIntegrationTestSuite) activeInSlot(from string) int {
	list, err := s.bookings.GetByTeacherID(s.ctx, s.teacher.ID)
	s.Require().NoError(err)
	n := 0
	for _, b := range list {
		if b.Status.IsActive() && b.TimeFrom == from {
			n++
		}
	}
	return n
}

func (s *BookingServiceIntegrationTestSuite) TestConcurrentCreateOnlyOneWins() {
	successes, conflicts := s.race(concurrentRequests, func(i int) error {
		_, err := s.svc.Create(s.ctx, s.students[i], s.teacher.ID, mondayRequest("10:00", "11:00"))
		return err
	})

	s.Equal(1, successes)
	s.Equal(concurrentRequests-1, conflicts)
	s.Equal(1, s.activeInSlot("10:00"))
}

func (s *BookingServiceIntegrationTestSuite) TestConcurrentRescheduleIntoSameSlot() {
	ids := make([]int64, concurrentRequests)
	for i := range ids {
		// 08:00-09:00, 09:00-10:00, ... целевой слот 19:00-20:00 свободен
		from := fmt.Sprintf("%02d:00", 8+i)
		to := fmt.Sprintf("%02d:00", 9+i)
		b, err := s.svc.Create(s.ctx, s.students[i], s.teacher.ID, mondayRequest(from, to))
		s.Require().NoError(err)
		ids[i] = b.ID
	}

	successes, conflicts := s.race(concurrentRequests, func(i int) error {
		_, err := s.svc.Reschedule(s.ctx, s.students[i], ids[i], RescheduleRequest{
			Days: []model.Weekday{model.Monday}, TimeFrom: "19:00", TimeTo: "20:00",
		})
		return err
	})

	s.Equal(1, successes)
	s.Equal(concurrentRequests-1, conflicts)
	s.Equal(1, s.activeInSlot("19:00"))
}

func (s *BookingServiceIntegrationTestSuite) TestConcurrentApproveOfOverlappingOffers() {
	price := 100.0
	confirm := DecisionRequest{Status: model.BookingStatusConfirmed, Price: &price}

	// awaiting_approval не занимает слот: запросы создаются и подтверждаются по очереди
	ids := make([]int64, concurrentRequests)
	for i := range ids {
		b, err := s.svc.Create(s.ctx, s.students[i], s.teacher.ID, mondayRequest("12:00", "13:00"))
		s.Require().NoError(err)
		_, err = s.svc.Decide(s.ctx, s.teacher, b.ID, confirm)
		s.Require().NoError(err)
		ids[i] = b.ID
	}

	successes, conflicts := s.race(concurrentRequests, func(i int) error {
		_, err := s.svc.Approve(s.ctx, s.students[i], ids[i])
		return err
	})

	s.Equal(1, successes)
	s.Equal(concurrentRequests-1, conflicts)
	s.Equal(1, s.activeInSlot("12:00"))
}
