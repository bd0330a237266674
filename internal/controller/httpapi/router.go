// Package httpapi HTTP API сервиса бронирования занятий на gin.
package httpapi

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Bookings    BookingService
	Users       UserService
	Tokens      TokenParser
	Registry    *prometheus.Registry
	Logger      *zap.Logger
	CORSOrigins []string
	// Health проверка зависимостей для /health, nil означает всегда ok
	Health func(ctx context.Context) error
}

// NewRouter собирает gin.Engine со всеми маршрутами
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(d.Logger), corsMiddleware(d.CORSOrigins))

	if d.Registry != nil {
		r.Use(NewHTTPMetrics(d.Registry).Middleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				d.Logger.Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	bookings := NewBookingHandler(d.Bookings, d.Logger)
	users := NewUserHandler(d.Users)

	authn := Authenticate(d.Tokens)
	student := RequireRole(model.RoleStudent)
	teacher := RequireRole(model.RoleTeacher)
	party := RequireRole(model.RoleStudent, model.RoleTeacher)
	admin := RequireRole(model.RoleAdmin, model.RoleSuperAdmin)

	api := r.Group("/api")

	api.POST("/users/register", users.Register)
	api.POST("/users/login", users.Login)

	secured := api.Group("", authn)
	{
		secured.GET("/users/me", users.Me)
		secured.PATCH("/users/complete-profile", users.CompleteProfile)
		secured.GET("/users/teachers/search", users.SearchTeachers)
		secured.GET("/users/teachers/:id", RequireRole(model.RoleStudent, model.RoleAdmin, model.RoleSuperAdmin), users.TeacherProfile)
		secured.POST("/verify-documents/:id", admin, users.VerifyDocument)

		secured.POST("/teachers/:teacherId/book", student, bookings.Create)

		b := secured.Group("/booking")
		b.PATCH("/:bookingId/confirm-reject", teacher, bookings.ConfirmReject)
		b.PATCH("/:bookingId/approve", student, bookings.Approve)
		b.PATCH("/:bookingId/cancel", party, bookings.Cancel)
		b.PATCH("/:bookingId/reschedule", bookings.Reschedule)
		b.PATCH("/:bookingId/complete", teacher, bookings.Complete)
		b.PATCH("/:bookingId/review", student, bookings.Review)
		b.GET("/:bookingId/invoice", bookings.Invoice)

		b.GET("/me", bookings.StudentBookings)
		b.GET("/mine", bookings.TeacherBookings)
		b.GET("/admin", admin, bookings.Search)
		b.GET("/admin/export", admin, bookings.Export)
		b.GET("/all", admin, bookings.All)

		secured.GET("/admin/booking/teacher/:id", admin, bookings.ByTeacher)
		secured.GET("/admin/booking/student/:id", admin, bookings.ByStudent)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
