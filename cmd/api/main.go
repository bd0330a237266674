package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/app"
	"github.com/Freeeeeet/tutoring_api/internal/auth"
	"github.com/Freeeeeet/tutoring_api/internal/cache"
	"github.com/Freeeeeet/tutoring_api/internal/config"
	"github.com/Freeeeeet/tutoring_api/internal/controller/httpapi"
	"github.com/Freeeeeet/tutoring_api/internal/controller/telegram"
	"github.com/Freeeeeet/tutoring_api/internal/notify"
	"github.com/Freeeeeet/tutoring_api/internal/repository"
	"github.com/Freeeeeet/tutoring_api/internal/service"
	"github.com/Freeeeeet/tutoring_api/migrations"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting tutoring API",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
	logger.Info("Application stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := repository.NewStore(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	var teacherCache service.TeacherCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, teacher profiles will not be cached", zap.Error(err))
		} else {
			teacherCache = cache.NewTeacherCache(rdb, cfg.TeacherCacheTTL)
			logger.Info("Teacher profile cache enabled", zap.Duration("ttl", cfg.TeacherCacheTTL))
		}
	}

	notifiers := notify.Multi{{Name: "log", Notifier: notify.NewLogNotifier(logger)}}

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("tutoring-api"))
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer nc.Drain()
		notifiers = append(notifiers, notify.Sink{Name: "nats", Notifier: notify.NewNatsPublisher(nc)})
		logger.Info("NATS notifications enabled")
	}

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		notifiers = append(notifiers, notify.Sink{Name: "telegram", Notifier: notify.NewTelegramNotifier(tgBot, userRepo, logger)})
		logger.Info("Telegram notifications enabled")
	}

	burst := max(1, int(cfg.Notify.RatePerSec))
	dispatcher := notify.NewDispatcher(
		notificationRepo,
		notifiers,
		rate.NewLimiter(rate.Limit(cfg.Notify.RatePerSec), burst),
		notify.NewMetrics(reg),
		notify.DispatcherConfig{
			BatchSize:   cfg.Notify.BatchSize,
			MaxAttempts: cfg.Notify.MaxAttempts,
		},
		logger,
	)

	scheduler := app.NewScheduler(logger, app.Task{
		Name:     "notification-dispatch",
		Interval: cfg.Notify.Interval,
		Run: func(ctx context.Context) error {
			sent, err := dispatcher.RunOnce(ctx)
			if sent > 0 {
				logger.Debug("Notifications dispatched", zap.Int("sent", sent))
			}
			return err
		},
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTTTL)

	bookingService := service.NewBookingService(store, bookingRepo, userRepo, logger)
	userService := service.NewUserService(userRepo, teacherCache, auth.BcryptHasher{Cost: bcrypt.DefaultCost}, authenticator, logger)

	if tgBot != nil {
		controller := telegram.NewBotController(tgBot, userRepo, bookingService, logger)
		if err := controller.RegisterHandlers(ctx); err != nil {
			logger.Warn("Telegram bot commands not registered", zap.Error(err))
		}
		go controller.Start(ctx)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Bookings:    bookingService,
		Users:       userService,
		Tokens:      authenticator,
		Registry:    reg,
		Logger:      logger,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Health:      pool.Ping,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}
