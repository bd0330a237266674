package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	DBDSN       string

	JWTSecret string
	JWTTTL    time.Duration

	TelegramToken string
	NatsURL       string

	RedisAddr       string
	RedisPassword   string
	TeacherCacheTTL time.Duration

	CORSAllowedOrigins []string

	Notify NotifyConfig
}

// NotifyConfig настройки фоновой отправки уведомлений
type NotifyConfig struct {
	Interval    time.Duration
	BatchSize   int
	RatePerSec  float64
	MaxAttempts int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию только из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("ENV", "development"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBDSN:              os.Getenv("DB_DSN"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		NatsURL:            os.Getenv("NATS_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TeacherCacheTTL, err = getDuration("TEACHER_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Notify.Interval, err = getDuration("NOTIFY_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Notify.BatchSize, err = getInt("NOTIFY_BATCH", 50); err != nil {
		return nil, err
	}
	if cfg.Notify.MaxAttempts, err = getInt("NOTIFY_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.Notify.RatePerSec, err = getFloat("NOTIFY_RATE", 20); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", key, v)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
