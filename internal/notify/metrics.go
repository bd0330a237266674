package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics метрики доставки уведомлений
type Metrics struct {
	// SentTotal доставленные и неудачные отправки по виду уведомления
	SentTotal *prometheus.CounterVec

	// QueueSize количество уведомлений, ждущих отправки
	QueueSize prometheus.Gauge

	SendDuration prometheus.Histogram

	Retries prometheus.Counter

	RateLimitWaits prometheus.Counter
}

// NewMetrics регистрирует метрики в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SentTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tutoring",
				Name:      "notifications_sent_total",
				Help:      "Total number of booking notifications processed",
			},
			[]string{"status", "kind"},
		),
		QueueSize: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tutoring",
				Name:      "notifications_queue_size",
				Help:      "Current number of pending notifications",
			},
		),
		SendDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tutoring",
				Name:      "notification_send_duration_seconds",
				Help:      "Time to deliver a notification",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
		),
		Retries: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tutoring",
				Name:      "notification_retries_total",
				Help:      "Total number of scheduled retries",
			},
		),
		RateLimitWaits: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tutoring",
				Name:      "notification_rate_limit_waits_total",
				Help:      "Total number of rate limit waits",
			},
		),
	}
}
