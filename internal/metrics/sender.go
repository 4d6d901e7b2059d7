// Package metrics содержит метрики Prometheus воркера отправки напоминаний.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты обработки сообщения.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// SenderMetrics интерфейс метрик воркера отправки.
type SenderMetrics interface {
	IncReminder(outcome string)
	ObserveSendDuration(d time.Duration)
}

type senderMetrics struct {
	reminders    *prometheus.CounterVec
	sendDuration prometheus.Histogram
}

// NewSenderMetrics регистрирует метрики воркера в registry.
func NewSenderMetrics(registry prometheus.Registerer) SenderMetrics {
	reminders := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_processed_total",
			Help: "The total number of processed reminder messages by outcome",
		},
		[]string{"outcome"},
	)

	sendDuration := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_smtp_send_seconds",
			Help:    "Time spent delivering one reminder over SMTP",
			Buckets: prometheus.DefBuckets,
		},
	)

	return &senderMetrics{
		reminders:    reminders,
		sendDuration: sendDuration,
	}
}

// IncReminder увеличивает счётчик обработанных напоминаний.
func (m *senderMetrics) IncReminder(outcome string) {
	m.reminders.WithLabelValues(outcome).Inc()
}

// ObserveSendDuration записывает длительность отправки письма.
func (m *senderMetrics) ObserveSendDuration(d time.Duration) {
	m.sendDuration.Observe(d.Seconds())
}
