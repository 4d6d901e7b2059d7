package sender

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/isp-manager/internal/http/handlers/health"
)

// RegisterRoutes регистрирует служебные маршруты воркера.
func RegisterRoutes(r chi.Router, logger *slog.Logger, registry *prometheus.Registry, conn *amqp.Connection) {
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, map[string]health.Check{
		"rabbitmq": func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		},
	}).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
}
