// Package sender собирает воркер отправки напоминаний: потребитель RabbitMQ,
// SMTP транспорт и HTTP сервер с /health и /metrics.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/isp-manager/internal/config"
	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/isp-manager/internal/metrics"
	"github.com/magabrotheeeer/isp-manager/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/isp-manager/internal/services/sender"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	workers       int
	server        *http.Server
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is not configured", op)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	topology := rabbitmq.TopologyFromConfig(cfg.RabbitMQ)
	ch, err := rabbitmq.SetupChannel(conn, topology, cfg.Workers)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, cfg.RatePerMinute, metrics.NewSenderMetrics(registry), logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, registry, conn)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
	}

	return &App{
		conn:          conn,
		ch:            ch,
		queue:         topology.Queue,
		workers:       cfg.Workers,
		server:        srv,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run потребляет очередь и обслуживает HTTP до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	consumeCtx, stopConsume := context.WithCancel(ctx)
	defer stopConsume()

	done, err := rabbitmq.ConsumerMessage(consumeCtx, a.ch, a.queue, a.workers, a.logger, a.senderService.HandleReminder)
	if err != nil {
		a.logger.Error("failed to start reminder consumer", slog.String("queue", a.queue), sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("consuming reminders", slog.String("queue", a.queue), slog.Int("workers", a.workers))

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	a.logger.Info("sender service shutting down gracefully")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to shutdown HTTP server", sl.Err(err))
	}

	stopConsume()
	select {
	case <-done:
	case <-timeoutCtx.Done():
		a.logger.Warn("in-flight reminders did not finish before shutdown")
	}
	a.close()
	return runErr
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
