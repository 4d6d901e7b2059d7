// Package notify передаёт напоминания о скором окончании подписки во внешнюю доставку.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/rabbitmq"
)

// Publisher публикует напоминания в RabbitMQ, откуда их забирает воркер отправки.
type Publisher struct {
	ch       rabbitmq.Channel
	topology rabbitmq.Topology
	log      *slog.Logger
}

// NewPublisher создает новый экземпляр Publisher.
func NewPublisher(ch rabbitmq.Channel, topology rabbitmq.Topology, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, topology: topology, log: log}
}

// Notify публикует напоминание с уникальным идентификатором сообщения.
func (p *Publisher) Notify(ctx context.Context, r models.Reminder) error {
	const op = "notify.Publisher.Notify"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id := uuid.NewString()
	if err := rabbitmq.PublishMessage(p.ch, p.topology.Exchange, p.topology.RoutingKey, id, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.log.Debug("reminder published",
		slog.String("message_id", id),
		slog.Int64("subscription_id", r.SubscriptionID),
	)
	return nil
}

// LogNotifier пишет напоминание в лог. Используется, когда брокер не настроен.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier создает новый экземпляр LogNotifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.log.Info("subscription expiring",
		slog.Int64("subscription_id", r.SubscriptionID),
		slog.String("customer", r.CustomerName),
		slog.String("email", r.Email),
		slog.String("plan", r.PlanName),
		slog.String("end_date", r.EndDate.Format("2006-01-02")),
		slog.Int("days_left", r.DaysLeft),
	)
	return nil
}
