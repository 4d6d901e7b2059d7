package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/isp-manager/internal/config"
	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/notify"
	"github.com/magabrotheeeer/isp-manager/internal/rabbitmq"
)

// brokerNotifier подключается к RabbitMQ при первом напоминании, чтобы
// команды, не отправляющие напоминаний, не зависели от брокера.
type brokerNotifier struct {
	cfg config.RabbitMQ
	log *slog.Logger

	once      sync.Once
	conn      *amqp.Connection
	ch        *amqp.Channel
	publisher *notify.Publisher
	err       error
}

func newBrokerNotifier(cfg config.RabbitMQ, log *slog.Logger) *brokerNotifier {
	return &brokerNotifier{cfg: cfg, log: log}
}

func (b *brokerNotifier) Notify(ctx context.Context, r models.Reminder) error {
	b.once.Do(b.connect)
	if b.err != nil {
		return b.err
	}
	return b.publisher.Notify(ctx, r)
}

func (b *brokerNotifier) connect() {
	const op = "app.manager.brokerNotifier.connect"

	conn, err := rabbitmq.Connect(b.cfg.RabbitMQURL, b.cfg.RabbitMQMaxRetries, b.cfg.RabbitMQRetryDelay)
	if err != nil {
		b.err = fmt.Errorf("%s: %w", op, err)
		return
	}
	topology := rabbitmq.TopologyFromConfig(b.cfg)
	ch, err := rabbitmq.SetupChannel(conn, topology, 0)
	if err != nil {
		_ = conn.Close()
		b.err = fmt.Errorf("%s: %w", op, err)
		return
	}
	b.conn, b.ch = conn, ch
	b.publisher = notify.NewPublisher(ch, topology, b.log)
}

// Close закрывает канал и соединение, если они были открыты.
func (b *brokerNotifier) Close() error {
	if b.conn == nil {
		return nil
	}
	return errors.Join(b.ch.Close(), b.conn.Close())
}
