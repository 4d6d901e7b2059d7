// Package rabbitmq содержит подключение к брокеру, объявление топологии,
// публикацию и потребление сообщений о напоминаниях.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/isp-manager/internal/config"
)

// Connect подключается к брокеру, делая до retries попыток с паузой delay.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for attempt := range max(retries, 1) {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt < retries-1 {
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// Topology обменник, очередь и ключ маршрутизации напоминаний.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// TopologyFromConfig берёт топологию из настроек брокера.
func TopologyFromConfig(cfg config.RabbitMQ) Topology {
	return Topology{Exchange: cfg.Exchange, Queue: cfg.Queue, RoutingKey: cfg.RoutingKey}
}

// SetupChannel открывает канал, ограничивает число неподтверждённых сообщений
// prefetch и объявляет durable direct-обменник с привязанной очередью.
func SetupChannel(conn *amqp.Connection, t Topology, prefetch int) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := declare(ch, t, prefetch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

func declare(ch *amqp.Channel, t Topology, prefetch int) error {
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	err := ch.ExchangeDeclare(
		t.Exchange,
		amqp.ExchangeDirect,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", t.Exchange, err)
	}

	_, err = ch.QueueDeclare(
		t.Queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", t.Queue, err)
	}

	err = ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s with routing key %s: %w", t.Queue, t.RoutingKey, err)
	}
	return nil
}
