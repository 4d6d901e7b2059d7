package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
)

// ErrDrop обработчик возвращает ошибку с ErrDrop, если сообщение не имеет смысла
// доставлять повторно. Такое сообщение отклоняется без возврата в очередь.
var ErrDrop = errors.New("message dropped")

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage запускает потребителя очереди queueName. Одновременно
// обрабатывается не больше workers сообщений. Канал done закрывается, когда
// ctx отменён или доставка закончилась и все начатые обработчики завершились.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, workers int, log *slog.Logger, handler Handler) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return consume(ctx, delivery, workers, log, handler), nil
}

func consume(ctx context.Context, delivery <-chan amqp.Delivery, workers int, log *slog.Logger, handler Handler) <-chan struct{} {
	if workers < 1 {
		workers = 1
	}
	done := make(chan struct{})
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	go func() {
		defer close(done)
		defer wg.Wait()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					settle(ctx, d, log, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

func settle(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler Handler) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", slog.String("message_id", d.MessageId), sl.Err(ackErr))
		}
	case errors.Is(err, ErrDrop):
		log.Warn("message rejected", slog.String("message_id", d.MessageId), sl.Err(err))
		if rejErr := d.Reject(false); rejErr != nil {
			log.Error("failed to reject message", slog.String("message_id", d.MessageId), sl.Err(rejErr))
		}
	default:
		log.Error("failed to handle message, requeue", slog.String("message_id", d.MessageId), sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", slog.String("message_id", d.MessageId), sl.Err(nackErr))
		}
	}
}
