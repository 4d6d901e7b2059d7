// Package sender доставляет напоминания из очереди абонентам по электронной почте.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/isp-manager/internal/metrics"
	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/rabbitmq"
)

// SenderService отправляет письма о скором окончании подписки.
type SenderService struct {
	transport smtp.TransportInterface
	limiter   *rate.Limiter
	metrics   metrics.SenderMetrics
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService. perMinute ограничивает
// число писем в минуту, 0 снимает ограничение.
func NewSenderService(transport smtp.TransportInterface, perMinute int, m metrics.SenderMetrics, log *slog.Logger) *SenderService {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &SenderService{
		transport: transport,
		limiter:   rate.NewLimiter(limit, 1),
		metrics:   m,
		log:       log,
	}
}

// HandleReminder разбирает сообщение очереди и отправляет письмо. Некорректные
// сообщения помечаются rabbitmq.ErrDrop и в очередь не возвращаются.
func (s *SenderService) HandleReminder(ctx context.Context, body []byte) error {
	const op = "sender.SenderService.HandleReminder"

	var r models.Reminder
	if err := json.Unmarshal(body, &r); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		s.metrics.IncReminder(metrics.OutcomeDropped)
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrDrop, err)
	}
	if _, err := models.NormalizeEmail(r.Email); err != nil {
		s.log.Warn("reminder without valid email", slog.Int64("subscription_id", r.SubscriptionID))
		s.metrics.IncReminder(metrics.OutcomeDropped)
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	subject, text := Compose(r)
	start := time.Now()
	err := s.sendEmail(ctx, []string{r.Email}, subject, text)
	s.metrics.ObserveSendDuration(time.Since(start))
	if err != nil {
		s.metrics.IncReminder(metrics.OutcomeFailed)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.IncReminder(metrics.OutcomeSent)
	s.log.Info("reminder sent",
		slog.Int64("subscription_id", r.SubscriptionID),
		slog.String("to", r.Email),
	)
	return nil
}

// Compose возвращает тему и текст письма-напоминания.
func Compose(r models.Reminder) (subject, text string) {
	when := fmt.Sprintf("in %d days", r.DaysLeft)
	switch r.DaysLeft {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	}

	subject = fmt.Sprintf("Your %s subscription expires %s", r.PlanName, when)
	text = fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"Your %s internet subscription expires %s, on %s.\r\n"+
			"Renewal price: %s %s.\r\n\r\n"+
			"Please renew in advance to keep your connection.\r\n",
		r.CustomerName,
		r.PlanName, when, r.EndDate.Format("2006-01-02"),
		r.Currency, r.Price.StringFixed(2),
	)
	return subject, text
}

func (s *SenderService) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
