package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/cache"
	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// ReminderService находит подписки, которые скоро закончатся, и передаёт
// напоминания в доставку не чаще раза в день на подписку.
type ReminderService struct {
	base
	notifier   Notifier
	windowDays int
	currency   string
}

// NewReminderService создает новый экземпляр ReminderService.
func NewReminderService(d Deps, notifier Notifier, windowDays int, currency string) *ReminderService {
	return &ReminderService{
		base:       newBase(d),
		notifier:   notifier,
		windowDays: windowDays,
		currency:   currency,
	}
}

// CheckExpiring выбирает активные подписки с окончанием в [today, today+window],
// по которым сегодня ещё не было напоминания. Подписка помечается только после
// успешной передачи напоминания; абоненты без email попадают в Skipped.
func (s *ReminderService) CheckExpiring(ctx context.Context) (*models.ReminderReport, error) {
	const op = "services.ReminderService.CheckExpiring"

	today := s.today()
	deadline := today.AddDate(0, 0, s.windowDays)

	var due []models.SubscriptionDetails
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		due, err = repo.ListExpiring(ctx, today, deadline)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &models.ReminderReport{Checked: len(due)}
	if len(due) == 0 {
		s.Log.Info("no subscriptions need reminders")
		return report, nil
	}
	s.Log.Info("found expiring subscriptions", slog.Int("count", len(due)))

	for _, d := range due {
		if d.CustomerEmail == "" {
			s.Log.Warn("no email on file", slog.Int64("subscription_id", d.ID))
			report.Skipped = append(report.Skipped, d)
			continue
		}

		r := s.reminder(d, today)
		if err := s.notifier.Notify(ctx, r); err != nil {
			s.Log.Error("failed to notify", slog.Int64("subscription_id", d.ID), sl.Err(err))
			report.Failed = append(report.Failed, models.ReminderFailure{Reminder: r, Err: err})
			continue
		}

		// Каждая отметка в своей транзакции: сбой на одной подписке
		// не отменяет отметки уже отправленных напоминаний.
		err := s.Tx.WithinTx(ctx, func(repo Repository) error {
			return repo.MarkReminderSent(ctx, d.ID, today)
		})
		if err != nil {
			return report, fmt.Errorf("%s: %w", op, err)
		}
		s.cacheInvalidate(cache.SubscriptionKey(d.ID))
		report.Sent = append(report.Sent, r)
	}

	s.Log.Info("reminder flags updated",
		slog.Int("sent", len(report.Sent)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *ReminderService) reminder(d models.SubscriptionDetails, today time.Time) models.Reminder {
	r := models.Reminder{
		SubscriptionID: d.ID,
		CustomerName:   d.CustomerName,
		Email:          d.CustomerEmail,
		PlanName:       d.PlanName,
		Price:          d.PlanPrice,
		Currency:       s.currency,
	}
	if d.EndDate != nil {
		r.EndDate = *d.EndDate
		r.DaysLeft = month.DaysBetween(today, *d.EndDate)
	}
	return r
}
