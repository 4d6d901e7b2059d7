// Package scheduler периодически запускает проверку истекающих подписок.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// Checker проход по истекающим подпискам.
type Checker interface {
	CheckExpiring(ctx context.Context) (*models.ReminderReport, error)
}

// SchedulerService повторяет проверку с фиксированным интервалом.
type SchedulerService struct {
	checker  Checker
	interval time.Duration
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(checker Checker, interval time.Duration, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		checker:  checker,
		interval: interval,
		log:      log,
	}
}

// Run выполняет проверку сразу и затем каждые interval, пока ctx не отменён.
// onReport получает итог каждой успешной проверки, в которой что-то нашлось.
func (s *SchedulerService) Run(ctx context.Context, onReport func(*models.ReminderReport)) {
	s.runCheck(ctx, onReport)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.runCheck(ctx, onReport)
		}
	}
}

func (s *SchedulerService) runCheck(ctx context.Context, onReport func(*models.ReminderReport)) {
	s.log.Info("starting reminder check")
	rep, err := s.checker.CheckExpiring(ctx)
	if err != nil {
		s.log.Error("failed to check expiring subscriptions", sl.Err(err))
		return
	}
	if rep.Checked == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("found expiring subscriptions",
		slog.Int("count", rep.Checked),
		slog.Int("sent", len(rep.Sent)),
		slog.Int("skipped", len(rep.Skipped)),
		slog.Int("failed", len(rep.Failed)),
	)
	if onReport != nil {
		onReport(rep)
	}
}
