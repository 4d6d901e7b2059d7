package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/isp-manager/internal/cache"
	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

// SubscriptionService реализует жизненный цикл подписок.
type SubscriptionService struct {
	base
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(d Deps) *SubscriptionService {
	return &SubscriptionService{base: newBase(d)}
}

// Create оформляет подписку абонента на тариф. Пустая длительность берётся
// из тарифа, пустая дата начала означает сегодня. Идентификатор роутера
// копируется из абонента.
func (s *SubscriptionService) Create(ctx context.Context, in models.SubscriptionInput) (*models.Subscription, error) {
	const op = "services.SubscriptionService.Create"

	errs := s.Validator.ValidateSubscription(in.CustomerID, in.PlanID, in.Duration)
	today := s.today()
	start := today
	if raw := strings.TrimSpace(in.StartDate); raw != "" {
		parsed, err := month.Parse(raw)
		if err != nil {
			errs = append(errs, "Start date must be YYYY-MM-DD")
		}
		start = parsed
	}
	if len(errs) > 0 {
		return nil, errs
	}
	customerID, _ := validation.ParsePositiveInt(in.CustomerID)
	planID, _ := validation.ParsePositiveInt(in.PlanID)

	var sub *models.Subscription
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		customer, err := repo.GetCustomer(ctx, int64(customerID))
		if err != nil {
			return err
		}
		plan, err := repo.GetPlan(ctx, int64(planID))
		if err != nil {
			return err
		}

		months := plan.DurationMonths
		if n, ok := validation.ParsePositiveInt(in.Duration); ok {
			months = n
		}
		sub, err = models.NewSubscription(customer.ID, plan.ID, customer.RouterID, start, months, today)
		if err != nil {
			return err
		}
		now := s.Now()
		sub.CreatedAt, sub.UpdatedAt = now, now

		id, err := repo.CreateSubscription(ctx, sub)
		if err != nil {
			return err
		}
		sub.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("subscription created",
		slog.Int64("id", sub.ID),
		slog.Int64("customer_id", sub.CustomerID),
		slog.Int64("plan_id", sub.PlanID),
		slog.String("end_date", sub.EndDate.Format("2006-01-02")),
	)
	s.cacheSet(cache.SubscriptionKey(sub.ID), sub)
	return sub, nil
}

// Get возвращает подписку по ID, сначала из кеша.
func (s *SubscriptionService) Get(ctx context.Context, id int64) (*models.Subscription, error) {
	const op = "services.SubscriptionService.Get"

	var cached models.Subscription
	if s.cacheGet(cache.SubscriptionKey(id), &cached) {
		return &cached, nil
	}

	var sub *models.Subscription
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		sub, err = repo.GetSubscription(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(cache.SubscriptionKey(id), sub)
	return sub, nil
}

// List возвращает подписки по фильтру active, expired или all.
func (s *SubscriptionService) List(ctx context.Context, filter models.StatusFilter) ([]models.SubscriptionDetails, error) {
	const op = "services.SubscriptionService.List"

	today := s.today()
	var list []models.SubscriptionDetails
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		list, err = repo.ListSubscriptions(ctx, filter, today)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// NeedsExtension сообщает, нужно ли при переводе в status спросить о продлении:
// подписка активируется, а её дата окончания уже прошла.
func (s *SubscriptionService) NeedsExtension(ctx context.Context, id int64, status models.Status) (bool, error) {
	const op = "services.SubscriptionService.NeedsExtension"

	var needs bool
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		sub, err := repo.GetSubscription(ctx, id)
		if err != nil {
			return err
		}
		needs = sub.NeedsReactivationExtension(status, s.today())
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return needs, nil
}

// SetStatus меняет статус. extendMonths учитывается только при активации
// подписки с прошедшей датой окончания: окончание становится today + extendMonths.
func (s *SubscriptionService) SetStatus(ctx context.Context, id int64, status models.Status, extendMonths int) (*models.Subscription, error) {
	const op = "services.SubscriptionService.SetStatus"

	sub, err := s.mutate(ctx, id, func(sub *models.Subscription) (bool, error) {
		return true, sub.SetStatus(status, s.today(), extendMonths)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.Log.Info("subscription status changed", slog.Int64("id", id), slog.String("status", string(status)))
	return sub, nil
}

// Extend продлевает подписку на months календарных месяцев от текущей даты окончания.
func (s *SubscriptionService) Extend(ctx context.Context, id int64, months int) (*models.Subscription, error) {
	const op = "services.SubscriptionService.Extend"

	sub, err := s.mutate(ctx, id, func(sub *models.Subscription) (bool, error) {
		return true, sub.Extend(months)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.Log.Info("subscription extended", slog.Int64("id", id), slog.Int("months", months))
	return sub, nil
}

// Cancel переводит подписку в terminated. Строка не удаляется.
// changed=false, если подписка уже была отменена.
func (s *SubscriptionService) Cancel(ctx context.Context, id int64) (sub *models.Subscription, changed bool, err error) {
	const op = "services.SubscriptionService.Cancel"

	sub, err = s.mutate(ctx, id, func(sub *models.Subscription) (bool, error) {
		changed = sub.Cancel()
		return changed, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if changed {
		s.Log.Info("subscription cancelled", slog.Int64("id", id))
	}
	return sub, changed, nil
}

// mutate загружает подписку, применяет fn и сохраняет результат в одной транзакции.
// Если fn сообщает, что ничего не изменилось, запись не перезаписывается.
func (s *SubscriptionService) mutate(ctx context.Context, id int64, fn func(sub *models.Subscription) (bool, error)) (*models.Subscription, error) {
	var sub *models.Subscription
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		sub, err = repo.GetSubscription(ctx, id)
		if err != nil {
			return err
		}
		changed, err := fn(sub)
		if err != nil || !changed {
			return err
		}
		sub.UpdatedAt = s.Now()
		return repo.UpdateSubscription(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	s.cacheInvalidate(cache.SubscriptionKey(id))
	return sub, nil
}
