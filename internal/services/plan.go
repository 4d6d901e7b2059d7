package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/isp-manager/internal/cache"
	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

// PlanService управляет тарифами.
type PlanService struct {
	base
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(d Deps) *PlanService {
	return &PlanService{base: newBase(d)}
}

// Create проверяет ввод и сохраняет тариф.
func (s *PlanService) Create(ctx context.Context, in models.PlanInput) (*models.Plan, error) {
	const op = "services.PlanService.Create"

	if errs := s.Validator.ValidatePlan(in.Name, in.Speed, in.Price, in.Duration); len(errs) > 0 {
		return nil, errs
	}
	price, duration := parsePlanNumbers(in.Price, in.Duration)

	p, err := models.NewPlan(in.Name, in.Speed, price, in.Description, duration, s.Validator.Prices())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	err = s.Tx.WithinTx(ctx, func(repo Repository) error {
		id, err := repo.CreatePlan(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("plan created", slog.Int64("id", p.ID), slog.String("name", p.Name))
	s.cacheSet(cache.PlanKey(p.ID), p)
	return p, nil
}

// Get возвращает тариф по ID, сначала из кеша.
func (s *PlanService) Get(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "services.PlanService.Get"

	var cached models.Plan
	if s.cacheGet(cache.PlanKey(id), &cached) {
		return &cached, nil
	}

	var p *models.Plan
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		p, err = repo.GetPlan(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(cache.PlanKey(id), p)
	return p, nil
}

// List возвращает тарифы по возрастанию цены.
func (s *PlanService) List(ctx context.Context) ([]models.PlanSummary, error) {
	const op = "services.PlanService.List"

	var list []models.PlanSummary
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		list, err = repo.ListPlans(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Update применяет изменения тарифа после проверки итоговых значений.
func (s *PlanService) Update(ctx context.Context, id int64, patch models.PlanPatch) (*models.Plan, error) {
	const op = "services.PlanService.Update"

	var p *models.Plan
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		p, err = repo.GetPlan(ctx, id)
		if err != nil {
			return err
		}

		name := pick(patch.Name, p.Name)
		speed := pick(patch.Speed, p.Speed)
		rawPrice := pick(patch.Price, p.Price.String())
		rawDuration := pick(patch.Duration, fmt.Sprint(p.DurationMonths))
		if errs := s.Validator.ValidatePlan(name, speed, rawPrice, rawDuration); len(errs) > 0 {
			return errs
		}
		price, duration := parsePlanNumbers(rawPrice, rawDuration)

		if err := p.SetName(name); err != nil {
			return err
		}
		if err := p.SetSpeed(speed); err != nil {
			return err
		}
		if err := p.SetPrice(price, s.Validator.Prices()); err != nil {
			return err
		}
		if err := p.SetDuration(duration); err != nil {
			return err
		}
		if patch.Description != nil {
			p.SetDescription(*patch.Description)
		}
		p.UpdatedAt = s.Now()
		return repo.UpdatePlan(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("plan updated", slog.Int64("id", id))
	s.cacheInvalidate(cache.PlanKey(id))
	return p, nil
}

// Delete удаляет тариф, если на него нет ни одной подписки.
func (s *PlanService) Delete(ctx context.Context, id int64) error {
	const op = "services.PlanService.Delete"

	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		if _, err := repo.GetPlan(ctx, id); err != nil {
			return err
		}
		n, err := repo.CountPlanSubscriptions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w (%d)", ErrPlanInUse, n)
		}
		return repo.DeletePlan(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("plan deleted", slog.Int64("id", id))
	s.cacheInvalidate(cache.PlanKey(id))
	return nil
}

// parsePlanNumbers разбирает уже проверенные цену и длительность.
func parsePlanNumbers(rawPrice, rawDuration string) (decimal.Decimal, int) {
	price, _ := decimal.NewFromString(strings.TrimSpace(rawPrice))
	duration := 1
	if n, ok := validation.ParsePositiveInt(rawDuration); ok {
		duration = n
	}
	return price, duration
}
