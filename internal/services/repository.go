// Package services содержит бизнес-логику: правила ввода, жизненный цикл
// подписок и рассылку напоминаний. Сервисы не форматируют вывод, они
// возвращают сущности, списки ошибок и отчёты.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// ErrPlanInUse тариф нельзя удалить, пока на него ссылаются подписки.
var ErrPlanInUse = errors.New("cannot delete: plan has subscriptions")

// Repository операции хранилища внутри одной единицы работы.
type Repository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) (int64, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomers(ctx context.Context) ([]models.CustomerSummary, error)
	SearchCustomers(ctx context.Context, term string) ([]models.Customer, error)
	CountCustomers(ctx context.Context) (int, error)

	CreatePlan(ctx context.Context, p *models.Plan) (int64, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	UpdatePlan(ctx context.Context, p *models.Plan) error
	DeletePlan(ctx context.Context, id int64) error
	ListPlans(ctx context.Context) ([]models.PlanSummary, error)
	CountPlanSubscriptions(ctx context.Context, planID int64) (int, error)

	CreateSubscription(ctx context.Context, s *models.Subscription) (int64, error)
	GetSubscription(ctx context.Context, id int64) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, s *models.Subscription) error
	ListSubscriptions(ctx context.Context, filter models.StatusFilter, today time.Time) ([]models.SubscriptionDetails, error)
	ListCustomerSubscriptions(ctx context.Context, customerID int64) ([]models.SubscriptionDetails, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]models.SubscriptionDetails, error)
	MarkReminderSent(ctx context.Context, id int64, day time.Time) error
}

// Transactor выполняет fn в транзакции: коммит при успехе, откат при ошибке.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Notifier передаёт напоминание во внешнюю доставку.
type Notifier interface {
	Notify(ctx context.Context, r models.Reminder) error
}

// Clock возвращает текущее время. В тестах подменяется фиксированным.
type Clock func() time.Time
