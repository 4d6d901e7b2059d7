package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateCustomer(ctx context.Context, c *models.Customer) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
func (m *RepoMock) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *RepoMock) DeleteCustomer(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) ListCustomers(ctx context.Context) ([]models.CustomerSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CustomerSummary), args.Error(1)
}
func (m *RepoMock) SearchCustomers(ctx context.Context, term string) ([]models.Customer, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Customer), args.Error(1)
}
func (m *RepoMock) CountCustomers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) CreatePlan(ctx context.Context, p *models.Plan) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *RepoMock) UpdatePlan(ctx context.Context, p *models.Plan) error {
	return m.Called(ctx, p).Error(0)
}
func (m *RepoMock) DeletePlan(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) ListPlans(ctx context.Context) ([]models.PlanSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlanSummary), args.Error(1)
}
func (m *RepoMock) CountPlanSubscriptions(ctx context.Context, planID int64) (int, error) {
	args := m.Called(ctx, planID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) CreateSubscription(ctx context.Context, s *models.Subscription) (int64, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetSubscription(ctx context.Context, id int64) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) UpdateSubscription(ctx context.Context, s *models.Subscription) error {
	return m.Called(ctx, s).Error(0)
}
func (m *RepoMock) ListSubscriptions(ctx context.Context, filter models.StatusFilter, today time.Time) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, filter, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscriptionDetails), args.Error(1)
}
func (m *RepoMock) ListCustomerSubscriptions(ctx context.Context, customerID int64) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscriptionDetails), args.Error(1)
}
func (m *RepoMock) ListExpiring(ctx context.Context, from, to time.Time) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscriptionDetails), args.Error(1)
}
func (m *RepoMock) MarkReminderSent(ctx context.Context, id int64, day time.Time) error {
	return m.Called(ctx, id, day).Error(0)
}

// txStub выполняет единицу работы на моке без настоящей транзакции.
type txStub struct{ repo Repository }

func (t txStub) WithinTx(_ context.Context, fn func(repo Repository) error) error {
	return fn(t.repo)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(ctx context.Context, r models.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

// fixedNow 10 июня 2024, 09:30 UTC.
var fixedNow = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newDeps(repo *RepoMock, cache *CacheMock) Deps {
	return Deps{
		Tx:        txStub{repo: repo},
		Cache:     cache,
		Validator: validation.New(models.NewPriceRange(2000, 100000)),
		Log:       newNoopLogger(),
		Now:       func() time.Time { return fixedNow },
		CacheTTL:  time.Hour,
	}
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}
