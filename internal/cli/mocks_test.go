package cli

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

type CustomersMock struct{ mock.Mock }

func (m *CustomersMock) Create(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

func (m *CustomersMock) Get(ctx context.Context, id int64) (*models.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

func (m *CustomersMock) List(ctx context.Context) ([]models.CustomerSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.CustomerSummary)
	return list, args.Error(1)
}

func (m *CustomersMock) Subscriptions(ctx context.Context, id int64) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]models.SubscriptionDetails)
	return list, args.Error(1)
}

func (m *CustomersMock) Search(ctx context.Context, term string) (*models.SearchResult, error) {
	args := m.Called(ctx, term)
	res, _ := args.Get(0).(*models.SearchResult)
	return res, args.Error(1)
}

func (m *CustomersMock) Update(ctx context.Context, id int64, patch models.CustomerPatch) (*models.Customer, error) {
	args := m.Called(ctx, id, patch)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

func (m *CustomersMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type PlansMock struct{ mock.Mock }

func (m *PlansMock) Create(ctx context.Context, in models.PlanInput) (*models.Plan, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *PlansMock) Get(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *PlansMock) List(ctx context.Context) ([]models.PlanSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.PlanSummary)
	return list, args.Error(1)
}

func (m *PlansMock) Update(ctx context.Context, id int64, patch models.PlanPatch) (*models.Plan, error) {
	args := m.Called(ctx, id, patch)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *PlansMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type SubscriptionsMock struct{ mock.Mock }

func (m *SubscriptionsMock) Create(ctx context.Context, in models.SubscriptionInput) (*models.Subscription, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionsMock) Get(ctx context.Context, id int64) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionsMock) List(ctx context.Context, filter models.StatusFilter) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]models.SubscriptionDetails)
	return list, args.Error(1)
}

func (m *SubscriptionsMock) NeedsExtension(ctx context.Context, id int64, status models.Status) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *SubscriptionsMock) SetStatus(ctx context.Context, id int64, status models.Status, extendMonths int) (*models.Subscription, error) {
	args := m.Called(ctx, id, status, extendMonths)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionsMock) Extend(ctx context.Context, id int64, months int) (*models.Subscription, error) {
	args := m.Called(ctx, id, months)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionsMock) Cancel(ctx context.Context, id int64) (*models.Subscription, bool, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Bool(1), args.Error(2)
}

type RemindersMock struct{ mock.Mock }

func (m *RemindersMock) CheckExpiring(ctx context.Context) (*models.ReminderReport, error) {
	args := m.Called(ctx)
	rep, _ := args.Get(0).(*models.ReminderReport)
	return rep, args.Error(1)
}
