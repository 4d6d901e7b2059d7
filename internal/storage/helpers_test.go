package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
	"github.com/magabrotheeeer/isp-manager/internal/models"
)

var testNow = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func newSQLiteStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// testDataFactory создаёт тестовые записи в отдельных транзакциях.
type testDataFactory struct {
	t *testing.T
	s *Storage
}

func newTestDataFactory(t *testing.T, s *Storage) *testDataFactory {
	return &testDataFactory{t: t, s: s}
}

func (f *testDataFactory) customer(name, email, routerID string) int64 {
	f.t.Helper()
	c, err := models.NewCustomer(name, email, "", "", routerID)
	require.NoError(f.t, err)
	c.CreatedAt, c.UpdatedAt = testNow, testNow

	var id int64
	require.NoError(f.t, f.s.WithinTx(context.Background(), func(tx *Tx) error {
		id, err = tx.CreateCustomer(context.Background(), c)
		return err
	}))
	return id
}

func (f *testDataFactory) plan(name string, price int64) int64 {
	f.t.Helper()
	p, err := models.NewPlan(name, "10 Mbps", decimal.NewFromInt(price), "", 1, models.NewPriceRange(1, 1000000))
	require.NoError(f.t, err)
	p.CreatedAt, p.UpdatedAt = testNow, testNow

	var id int64
	require.NoError(f.t, f.s.WithinTx(context.Background(), func(tx *Tx) error {
		id, err = tx.CreatePlan(context.Background(), p)
		return err
	}))
	return id
}

// subscription вставляет подписку с произвольными датами, минуя проверку даты начала.
func (f *testDataFactory) subscription(customerID, planID int64, status models.Status, start string, end string) int64 {
	f.t.Helper()
	s := &models.Subscription{
		CustomerID: customerID,
		PlanID:     planID,
		RouterID:   "1234567890",
		Status:     status,
		StartDate:  f.date(start),
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
	if end != "" {
		d := f.date(end)
		s.EndDate = &d
	}

	var id int64
	require.NoError(f.t, f.s.WithinTx(context.Background(), func(tx *Tx) error {
		var err error
		id, err = tx.CreateSubscription(context.Background(), s)
		return err
	}))
	return id
}

func (f *testDataFactory) date(s string) time.Time {
	f.t.Helper()
	d, err := month.Parse(s)
	require.NoError(f.t, err)
	return d
}

// inTx выполняет fn в транзакции и падает при ошибке.
func inTx(t *testing.T, s *Storage, fn func(tx *Tx) error) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), fn))
}
