package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// runStorageSuite прогоняет общие проверки хранилища на любом драйвере.
// fresh должен возвращать хранилище с пустыми таблицами.
func runStorageSuite(t *testing.T, fresh func(t *testing.T) *Storage) {
	ctx := context.Background()

	t.Run("customer round trip", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		id := f.customer("John Doe", "JOHN@EXAMPLE.COM", "1234567890")

		inTx(t, s, func(tx *Tx) error {
			c, err := tx.GetCustomer(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "john@example.com", c.Email)
			assert.Equal(t, "1234567890", c.RouterID)
			assert.Empty(t, c.Phone)
			assert.True(t, testNow.Equal(c.CreatedAt))

			require.NoError(t, c.SetPhone("0712345678"))
			c.SetAddress("Mombasa Rd")
			return tx.UpdateCustomer(ctx, c)
		})

		inTx(t, s, func(tx *Tx) error {
			c, err := tx.GetCustomer(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "+254712345678", c.Phone)
			assert.Equal(t, "Mombasa Rd", c.Address)
			return nil
		})
	})

	t.Run("customer unique email and router", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		f.customer("A", "a@example.com", "1111111111")

		for _, c := range []struct{ email, router string }{
			{"a@example.com", "2222222222"},
			{"b@example.com", "1111111111"},
		} {
			dup, err := models.NewCustomer("B", c.email, "", "", c.router)
			require.NoError(t, err)
			err = s.WithinTx(ctx, func(tx *Tx) error {
				_, err := tx.CreateCustomer(ctx, dup)
				return err
			})
			assert.ErrorIs(t, err, models.ErrDuplicate)
		}
	})

	t.Run("missing records", func(t *testing.T) {
		s := fresh(t)
		inTx(t, s, func(tx *Tx) error {
			_, err := tx.GetCustomer(ctx, 42)
			assert.ErrorIs(t, err, models.ErrNotFound)
			_, err = tx.GetPlan(ctx, 42)
			assert.ErrorIs(t, err, models.ErrNotFound)
			_, err = tx.GetSubscription(ctx, 42)
			assert.ErrorIs(t, err, models.ErrNotFound)
			assert.ErrorIs(t, tx.DeleteCustomer(ctx, 42), models.ErrNotFound)
			assert.ErrorIs(t, tx.DeletePlan(ctx, 42), models.ErrNotFound)
			return nil
		})
	})

	t.Run("delete customer removes subscriptions", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		cid := f.customer("A", "a@example.com", "1111111111")
		pid := f.plan("Basic", 2500)
		sid := f.subscription(cid, pid, models.StatusActive, "2024-06-10", "2024-07-10")

		inTx(t, s, func(tx *Tx) error { return tx.DeleteCustomer(ctx, cid) })

		inTx(t, s, func(tx *Tx) error {
			_, err := tx.GetSubscription(ctx, sid)
			assert.ErrorIs(t, err, models.ErrNotFound)
			n, err := tx.CountPlanSubscriptions(ctx, pid)
			require.NoError(t, err)
			assert.Zero(t, n)
			return nil
		})
	})

	t.Run("list customers by name with active counts", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		zed := f.customer("Zed", "z@example.com", "3333333333")
		amy := f.customer("Amy", "amy@example.com", "4444444444")
		pid := f.plan("Basic", 2500)
		f.subscription(amy, pid, models.StatusActive, "2024-06-10", "2024-07-10")
		f.subscription(amy, pid, models.StatusTerminated, "2024-06-10", "2024-07-10")
		f.subscription(zed, pid, models.StatusSuspended, "2024-06-10", "2024-07-10")

		inTx(t, s, func(tx *Tx) error {
			list, err := tx.ListCustomers(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "Amy", list[0].Name)
			assert.Equal(t, 1, list[0].ActiveSubscriptions)
			assert.Equal(t, "Zed", list[1].Name)
			assert.Equal(t, 0, list[1].ActiveSubscriptions)
			return nil
		})
	})

	t.Run("search customers", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		f.customer("John Doe", "john@example.com", "1234567890")
		f.customer("Mary Wanjiku", "mary@isp.co.ke", "5555555555")
		f.customer("Peter 100% Fibre", "peter@example.com", "6666666666")

		inTx(t, s, func(tx *Tx) error {
			cases := map[string]int{
				"JOHN":    1,
				"isp.co":  1,
				"345678":  1,
				"example": 2,
				"100%":    1,
				"%":       1,
				"_":       0,
				"nobody":  0,
				"wanjiku": 1,
			}
			for term, want := range cases {
				got, err := tx.SearchCustomers(ctx, term)
				require.NoError(t, err, term)
				assert.Len(t, got, want, term)
			}
			n, err := tx.CountCustomers(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			return nil
		})
	})

	t.Run("plans ordered by numeric price", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		f.plan("Fibre", 10000)
		basic := f.plan("Basic", 2500)
		f.plan("Home", 3000)
		cid := f.customer("A", "a@example.com", "1111111111")
		f.subscription(cid, basic, models.StatusTerminated, "2024-06-10", "")

		inTx(t, s, func(tx *Tx) error {
			list, err := tx.ListPlans(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []string{"Basic", "Home", "Fibre"}, []string{list[0].Name, list[1].Name, list[2].Name})
			assert.Equal(t, 1, list[0].Subscriptions)
			assert.True(t, decimal.NewFromInt(2500).Equal(list[0].Price))
			return nil
		})
	})

	t.Run("plan update and duplicate name", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		id := f.plan("Basic", 2500)
		f.plan("Home", 3000)

		inTx(t, s, func(tx *Tx) error {
			p, err := tx.GetPlan(ctx, id)
			require.NoError(t, err)
			p.SetDescription("entry level")
			require.NoError(t, p.SetDuration(3))
			return tx.UpdatePlan(ctx, p)
		})
		inTx(t, s, func(tx *Tx) error {
			p, err := tx.GetPlan(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "entry level", p.Description)
			assert.Equal(t, 3, p.DurationMonths)
			return nil
		})

		err := s.WithinTx(ctx, func(tx *Tx) error {
			p, err := tx.GetPlan(ctx, id)
			require.NoError(t, err)
			p.Name = "Home"
			return tx.UpdatePlan(ctx, p)
		})
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})

	t.Run("plan delete restricted by subscriptions", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		used := f.plan("Basic", 2500)
		unused := f.plan("Home", 3000)
		cid := f.customer("A", "a@example.com", "1111111111")
		f.subscription(cid, used, models.StatusTerminated, "2024-06-10", "")

		err := s.WithinTx(ctx, func(tx *Tx) error { return tx.DeletePlan(ctx, used) })
		assert.Error(t, err)

		inTx(t, s, func(tx *Tx) error { return tx.DeletePlan(ctx, unused) })
	})

	t.Run("list subscriptions by filter", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		cid := f.customer("A", "a@example.com", "1111111111")
		pid := f.plan("Basic", 2500)
		future := f.subscription(cid, pid, models.StatusActive, "2024-06-01", "2024-07-10")
		past := f.subscription(cid, pid, models.StatusActive, "2024-05-01", "2024-06-01")
		open := f.subscription(cid, pid, models.StatusActive, "2024-04-01", "")
		suspended := f.subscription(cid, pid, models.StatusSuspended, "2024-03-01", "2024-07-01")
		endsToday := f.subscription(cid, pid, models.StatusActive, "2024-05-10", "2024-06-10")
		today := f.date("2024-06-10")

		ids := func(list []models.SubscriptionDetails) []int64 {
			out := make([]int64, 0, len(list))
			for _, d := range list {
				out = append(out, d.ID)
			}
			return out
		}

		inTx(t, s, func(tx *Tx) error {
			active, err := tx.ListSubscriptions(ctx, models.FilterActive, today)
			require.NoError(t, err)
			assert.Equal(t, []int64{open, endsToday, future}, ids(active))
			for _, d := range active {
				if d.EndDate != nil {
					assert.False(t, d.EndDate.Before(today))
				}
			}

			expired, err := tx.ListSubscriptions(ctx, models.FilterExpired, today)
			require.NoError(t, err)
			assert.Equal(t, []int64{past}, ids(expired))

			all, err := tx.ListSubscriptions(ctx, models.FilterAll, today)
			require.NoError(t, err)
			assert.Equal(t, []int64{suspended, open, past, endsToday, future}, ids(all))

			assert.Equal(t, "A", all[0].CustomerName)
			assert.Equal(t, "Basic", all[0].PlanName)
			assert.Equal(t, "10 Mbps", all[0].PlanSpeed)

			mine, err := tx.ListCustomerSubscriptions(ctx, cid)
			require.NoError(t, err)
			assert.Len(t, mine, 5)
			return nil
		})
	})

	t.Run("subscription update keeps calendar dates", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		cid := f.customer("A", "a@example.com", "1111111111")
		pid := f.plan("Basic", 2500)
		sid := f.subscription(cid, pid, models.StatusActive, "2024-01-31", "2024-02-29")

		inTx(t, s, func(tx *Tx) error {
			sub, err := tx.GetSubscription(ctx, sid)
			require.NoError(t, err)
			assert.Equal(t, f.date("2024-01-31"), sub.StartDate)
			require.NoError(t, sub.Extend(1))
			sub.Status = models.StatusSuspended
			sub.UpdatedAt = testNow
			return tx.UpdateSubscription(ctx, sub)
		})

		inTx(t, s, func(tx *Tx) error {
			sub, err := tx.GetSubscription(ctx, sid)
			require.NoError(t, err)
			require.NotNil(t, sub.EndDate)
			assert.Equal(t, f.date("2024-03-31"), *sub.EndDate)
			assert.Equal(t, models.StatusSuspended, sub.Status)
			return nil
		})
	})

	t.Run("expiring window and reminder marks", func(t *testing.T) {
		s := fresh(t)
		f := newTestDataFactory(t, s)
		cid := f.customer("A", "a@example.com", "1111111111")
		pid := f.plan("Basic", 2500)
		soon := f.subscription(cid, pid, models.StatusActive, "2024-05-12", "2024-06-12")
		edge := f.subscription(cid, pid, models.StatusActive, "2024-05-17", "2024-06-17")
		f.subscription(cid, pid, models.StatusActive, "2024-05-18", "2024-06-18")
		f.subscription(cid, pid, models.StatusSuspended, "2024-05-12", "2024-06-12")
		f.subscription(cid, pid, models.StatusActive, "2024-05-09", "2024-06-09")
		today := f.date("2024-06-10")
		deadline := f.date("2024-06-17")

		inTx(t, s, func(tx *Tx) error {
			list, err := tx.ListExpiring(ctx, today, deadline)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, soon, list[0].ID)
			assert.Equal(t, edge, list[1].ID)
			assert.Equal(t, "a@example.com", list[0].CustomerEmail)
			return tx.MarkReminderSent(ctx, soon, today)
		})

		inTx(t, s, func(tx *Tx) error {
			list, err := tx.ListExpiring(ctx, today, deadline)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, edge, list[0].ID)

			tomorrow := today.AddDate(0, 0, 1)
			list, err = tx.ListExpiring(ctx, tomorrow, tomorrow.AddDate(0, 0, 7))
			require.NoError(t, err)
			assert.Len(t, list, 3, "yesterday's mark does not block today's reminder")
			return nil
		})
	})

	t.Run("failed unit of work leaves no rows", func(t *testing.T) {
		s := fresh(t)
		boom := errors.New("boom")

		err := s.WithinTx(ctx, func(tx *Tx) error {
			c, err := models.NewCustomer("A", "a@example.com", "", "", "1111111111")
			require.NoError(t, err)
			if _, err := tx.CreateCustomer(ctx, c); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		assert.Panics(t, func() {
			_ = s.WithinTx(ctx, func(tx *Tx) error {
				c, err := models.NewCustomer("B", "b@example.com", "", "", "2222222222")
				require.NoError(t, err)
				if _, err := tx.CreateCustomer(ctx, c); err != nil {
					return err
				}
				panic("unexpected")
			})
		})

		inTx(t, s, func(tx *Tx) error {
			n, err := tx.CountCustomers(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			return nil
		})
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := fresh(t)
		cctx, cancel := context.WithCancel(ctx)
		inTx(t, s, func(tx *Tx) error {
			cancel()
			_, err := tx.GetCustomer(cctx, 1)
			assert.ErrorIs(t, err, context.Canceled)
			return nil
		})
	})
}
