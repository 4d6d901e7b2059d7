package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

type subscriptionRow struct {
	ID               int64    `db:"id"`
	CustomerID       int64    `db:"customer_id"`
	PlanID           int64    `db:"plan_id"`
	RouterID         string   `db:"router_id"`
	Status           string   `db:"status"`
	StartDate        nullTime `db:"start_date"`
	EndDate          nullTime `db:"end_date"`
	LastReminderSent nullTime `db:"last_reminder_sent"`
	CreatedAt        nullTime `db:"created_at"`
	UpdatedAt        nullTime `db:"updated_at"`
}

func (r subscriptionRow) model() models.Subscription {
	s := models.Subscription{
		ID:               r.ID,
		CustomerID:       r.CustomerID,
		PlanID:           r.PlanID,
		RouterID:         r.RouterID,
		Status:           models.Status(r.Status),
		EndDate:          r.EndDate.date(),
		LastReminderSent: r.LastReminderSent.timestamp(),
		CreatedAt:        r.CreatedAt.value(),
		UpdatedAt:        r.UpdatedAt.value(),
	}
	if d := r.StartDate.date(); d != nil {
		s.StartDate = *d
	}
	return s
}

type subscriptionDetailsRow struct {
	subscriptionRow
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
	PlanName      string          `db:"plan_name"`
	PlanSpeed     string          `db:"plan_speed"`
	PlanPrice     decimal.Decimal `db:"plan_price"`
}

func (r subscriptionDetailsRow) model() models.SubscriptionDetails {
	return models.SubscriptionDetails{
		Subscription:  r.subscriptionRow.model(),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		PlanName:      r.PlanName,
		PlanSpeed:     r.PlanSpeed,
		PlanPrice:     r.PlanPrice,
	}
}

const subscriptionColumns = `id, customer_id, plan_id, router_id, status, start_date, end_date,
	last_reminder_sent, created_at, updated_at`

const detailsSelect = `SELECT s.id, s.customer_id, s.plan_id, s.router_id, s.status, s.start_date, s.end_date,
	    s.last_reminder_sent, s.created_at, s.updated_at,
	    c.name AS customer_name, c.email AS customer_email,
	    p.name AS plan_name, p.speed AS plan_speed, p.price AS plan_price
	FROM subscriptions s
	JOIN customers c ON c.id = s.customer_id
	JOIN plans p ON p.id = s.plan_id`

// CreateSubscription сохраняет подписку и возвращает её ID.
func (t *Tx) CreateSubscription(ctx context.Context, s *models.Subscription) (int64, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO subscriptions (customer_id, plan_id, router_id, status, start_date, end_date,
			      created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  RETURNING id`
	var id int64
	err := t.tx.QueryRowxContext(ctx, t.rebind(query),
		s.CustomerID, s.PlanID, s.RouterID, string(s.Status), dateArg(s.StartDate), nullDateArg(s.EndDate),
		timeArg(s.CreatedAt), timeArg(s.UpdatedAt)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	return id, nil
}

// GetSubscription возвращает подписку по ID.
func (t *Tx) GetSubscription(ctx context.Context, id int64) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var row subscriptionRow
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ?`
	if err := t.tx.GetContext(ctx, &row, t.rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: subscription %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s := row.model()
	return &s, nil
}

// UpdateSubscription сохраняет статус и даты подписки.
func (t *Tx) UpdateSubscription(ctx context.Context, s *models.Subscription) error {
	const op = "storage.UpdateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE subscriptions
			  SET status = ?, start_date = ?, end_date = ?, updated_at = ?
			  WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, t.rebind(query),
		string(s.Status), dateArg(s.StartDate), nullDateArg(s.EndDate), timeArg(s.UpdatedAt), s.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOne(res, op, "subscription", s.ID)
}

// ListSubscriptions возвращает подписки по фильтру, упорядоченные по дате начала.
// active: статус active и окончание не раньше today (или не задано);
// expired: статус active и окончание раньше today; all: без условий.
func (t *Tx) ListSubscriptions(ctx context.Context, filter models.StatusFilter, today time.Time) ([]models.SubscriptionDetails, error) {
	const op = "storage.ListSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := detailsSelect
	var args []any
	switch filter {
	case models.FilterActive:
		query += ` WHERE s.status = 'active' AND (s.end_date IS NULL OR s.end_date >= ?)`
		args = append(args, dateArg(today))
	case models.FilterExpired:
		query += ` WHERE s.status = 'active' AND s.end_date < ?`
		args = append(args, dateArg(today))
	case models.FilterAll:
	default:
		return nil, fmt.Errorf("%s: unknown filter %q", op, filter)
	}
	query += ` ORDER BY s.start_date, s.id`

	return t.selectDetails(ctx, op, query, args...)
}

// ListCustomerSubscriptions возвращает все подписки абонента.
func (t *Tx) ListCustomerSubscriptions(ctx context.Context, customerID int64) ([]models.SubscriptionDetails, error) {
	const op = "storage.ListCustomerSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := detailsSelect + ` WHERE s.customer_id = ? ORDER BY s.start_date, s.id`
	return t.selectDetails(ctx, op, query, customerID)
}

// ListExpiring возвращает активные подписки с окончанием в [from, to],
// по которым напоминание ещё не отправлялось начиная с from.
func (t *Tx) ListExpiring(ctx context.Context, from, to time.Time) ([]models.SubscriptionDetails, error) {
	const op = "storage.ListExpiring"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := detailsSelect + `
		WHERE s.status = 'active'
		  AND s.end_date BETWEEN ? AND ?
		  AND (s.last_reminder_sent IS NULL OR s.last_reminder_sent < ?)
		ORDER BY s.end_date, s.id`
	return t.selectDetails(ctx, op, query, dateArg(from), dateArg(to), dateArg(from))
}

// MarkReminderSent отмечает дату отправки напоминания.
func (t *Tx) MarkReminderSent(ctx context.Context, id int64, day time.Time) error {
	const op = "storage.MarkReminderSent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(ctx, t.rebind(`UPDATE subscriptions SET last_reminder_sent = ? WHERE id = ?`),
		dateArg(day), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOne(res, op, "subscription", id)
}

func (t *Tx) selectDetails(ctx context.Context, op, query string, args ...any) ([]models.SubscriptionDetails, error) {
	var rows []subscriptionDetailsRow
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := make([]models.SubscriptionDetails, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.model())
	}
	return result, nil
}
