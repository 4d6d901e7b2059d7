package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

type planRow struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"`
	Speed          string          `db:"speed"`
	Price          decimal.Decimal `db:"price"`
	Description    sql.NullString  `db:"description"`
	DurationMonths int             `db:"duration_months"`
	CreatedAt      nullTime        `db:"created_at"`
	UpdatedAt      nullTime        `db:"updated_at"`
}

func (r planRow) model() models.Plan {
	return models.Plan{
		ID:             r.ID,
		Name:           r.Name,
		Speed:          r.Speed,
		Price:          r.Price,
		Description:    r.Description.String,
		DurationMonths: r.DurationMonths,
		CreatedAt:      r.CreatedAt.value(),
		UpdatedAt:      r.UpdatedAt.value(),
	}
}

const planColumns = `id, name, speed, price, description, duration_months, created_at, updated_at`

// CreatePlan сохраняет тариф и возвращает его ID.
func (t *Tx) CreatePlan(ctx context.Context, p *models.Plan) (int64, error) {
	const op = "storage.CreatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO plans (name, speed, price, description, duration_months, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  RETURNING id`
	var id int64
	err := t.tx.QueryRowxContext(ctx, t.rebind(query),
		p.Name, p.Speed, p.Price.StringFixed(2), nullString(p.Description), p.DurationMonths,
		timeArg(p.CreatedAt), timeArg(p.UpdatedAt)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	return id, nil
}

// GetPlan возвращает тариф по ID.
func (t *Tx) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var row planRow
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ?`
	if err := t.tx.GetContext(ctx, &row, t.rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: plan %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := row.model()
	return &p, nil
}

// UpdatePlan перезаписывает изменяемые поля тарифа.
func (t *Tx) UpdatePlan(ctx context.Context, p *models.Plan) error {
	const op = "storage.UpdatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE plans
			  SET name = ?, speed = ?, price = ?, description = ?, duration_months = ?, updated_at = ?
			  WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, t.rebind(query),
		p.Name, p.Speed, p.Price.StringFixed(2), nullString(p.Description), p.DurationMonths,
		timeArg(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	return expectOne(res, op, "plan", p.ID)
}

// DeletePlan удаляет тариф. Проверка на наличие подписок лежит на сервисе,
// внешний ключ с RESTRICT страхует от гонок.
func (t *Tx) DeletePlan(ctx context.Context, id int64) error {
	const op = "storage.DeletePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(ctx, t.rebind(`DELETE FROM plans WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOne(res, op, "plan", id)
}

// ListPlans возвращает тарифы по возрастанию цены с числом подписок.
func (t *Tx) ListPlans(ctx context.Context) ([]models.PlanSummary, error) {
	const op = "storage.ListPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT p.id, p.name, p.speed, p.price, p.description, p.duration_months, p.created_at, p.updated_at,
			      (SELECT COUNT(*) FROM subscriptions s WHERE s.plan_id = p.id) AS subscriptions
			  FROM plans p
			  ORDER BY CAST(p.price AS REAL), p.id`
	var rows []struct {
		planRow
		Subscriptions int `db:"subscriptions"`
	}
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.PlanSummary, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.PlanSummary{Plan: r.model(), Subscriptions: r.Subscriptions})
	}
	return result, nil
}

// CountPlanSubscriptions возвращает число подписок тарифа в любом статусе.
func (t *Tx) CountPlanSubscriptions(ctx context.Context, planID int64) (int, error) {
	const op = "storage.CountPlanSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := t.tx.GetContext(ctx, &n, t.rebind(`SELECT COUNT(*) FROM subscriptions WHERE plan_id = ?`), planID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
