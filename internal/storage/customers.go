package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

type customerRow struct {
	ID        int64          `db:"id"`
	RouterID  string         `db:"router_id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Address   sql.NullString `db:"address"`
	CreatedAt nullTime       `db:"created_at"`
	UpdatedAt nullTime       `db:"updated_at"`
}

func (r customerRow) model() models.Customer {
	return models.Customer{
		ID:        r.ID,
		RouterID:  r.RouterID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone.String,
		Address:   r.Address.String,
		CreatedAt: r.CreatedAt.value(),
		UpdatedAt: r.UpdatedAt.value(),
	}
}

const customerColumns = `id, router_id, name, email, phone, address, created_at, updated_at`

// CreateCustomer сохраняет абонента и возвращает его ID.
func (t *Tx) CreateCustomer(ctx context.Context, c *models.Customer) (int64, error) {
	const op = "storage.CreateCustomer"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO customers (router_id, name, email, phone, address, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  RETURNING id`
	var id int64
	err := t.tx.QueryRowxContext(ctx, t.rebind(query),
		c.RouterID, c.Name, c.Email, nullString(c.Phone), nullString(c.Address),
		timeArg(c.CreatedAt), timeArg(c.UpdatedAt)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	return id, nil
}

// GetCustomer возвращает абонента по ID.
func (t *Tx) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	const op = "storage.GetCustomer"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var row customerRow
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	if err := t.tx.GetContext(ctx, &row, t.rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: customer %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c := row.model()
	return &c, nil
}

// UpdateCustomer перезаписывает изменяемые поля абонента.
func (t *Tx) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	const op = "storage.UpdateCustomer"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE customers
			  SET name = ?, email = ?, phone = ?, address = ?, updated_at = ?
			  WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, t.rebind(query),
		c.Name, c.Email, nullString(c.Phone), nullString(c.Address), timeArg(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	return expectOne(res, op, "customer", c.ID)
}

// DeleteCustomer удаляет абонента вместе с его подписками.
func (t *Tx) DeleteCustomer(ctx context.Context, id int64) error {
	const op = "storage.DeleteCustomer"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx, t.rebind(`DELETE FROM subscriptions WHERE customer_id = ?`), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := t.tx.ExecContext(ctx, t.rebind(`DELETE FROM customers WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOne(res, op, "customer", id)
}

// ListCustomers возвращает абонентов по имени с числом активных подписок.
func (t *Tx) ListCustomers(ctx context.Context) ([]models.CustomerSummary, error) {
	const op = "storage.ListCustomers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT c.id, c.router_id, c.name, c.email, c.phone, c.address, c.created_at, c.updated_at,
			      (SELECT COUNT(*) FROM subscriptions s
			       WHERE s.customer_id = c.id AND s.status = 'active') AS active_subscriptions
			  FROM customers c
			  ORDER BY c.name, c.id`
	var rows []struct {
		customerRow
		ActiveSubscriptions int `db:"active_subscriptions"`
	}
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.CustomerSummary, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.CustomerSummary{
			Customer:            r.model(),
			ActiveSubscriptions: r.ActiveSubscriptions,
		})
	}
	return result, nil
}

// SearchCustomers ищет подстроку без учёта регистра в имени, email и ID роутера.
func (t *Tx) SearchCustomers(ctx context.Context, term string) ([]models.Customer, error) {
	const op = "storage.SearchCustomers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := `SELECT ` + customerColumns + ` FROM customers
			  WHERE LOWER(name) LIKE ? ESCAPE '\'
			     OR LOWER(email) LIKE ? ESCAPE '\'
			     OR router_id LIKE ? ESCAPE '\'
			  ORDER BY name, id`
	var rows []customerRow
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query), pattern, pattern, pattern); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.Customer, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.model())
	}
	return result, nil
}

// CountCustomers возвращает общее число абонентов.
func (t *Tx) CountCustomers(ctx context.Context) (int, error) {
	const op = "storage.CountCustomers"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := t.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers`); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func expectOne(res sql.Result, op, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %s %d: %w", op, entity, id, models.ErrNotFound)
	}
	return nil
}
