// Package report выгружает абонентов, тарифы и подписки в книгу Excel.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// Названия листов книги.
const (
	SheetCustomers     = "Customers"
	SheetPlans         = "Plans"
	SheetSubscriptions = "Subscriptions"
)

// Data строки, попадающие в выгрузку.
type Data struct {
	Customers     []models.CustomerSummary
	Plans         []models.PlanSummary
	Subscriptions []models.SubscriptionDetails
}

var (
	customerHeader     = []string{"id", "name", "email", "phone", "address", "router_id", "active_subscriptions", "created_at"}
	planHeader         = []string{"id", "name", "speed", "price", "duration_months", "description", "subscriptions"}
	subscriptionHeader = []string{"id", "customer", "plan", "speed", "price", "router_id", "status", "start_date", "end_date", "days_left"}
)

// Export пишет книгу xlsx с тремя листами в w. today нужен для расчёта
// оставшихся дней и логически истёкших подписок.
func Export(w io.Writer, data Data, today time.Time) error {
	const op = "report.Export"

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), SheetCustomers); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, name := range []string{SheetPlans, SheetSubscriptions} {
		if _, err := xl.NewSheet(name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	customers := make([][]any, 0, len(data.Customers))
	for _, c := range data.Customers {
		customers = append(customers, []any{
			c.ID, c.Name, c.Email, c.Phone, c.Address, c.RouterID, c.ActiveSubscriptions,
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	plans := make([][]any, 0, len(data.Plans))
	for _, p := range data.Plans {
		price, _ := p.Price.Float64()
		plans = append(plans, []any{
			p.ID, p.Name, p.Speed, price, p.DurationMonths, p.Description, p.Subscriptions,
		})
	}
	subs := make([][]any, 0, len(data.Subscriptions))
	for _, s := range data.Subscriptions {
		price, _ := s.PlanPrice.Float64()
		end, daysLeft := "", ""
		if days, ok := s.DaysRemaining(today); ok {
			end = s.EndDate.Format(time.DateOnly)
			daysLeft = strconv.Itoa(days)
		}
		subs = append(subs, []any{
			s.ID, s.CustomerName, s.PlanName, s.PlanSpeed, price, s.RouterID,
			string(DisplayStatus(&s.Subscription, today)), s.StartDate.Format(time.DateOnly), end, daysLeft,
		})
	}

	for _, sheet := range []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{SheetCustomers, customerHeader, customers},
		{SheetPlans, planHeader, plans},
		{SheetSubscriptions, subscriptionHeader, subs},
	} {
		if err := writeSheet(xl, sheet.name, sheet.header, sheet.rows); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DisplayStatus возвращает статус с учётом логического истечения:
// активная подписка с прошедшей датой окончания показывается как expired.
func DisplayStatus(s *models.Subscription, today time.Time) models.Status {
	if s.IsExpired(today) {
		return models.StatusExpired
	}
	return s.Status
}

func writeSheet(xl *excelize.File, name string, header []string, rows [][]any) error {
	if err := xl.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xl.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
