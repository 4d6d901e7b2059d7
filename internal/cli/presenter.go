package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/report"
	"github.com/magabrotheeeer/isp-manager/internal/services"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

const rule = "------------------------------------------------------------"

// errNeedsConfirmation удаление без терминала требует флага --yes.
var errNeedsConfirmation = errors.New("confirmation required")

// refusals ошибки, которые показываются оператору как отказ, без записи в лог.
var refusals = []struct {
	err error
	msg string
}{
	{models.ErrNotFound, "Record not found"},
	{models.ErrDuplicate, "Record already exists: email, router ID and plan name must be unique"},
	{services.ErrPlanInUse, "Cannot delete - plan has subscriptions"},
	{models.ErrNoEndDate, "Cannot extend - subscription has no end date"},
	{models.ErrInvalidExtension, "Must extend by at least 1 month"},
	{models.ErrInvalidSubscriptionDate, "Start date cannot be in the past"},
	{models.ErrInvalidStatus, "Invalid status: use active, suspended or terminated"},
	{models.ErrInvalidEmail, "Valid email is required"},
	{models.ErrInvalidPhone, "Invalid phone: use +2547XXXXXXXX or 07XXXXXXXX"},
	{models.ErrInvalidSpeed, "Speed must be like '10 Mbps' or '1 Gbps'"},
	{models.ErrInvalidRouterID, "Router ID must be 10 digits"},
	{models.ErrInvalidName, "Name is required"},
	{models.ErrInvalidPrice, "Price is out of the allowed range"},
	{models.ErrInvalidDuration, "Duration must be at least 1 month"},
	{errNeedsConfirmation, "Confirmation required: rerun with --yes"},
}

// Presenter форматирует сущности, списки ошибок и отчёты для оператора.
type Presenter struct {
	w        io.Writer
	currency string
	numbers  *message.Printer
}

// NewPresenter создает новый экземпляр Presenter.
func NewPresenter(w io.Writer, currency string) *Presenter {
	return &Presenter{w: w, currency: currency, numbers: message.NewPrinter(language.English)}
}

func (p *Presenter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// Money форматирует сумму с валютой и разделителями разрядов: "KES 2,500.00".
func (p *Presenter) Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return p.numbers.Sprintf("%s %.2f", p.currency, f)
}

// Success выводит сообщение об успешной операции.
func (p *Presenter) Success(format string, args ...any) {
	p.printf("✓ "+format+"\n", args...)
}

// Notice выводит нейтральное сообщение.
func (p *Presenter) Notice(format string, args ...any) {
	p.printf(format+"\n", args...)
}

// Failure показывает ошибку в зависимости от её вида. Неожиданные ошибки
// пишутся в лог, оператор видит только "Operation failed".
func (p *Presenter) Failure(err error, log *slog.Logger) {
	if errs, ok := validation.IsErrors(err); ok {
		p.printf("✗ Validation errors:\n")
		for _, e := range errs {
			p.printf("- %s\n", e)
		}
		return
	}
	for _, r := range refusals {
		if errors.Is(err, r.err) {
			p.printf("✗ %s\n", r.msg)
			return
		}
	}
	if log != nil {
		log.Error("operation failed", sl.Err(err))
	}
	p.printf("✗ Operation failed\n")
}

// Customers выводит список абонентов: кратко или подробно.
func (p *Presenter) Customers(list []models.CustomerSummary, detailed bool) {
	if len(list) == 0 {
		p.printf("No customers found\n")
		return
	}
	p.printf("Customer List (%d total)\n", len(list))
	for _, c := range list {
		if !detailed {
			p.printf("%d. %s (%s)\n", c.ID, c.Name, c.Email)
			continue
		}
		p.printf("\n")
		p.customerFields(&c.Customer)
		p.printf("Active Subs: %d\n", c.ActiveSubscriptions)
	}
}

// Customer выводит карточку абонента и его подписки.
func (p *Presenter) Customer(c *models.Customer, subs []models.SubscriptionDetails, today time.Time) {
	p.customerFields(c)
	if len(subs) == 0 {
		p.printf("Subscriptions: none\n")
		return
	}
	p.printf("Subscriptions:\n")
	for _, s := range subs {
		p.printf("  #%d %s (%s) %s, %s\n", s.ID, s.PlanName, s.PlanSpeed,
			report.DisplayStatus(&s.Subscription, today), period(&s.Subscription))
	}
}

func (p *Presenter) customerFields(c *models.Customer) {
	p.printf("ID: %d\n", c.ID)
	p.printf("Name: %s\n", c.Name)
	p.printf("Email: %s\n", c.Email)
	p.printf("Phone: %s\n", orNA(c.Phone))
	p.printf("Router ID: %s\n", c.RouterID)
	p.printf("Address: %s\n", orNA(c.Address))
	p.printf("Created: %s\n", c.CreatedAt.Format(time.DateOnly))
}

// SearchResult выводит результат поиска, различая пустую базу и отсутствие совпадений.
func (p *Presenter) SearchResult(res *models.SearchResult) {
	switch res.Outcome {
	case models.SearchNoRecords:
		p.printf("No customers found\n")
	case models.SearchNoMatches:
		p.printf("No matching customers found\n")
	default:
		p.printf("Found %d matching customers:\n", len(res.Customers))
		for _, c := range res.Customers {
			p.printf("%d. %s (%s)\n", c.ID, c.Name, c.Email)
		}
	}
}

// Plans выводит тарифы по возрастанию цены.
func (p *Presenter) Plans(list []models.PlanSummary, detailed bool) {
	if len(list) == 0 {
		p.printf("No plans available\n")
		return
	}
	p.printf("Internet Plans (%d total)\n", len(list))
	for _, pl := range list {
		if !detailed {
			p.printf("%d. %s (%s) - %s\n", pl.ID, pl.Name, pl.Speed, p.Money(pl.Price))
			continue
		}
		p.printf("\n")
		p.planFields(&pl.Plan)
		p.printf("Subscriptions: %d\n", pl.Subscriptions)
	}
}

// Plan выводит карточку тарифа.
func (p *Presenter) Plan(pl *models.Plan) {
	p.planFields(pl)
}

func (p *Presenter) planFields(pl *models.Plan) {
	p.printf("ID: %d\n", pl.ID)
	p.printf("Name: %s\n", pl.Name)
	p.printf("Speed: %s\n", pl.Speed)
	p.printf("Price: %s\n", p.Money(pl.Price))
	p.printf("Duration: %d month(s)\n", pl.DurationMonths)
	p.printf("Description: %s\n", orNA(pl.Description))
}

// Subscriptions выводит подписки с оставшимися днями.
func (p *Presenter) Subscriptions(filter models.StatusFilter, list []models.SubscriptionDetails, today time.Time) {
	p.printf("Subscriptions (%s)\n%s\n", filter, rule)
	for _, s := range list {
		p.printf("\nID: %d\n", s.ID)
		p.printf("Customer: %s (Router: %s)\n", s.CustomerName, s.RouterID)
		p.printf("Plan: %s (%s) - %s\n", s.PlanName, s.PlanSpeed, p.Money(s.PlanPrice))
		p.printf("Status: %s\n", report.DisplayStatus(&s.Subscription, today))
		p.printf("Period: %s\n", period(&s.Subscription))
		if days, ok := s.DaysRemaining(today); ok {
			p.printf("Days Remaining: %d\n", days)
		}
	}
	p.printf("%s\nTotal: %d subscriptions\n", rule, len(list))
}

// Subscription выводит сводку по одной подписке.
func (p *Presenter) Subscription(s *models.Subscription, today time.Time) {
	p.printf("Subscription #%d\n", s.ID)
	p.printf("Status: %s\n", report.DisplayStatus(s, today))
	p.printf("Period: %s\n", period(s))
}

// ReminderReport выводит итог прохода по истекающим подпискам.
func (p *Presenter) ReminderReport(rep *models.ReminderReport, today time.Time) {
	if rep.Checked == 0 {
		p.printf("No subscriptions need reminders right now\n")
		return
	}
	p.printf("Found %d subscriptions needing reminders:\n", rep.Checked)
	for _, r := range rep.Sent {
		p.printf("\n- %s: %s expires in %d days\n", r.CustomerName, r.PlanName, r.DaysLeft)
		p.printf("  Email: %s\n  Reminder queued\n", r.Email)
	}
	for _, s := range rep.Skipped {
		days, _ := s.DaysRemaining(today)
		p.printf("\n- %s: %s expires in %d days\n", s.CustomerName, s.PlanName, days)
		p.printf("  No email on file - cannot send reminder\n")
	}
	for _, f := range rep.Failed {
		p.printf("\n- %s: %s expires in %d days\n", f.Reminder.CustomerName, f.Reminder.PlanName, f.Reminder.DaysLeft)
		p.printf("  Reminder not delivered, will retry on next check\n")
	}
	p.printf("\n✓ Reminder flags updated (sent %d, skipped %d, failed %d)\n",
		len(rep.Sent), len(rep.Skipped), len(rep.Failed))
}

func period(s *models.Subscription) string {
	end := "Ongoing"
	if s.EndDate != nil {
		end = s.EndDate.Format(time.DateOnly)
	}
	return s.StartDate.Format(time.DateOnly) + " to " + end
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
