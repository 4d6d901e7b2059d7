package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/services"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

var fixedNow = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

type harness struct {
	customers     *CustomersMock
	plans         *PlansMock
	subscriptions *SubscriptionsMock
	reminders     *RemindersMock

	out      *bytes.Buffer
	errOut   *bytes.Buffer
	logs     *bytes.Buffer
	in       string
	terminal bool
	loads    int
	closed   int
}

func newHarness() *harness {
	return &harness{
		customers:     new(CustomersMock),
		plans:         new(PlansMock),
		subscriptions: new(SubscriptionsMock),
		reminders:     new(RemindersMock),
		out:           new(bytes.Buffer),
		errOut:        new(bytes.Buffer),
		logs:          new(bytes.Buffer),
	}
}

func (h *harness) load(_ context.Context, _ string) (*Backend, error) {
	h.loads++
	return &Backend{
		Customers:     h.customers,
		Plans:         h.plans,
		Subscriptions: h.subscriptions,
		Reminders:     h.reminders,
		Migrate:       func() (uint, error) { return 3, nil },
		Currency:      "KES",
		Now:           func() time.Time { return fixedNow },
		Log:           slog.New(slog.NewTextHandler(h.logs, nil)),
		Close: func() error {
			h.closed++
			return nil
		},
	}, nil
}

func (h *harness) execute(args ...string) int {
	root := NewRootCommand(h.load, Options{
		In:         strings.NewReader(h.in),
		Out:        h.out,
		Err:        h.errOut,
		IsTerminal: func() bool { return h.terminal },
	})
	root.SetArgs(args)
	return Execute(context.Background(), root)
}

func (h *harness) assertExpectations(t *testing.T) {
	h.customers.AssertExpectations(t)
	h.plans.AssertExpectations(t)
	h.subscriptions.AssertExpectations(t)
	h.reminders.AssertExpectations(t)
}

func TestCustomerAdd(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness()
		h.customers.On("Create", mock.Anything, models.CustomerInput{
			Name: "John Doe", Email: "john@example.com", RouterID: "1234567890",
		}).Return(&models.Customer{ID: 7, Name: "John Doe"}, nil).Once()

		code := h.execute("customer", "add", "--name", "John Doe", "--email", "john@example.com", "--router", "1234567890")

		assert.Equal(t, 0, code)
		assert.Contains(t, h.out.String(), "Customer added: John Doe (ID: 7)")
		assert.Equal(t, 1, h.closed)
		h.assertExpectations(t)
	})

	t.Run("validation errors are listed", func(t *testing.T) {
		h := newHarness()
		h.customers.On("Create", mock.Anything, mock.Anything).
			Return(nil, validation.Errors{"Name is required", "Valid email is required"}).Once()

		code := h.execute("customer", "add")

		assert.Equal(t, 1, code)
		assert.Equal(t, "✗ Validation errors:\n- Name is required\n- Valid email is required\n", h.out.String())
		assert.Empty(t, h.errOut.String())
		assert.Empty(t, h.logs.String())
	})

	t.Run("unwrapped error text is not a refusal", func(t *testing.T) {
		h := newHarness()
		h.customers.On("Create", mock.Anything, mock.Anything).
			Return(nil, errors.New("wrapped: "+models.ErrDuplicate.Error())).Once()

		code := h.execute("customer", "add")

		assert.Equal(t, 1, code)
		assert.Contains(t, h.out.String(), "Operation failed")
		assert.Contains(t, h.logs.String(), "operation failed")
	})
}

func TestCustomerDelete(t *testing.T) {
	customer := &models.Customer{ID: 3, Name: "Jane", RouterID: "0987654321"}

	tests := []struct {
		name       string
		args       []string
		terminal   bool
		in         string
		wantDelete bool
		wantCode   int
		wantOut    string
	}{
		{name: "non-terminal without --yes refuses", args: []string{"customer", "delete", "3"}, wantCode: 1, wantOut: "Confirmation required"},
		{name: "operator declines", args: []string{"customer", "delete", "3"}, terminal: true, in: "n\n", wantOut: "Deletion cancelled"},
		{name: "operator confirms", args: []string{"customer", "delete", "3"}, terminal: true, in: "yes\n", wantDelete: true, wantOut: "Customer deleted: Jane"},
		{name: "--yes skips the prompt", args: []string{"customer", "delete", "3", "--yes"}, wantDelete: true, wantOut: "Customer deleted: Jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.terminal, h.in = tt.terminal, tt.in
			h.customers.On("Get", mock.Anything, int64(3)).Return(customer, nil).Once()
			if tt.wantDelete {
				h.customers.On("Delete", mock.Anything, int64(3)).Return(nil).Once()
			}

			code := h.execute(tt.args...)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, h.out.String(), tt.wantOut)
			if tt.terminal {
				assert.Contains(t, h.out.String(), "Delete Jane (Router: 0987654321) and all their subscriptions? [y/N]: ")
			}
			if !tt.wantDelete {
				h.customers.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
			h.assertExpectations(t)
		})
	}
}

func TestCustomerDelete_InvalidID(t *testing.T) {
	h := newHarness()

	code := h.execute("customer", "delete", "abc", "-y")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), `Invalid Customer ID: "abc"`)
}

func TestCustomerUpdate(t *testing.T) {
	t.Run("only changed flags are sent", func(t *testing.T) {
		h := newHarness()
		h.customers.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(p models.CustomerPatch) bool {
			return p.Name == nil && p.Email == nil && p.Address == nil &&
				p.Phone != nil && *p.Phone == ""
		})).Return(&models.Customer{ID: 5, Name: "Ann"}, nil).Once()

		code := h.execute("customer", "update", "5", "--phone", "")

		assert.Equal(t, 0, code)
		assert.Contains(t, h.out.String(), "Customer updated: Ann (ID: 5)")
		h.assertExpectations(t)
	})

	t.Run("no flags", func(t *testing.T) {
		h := newHarness()

		code := h.execute("customer", "update", "5")

		assert.Equal(t, 0, code)
		assert.Contains(t, h.out.String(), "Nothing to update")
		h.customers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCustomerSearch(t *testing.T) {
	tests := []struct {
		name    string
		res     *models.SearchResult
		wantOut string
	}{
		{name: "empty database", res: &models.SearchResult{Outcome: models.SearchNoRecords}, wantOut: "No customers found\n"},
		{name: "no matches", res: &models.SearchResult{Outcome: models.SearchNoMatches}, wantOut: "No matching customers found\n"},
		{
			name: "found",
			res: &models.SearchResult{Outcome: models.SearchFound, Customers: []models.Customer{
				{ID: 1, Name: "John Doe", Email: "john@example.com"},
			}},
			wantOut: "Found 1 matching customers:\n1. John Doe (john@example.com)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.customers.On("Search", mock.Anything, "john doe").Return(tt.res, nil).Once()

			code := h.execute("customer", "search", "john", "doe")

			assert.Equal(t, 0, code)
			assert.Equal(t, tt.wantOut, h.out.String())
		})
	}
}

func TestPlanList(t *testing.T) {
	h := newHarness()
	h.plans.On("List", mock.Anything).Return([]models.PlanSummary{
		{Plan: models.Plan{ID: 1, Name: "Basic", Speed: "10 Mbps", Price: decimal.NewFromInt(2500)}},
		{Plan: models.Plan{ID: 2, Name: "Pro", Speed: "1 Gbps", Price: decimal.RequireFromString("12000.5")}},
	}, nil).Once()

	code := h.execute("plan", "list")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Internet Plans (2 total)\n"+
		"1. Basic (10 Mbps) - KES 2,500.00\n"+
		"2. Pro (1 Gbps) - KES 12,000.50\n", h.out.String())
}

func TestPlanDelete_InUse(t *testing.T) {
	h := newHarness()
	h.plans.On("Get", mock.Anything, int64(2)).Return(&models.Plan{ID: 2, Name: "Pro"}, nil).Once()
	h.plans.On("Delete", mock.Anything, int64(2)).Return(services.ErrPlanInUse).Once()

	code := h.execute("plan", "delete", "2", "--yes")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "Cannot delete - plan has subscriptions")
	h.assertExpectations(t)
}

func TestSubscriptionStatus(t *testing.T) {
	end := day("2024-08-10")
	updated := &models.Subscription{ID: 4, Status: models.StatusActive, StartDate: day("2024-01-10"), EndDate: &end}

	t.Run("expired reactivation asks for months", func(t *testing.T) {
		h := newHarness()
		h.terminal, h.in = true, "2\n"
		h.subscriptions.On("NeedsExtension", mock.Anything, int64(4), models.StatusActive).Return(true, nil).Once()
		h.subscriptions.On("SetStatus", mock.Anything, int64(4), models.StatusActive, 2).Return(updated, nil).Once()

		code := h.execute("subscription", "status", "4", "Active")

		assert.Equal(t, 0, code)
		assert.Contains(t, h.out.String(), extendQuestion)
		assert.Contains(t, h.out.String(), "Subscription #4 status set to active")
		assert.Contains(t, h.out.String(), "Period: 2024-01-10 to 2024-08-10")
		h.assertExpectations(t)
	})

	t.Run("--extend skips the question", func(t *testing.T) {
		h := newHarness()
		h.subscriptions.On("SetStatus", mock.Anything, int64(4), models.StatusActive, 3).Return(updated, nil).Once()

		code := h.execute("sub", "status", "4", "active", "--extend", "3")

		assert.Equal(t, 0, code)
		h.subscriptions.AssertNotCalled(t, "NeedsExtension", mock.Anything, mock.Anything, mock.Anything)
		h.assertExpectations(t)
	})

	t.Run("non-terminal keeps it expired", func(t *testing.T) {
		h := newHarness()
		h.subscriptions.On("NeedsExtension", mock.Anything, int64(4), models.StatusActive).Return(true, nil).Once()
		h.subscriptions.On("SetStatus", mock.Anything, int64(4), models.StatusActive, 0).Return(updated, nil).Once()

		code := h.execute("subscription", "status", "4", "active")

		assert.Equal(t, 0, code)
		assert.Contains(t, h.out.String(), "rerun with --extend N")
		h.assertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		h := newHarness()

		code := h.execute("subscription", "status", "4", "paused")

		assert.Equal(t, 1, code)
		assert.Contains(t, h.out.String(), "Invalid status")
	})
}

func TestSubscriptionExtend_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantOut string
	}{
		{name: "no end date", err: models.ErrNoEndDate, wantOut: "Cannot extend - subscription has no end date"},
		{name: "zero months", err: models.ErrInvalidExtension, wantOut: "Must extend by at least 1 month"},
		{name: "missing", err: models.ErrNotFound, wantOut: "Record not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.subscriptions.On("Extend", mock.Anything, int64(9), 1).Return(nil, tt.err).Once()

			code := h.execute("subscription", "extend", "9", "1")

			assert.Equal(t, 1, code)
			assert.Contains(t, h.out.String(), tt.wantOut)
			assert.Empty(t, h.logs.String())
		})
	}
}

func TestSubscriptionShow(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h := newHarness()
		end := day("2024-06-20")
		h.subscriptions.On("Get", mock.Anything, int64(5)).
			Return(&models.Subscription{ID: 5, Status: models.StatusActive, StartDate: day("2024-05-20"), EndDate: &end}, nil).Once()

		code := h.execute("subscription", "show", "5")

		assert.Equal(t, 0, code)
		assert.Contains(t, h.out.String(), "Subscription #5")
		assert.Contains(t, h.out.String(), "Period: 2024-05-20 to 2024-06-20")
		h.assertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		h := newHarness()
		h.subscriptions.On("Get", mock.Anything, int64(8)).Return(nil, models.ErrNotFound).Once()

		code := h.execute("sub", "show", "8")

		assert.Equal(t, 1, code)
		assert.Contains(t, h.out.String(), "Record not found")
	})

	t.Run("bad id", func(t *testing.T) {
		h := newHarness()

		code := h.execute("subscription", "show", "abc")

		assert.Equal(t, 1, code)
		h.subscriptions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestSubscriptionCancel_AlreadyTerminated(t *testing.T) {
	h := newHarness()
	h.subscriptions.On("Cancel", mock.Anything, int64(4)).
		Return(&models.Subscription{ID: 4, Status: models.StatusTerminated}, false, nil).Once()

	code := h.execute("subscription", "cancel", "4", "-y")

	assert.Equal(t, 0, code)
	assert.Contains(t, h.out.String(), "Subscription #4 is already terminated")
}

func TestSubscriptionList(t *testing.T) {
	t.Run("days remaining and ongoing", func(t *testing.T) {
		h := newHarness()
		end := day("2024-06-15")
		h.subscriptions.On("List", mock.Anything, models.FilterAll).Return([]models.SubscriptionDetails{
			{
				Subscription: models.Subscription{ID: 1, RouterID: "1234567890", Status: models.StatusActive, StartDate: day("2024-06-01"), EndDate: &end},
				CustomerName: "John Doe", PlanName: "Basic", PlanSpeed: "10 Mbps", PlanPrice: decimal.NewFromInt(2500),
			},
			{
				Subscription: models.Subscription{ID: 2, RouterID: "0987654321", Status: models.StatusSuspended, StartDate: day("2024-05-01")},
				CustomerName: "Jane", PlanName: "Pro", PlanSpeed: "1 Gbps", PlanPrice: decimal.NewFromInt(9000),
			},
		}, nil).Once()

		code := h.execute("subscription", "list", "--status", "ALL")

		require.Equal(t, 0, code)
		out := h.out.String()
		assert.Contains(t, out, "Subscriptions (all)")
		assert.Contains(t, out, "Plan: Basic (10 Mbps) - KES 2,500.00")
		assert.Contains(t, out, "Days Remaining: 5")
		assert.Contains(t, out, "Period: 2024-05-01 to Ongoing")
		assert.Equal(t, 1, strings.Count(out, "Days Remaining"))
		assert.Contains(t, out, "Total: 2 subscriptions")
	})

	t.Run("unknown filter", func(t *testing.T) {
		h := newHarness()

		code := h.execute("subscription", "list", "--status", "soon")

		assert.Equal(t, 1, code)
		assert.Contains(t, h.out.String(), "Validation errors:")
		h.subscriptions.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestRemindersCheck(t *testing.T) {
	t.Run("nothing due", func(t *testing.T) {
		h := newHarness()
		h.reminders.On("CheckExpiring", mock.Anything).Return(&models.ReminderReport{}, nil).Once()

		code := h.execute("reminders", "check")

		assert.Equal(t, 0, code)
		assert.Equal(t, "No subscriptions need reminders right now\n", h.out.String())
	})

	t.Run("mixed report", func(t *testing.T) {
		h := newHarness()
		end := day("2024-06-13")
		h.reminders.On("CheckExpiring", mock.Anything).Return(&models.ReminderReport{
			Checked: 3,
			Sent:    []models.Reminder{{CustomerName: "John", PlanName: "Basic", Email: "john@example.com", DaysLeft: 3}},
			Skipped: []models.SubscriptionDetails{{
				Subscription: models.Subscription{EndDate: &end}, CustomerName: "Jane", PlanName: "Pro",
			}},
			Failed: []models.ReminderFailure{{Reminder: models.Reminder{CustomerName: "Ann", PlanName: "Basic", DaysLeft: 1}, Err: errors.New("broker down")}},
		}, nil).Once()

		code := h.execute("reminders", "check")

		assert.Equal(t, 0, code)
		out := h.out.String()
		assert.Contains(t, out, "Found 3 subscriptions needing reminders:")
		assert.Contains(t, out, "- John: Basic expires in 3 days\n  Email: john@example.com")
		assert.Contains(t, out, "- Jane: Pro expires in 3 days\n  No email on file - cannot send reminder")
		assert.Contains(t, out, "- Ann: Basic expires in 1 days\n  Reminder not delivered")
		assert.Contains(t, out, "(sent 1, skipped 1, failed 1)")
	})
}

func TestUnexpectedErrorIsLogged(t *testing.T) {
	h := newHarness()
	h.reminders.On("CheckExpiring", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	code := h.execute("reminders", "check")

	assert.Equal(t, 1, code)
	assert.Equal(t, "✗ Operation failed\n", h.out.String())
	assert.Contains(t, h.logs.String(), "connection reset")
	assert.Empty(t, h.errOut.String())
}

func TestMigrate(t *testing.T) {
	h := newHarness()

	code := h.execute("migrate")

	assert.Equal(t, 0, code)
	assert.Contains(t, h.out.String(), "Schema is at version 3")
}

func TestReportExport(t *testing.T) {
	h := newHarness()
	h.customers.On("List", mock.Anything).Return([]models.CustomerSummary{{Customer: models.Customer{ID: 1, Name: "John"}}}, nil).Once()
	h.plans.On("List", mock.Anything).Return([]models.PlanSummary{}, nil).Once()
	h.subscriptions.On("List", mock.Anything, models.FilterAll).Return([]models.SubscriptionDetails{}, nil).Once()
	path := filepath.Join(t.TempDir(), "out.xlsx")

	code := h.execute("report", "export", "--out", path)

	require.Equal(t, 0, code)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Contains(t, h.out.String(), "Report saved to "+path)
	h.assertExpectations(t)
}

func TestHelpDoesNotLoadBackend(t *testing.T) {
	h := newHarness()

	code := h.execute("customer", "--help")

	assert.Equal(t, 0, code)
	assert.Zero(t, h.loads)
	assert.Contains(t, h.out.String(), "Manage customers")
}

func TestLoaderFailure(t *testing.T) {
	root := NewRootCommand(func(context.Context, string) (*Backend, error) {
		return nil, errors.New("config file does not exist")
	}, Options{Out: new(bytes.Buffer), Err: new(bytes.Buffer), In: strings.NewReader(""), IsTerminal: func() bool { return false }})
	errOut := new(bytes.Buffer)
	root.SetErr(errOut)
	root.SetArgs([]string{"plan", "list"})

	code := Execute(context.Background(), root)

	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: config file does not exist\n", errOut.String())
}

func TestRemindersWatch_StopsWithContext(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.reminders.On("CheckExpiring", mock.Anything).Return(&models.ReminderReport{
		Checked: 1,
		Sent:    []models.Reminder{{CustomerName: "John", PlanName: "Basic", Email: "john@example.com", DaysLeft: 2}},
	}, nil).Run(func(mock.Arguments) { cancel() }).Once()

	root := NewRootCommand(h.load, Options{
		In: strings.NewReader(""), Out: h.out, Err: h.errOut,
		IsTerminal: func() bool { return false },
	})
	root.SetArgs([]string{"reminders", "watch", "--interval", "1h"})

	code := Execute(ctx, root)

	assert.Equal(t, 0, code)
	assert.Contains(t, h.out.String(), "- John: Basic expires in 2 days")
	assert.Equal(t, 1, h.closed)
	h.assertExpectations(t)
}
