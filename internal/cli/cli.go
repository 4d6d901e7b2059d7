// Package cli реализует команды оператора поверх сервисов: разбор флагов,
// подтверждения и вывод результатов. Бизнес-правил здесь нет.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// CustomerService операции над абонентами.
type CustomerService interface {
	Create(ctx context.Context, in models.CustomerInput) (*models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context) ([]models.CustomerSummary, error)
	Subscriptions(ctx context.Context, id int64) ([]models.SubscriptionDetails, error)
	Search(ctx context.Context, term string) (*models.SearchResult, error)
	Update(ctx context.Context, id int64, patch models.CustomerPatch) (*models.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// PlanService операции над тарифами.
type PlanService interface {
	Create(ctx context.Context, in models.PlanInput) (*models.Plan, error)
	Get(ctx context.Context, id int64) (*models.Plan, error)
	List(ctx context.Context) ([]models.PlanSummary, error)
	Update(ctx context.Context, id int64, patch models.PlanPatch) (*models.Plan, error)
	Delete(ctx context.Context, id int64) error
}

// SubscriptionService операции жизненного цикла подписок.
type SubscriptionService interface {
	Create(ctx context.Context, in models.SubscriptionInput) (*models.Subscription, error)
	Get(ctx context.Context, id int64) (*models.Subscription, error)
	List(ctx context.Context, filter models.StatusFilter) ([]models.SubscriptionDetails, error)
	NeedsExtension(ctx context.Context, id int64, status models.Status) (bool, error)
	SetStatus(ctx context.Context, id int64, status models.Status, extendMonths int) (*models.Subscription, error)
	Extend(ctx context.Context, id int64, months int) (*models.Subscription, error)
	Cancel(ctx context.Context, id int64) (*models.Subscription, bool, error)
}

// ReminderService проход по истекающим подпискам.
type ReminderService interface {
	CheckExpiring(ctx context.Context) (*models.ReminderReport, error)
}

// Backend всё, что нужно командам после загрузки конфигурации.
type Backend struct {
	Customers     CustomerService
	Plans         PlanService
	Subscriptions SubscriptionService
	Reminders     ReminderService
	// Migrate применяет миграции и возвращает версию схемы.
	Migrate  func() (uint, error)
	Currency string
	Now      func() time.Time
	Log      *slog.Logger
	Close    func() error
}

// Loader строит Backend по пути к файлу конфигурации (пустой путь допустим).
type Loader func(ctx context.Context, configPath string) (*Backend, error)

// Options ввод-вывод команд. Нулевые поля заменяются на stdin, stdout и stderr.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	IsTerminal func() bool
}

// errReported ошибка уже показана оператору, остаётся только код выхода.
var errReported = errors.New("command failed")

type runner struct {
	load    Loader
	opts    Options
	backend *Backend
	out     *Presenter
	reader  *bufio.Reader

	configPath string
	yes        bool
}

// NewRootCommand собирает дерево команд isp-manager.
func NewRootCommand(load Loader, opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}

	r := &runner{load: load, opts: opts}

	root := &cobra.Command{
		Use:           "isp-manager",
		Short:         "Manage ISP customers, plans and subscriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().StringVarP(&r.configPath, "config", "c", "", "path to config file (default $CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&r.yes, "yes", "y", false, "do not ask for confirmation")

	root.AddCommand(
		r.customerCommand(),
		r.planCommand(),
		r.subscriptionCommand(),
		r.remindersCommand(),
		r.reportCommand(),
		r.migrateCommand(),
	)
	return root
}

// Execute запускает команду и возвращает код выхода процесса.
func Execute(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			_, _ = io.WriteString(root.ErrOrStderr(), "Error: "+err.Error()+"\n")
		}
		return 1
	}
	return 0
}

// run оборачивает тело команды: загружает Backend, классифицирует и выводит
// ошибки, освобождает ресурсы.
func (r *runner) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		b, err := r.load(cmd.Context(), r.configPath)
		if err != nil {
			return err
		}
		r.backend = b
		r.out = NewPresenter(cmd.OutOrStdout(), b.Currency)
		defer r.close()

		if err := fn(cmd.Context(), args); err != nil {
			log := b.Log
			if log != nil {
				log = log.With(sl.Op(cmd.CommandPath()))
			}
			r.out.Failure(err, log)
			return errReported
		}
		return nil
	}
}

func (r *runner) close() {
	if r.backend == nil || r.backend.Close == nil {
		return
	}
	if err := r.backend.Close(); err != nil && r.backend.Log != nil {
		r.backend.Log.Warn("failed to release resources", sl.Err(err))
	}
	r.backend = nil
}

func (r *runner) today() time.Time {
	now := time.Now
	if r.backend != nil && r.backend.Now != nil {
		now = r.backend.Now
	}
	return month.Date(now())
}
