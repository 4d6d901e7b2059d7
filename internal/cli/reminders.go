package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/services/scheduler"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

func (r *runner) remindersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Expiry reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Queue reminders for subscriptions that expire soon",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			rep, err := r.backend.Reminders.CheckExpiring(ctx)
			if err != nil {
				return err
			}
			r.out.ReminderReport(rep, r.today())
			return nil
		}),
	})
	cmd.AddCommand(r.remindersWatchCommand())
	return cmd
}

func (r *runner) remindersWatchCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Repeat the reminder check until interrupted",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			if interval <= 0 {
				return validation.Errors{"Interval must be positive"}
			}
			svc := scheduler.NewSchedulerService(r.backend.Reminders, interval, r.backend.Log)
			svc.Run(ctx, func(rep *models.ReminderReport) {
				r.out.ReminderReport(rep, r.today())
			})
			return nil
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", 12*time.Hour, "time between checks")
	return cmd
}

func (r *runner) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: r.run(func(_ context.Context, _ []string) error {
			version, err := r.backend.Migrate()
			if err != nil {
				return err
			}
			r.out.Success("Schema is at version %d", version)
			return nil
		}),
	}
}
