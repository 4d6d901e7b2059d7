package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

const extendQuestion = "Subscription expired. Extend by how many months? (0 to keep expired): "

func (r *runner) subscriptionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub", "subscriptions"},
		Short:   "Manage subscriptions",
	}
	cmd.AddCommand(
		r.subscriptionAddCommand(),
		r.subscriptionListCommand(),
		r.subscriptionShowCommand(),
		r.subscriptionStatusCommand(),
		r.subscriptionExtendCommand(),
		r.subscriptionCancelCommand(),
	)
	return cmd
}

func (r *runner) subscriptionAddCommand() *cobra.Command {
	var in models.SubscriptionInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Subscribe a customer to a plan",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			s, err := r.backend.Subscriptions.Create(ctx, in)
			if err != nil {
				return err
			}
			r.out.Success("Subscription added (ID: %d)", s.ID)
			r.out.Subscription(s, r.today())
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.CustomerID, "customer", "", "customer ID")
	cmd.Flags().StringVar(&in.PlanID, "plan", "", "plan ID")
	cmd.Flags().StringVar(&in.Duration, "duration", "", "length in months (default: plan duration)")
	cmd.Flags().StringVar(&in.StartDate, "start", "", "start date YYYY-MM-DD (default: today)")
	return cmd
}

func (r *runner) subscriptionListCommand() *cobra.Command {
	var rawFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			filter, err := models.ParseStatusFilter(rawFilter)
			if err != nil {
				return validation.Errors{err.Error()}
			}
			list, err := r.backend.Subscriptions.List(ctx, filter)
			if err != nil {
				return err
			}
			r.out.Subscriptions(filter, list, r.today())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&rawFilter, "status", "s", string(models.FilterActive), "active, expired or all")
	return cmd
}

func (r *runner) subscriptionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one subscription",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Subscription")
			if err != nil {
				return err
			}
			s, err := r.backend.Subscriptions.Get(ctx, id)
			if err != nil {
				return err
			}
			r.out.Subscription(s, r.today())
			return nil
		}),
	}
}

func (r *runner) subscriptionStatusCommand() *cobra.Command {
	var extend int
	var cmd *cobra.Command
	cmd = &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set status to active, suspended or terminated",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Subscription")
			if err != nil {
				return err
			}
			status, err := models.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("extend") {
				extend, err = r.reactivationExtension(ctx, id, status)
				if err != nil {
					return err
				}
			}
			s, err := r.backend.Subscriptions.SetStatus(ctx, id, status, extend)
			if err != nil {
				return err
			}
			r.out.Success("Subscription #%d status set to %s", s.ID, s.Status)
			r.out.Subscription(s, r.today())
			return nil
		}),
	}
	cmd.Flags().IntVar(&extend, "extend", 0, "months to extend an expired subscription on reactivation")
	return cmd
}

// reactivationExtension спрашивает о продлении, если подписка истекла и
// переводится в active. Без терминала подписка остаётся истёкшей.
func (r *runner) reactivationExtension(ctx context.Context, id int64, status models.Status) (int, error) {
	needs, err := r.backend.Subscriptions.NeedsExtension(ctx, id, status)
	if err != nil || !needs {
		return 0, err
	}
	if !r.opts.IsTerminal() {
		r.out.Notice("Subscription expired: rerun with --extend N to extend it")
		return 0, nil
	}
	return r.askMonths(extendQuestion)
}

func (r *runner) subscriptionExtendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extend ID MONTHS",
		Short: "Move the end date forward by whole months",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Subscription")
			if err != nil {
				return err
			}
			months, err := strconv.Atoi(args[1])
			if err != nil {
				return validation.Errors{"Months must be a whole number"}
			}
			s, err := r.backend.Subscriptions.Extend(ctx, id, months)
			if err != nil {
				return err
			}
			r.out.Success("Subscription #%d extended by %d month(s)", s.ID, months)
			r.out.Subscription(s, r.today())
			return nil
		}),
	}
}

func (r *runner) subscriptionCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Terminate a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Subscription")
			if err != nil {
				return err
			}
			ok, err := r.confirm("Cancel subscription #" + args[0] + "?")
			if err != nil {
				return err
			}
			if !ok {
				r.out.Notice("Cancellation aborted")
				return nil
			}
			s, changed, err := r.backend.Subscriptions.Cancel(ctx, id)
			if err != nil {
				return err
			}
			if !changed {
				r.out.Notice("Subscription #%d is already terminated", s.ID)
				return nil
			}
			r.out.Success("Subscription #%d cancelled", s.ID)
			return nil
		}),
	}
}
