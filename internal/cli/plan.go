package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

func (r *runner) planCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"plans"},
		Short:   "Manage internet plans",
	}
	cmd.AddCommand(
		r.planAddCommand(),
		r.planListCommand(),
		r.planShowCommand(),
		r.planUpdateCommand(),
		r.planDeleteCommand(),
	)
	return cmd
}

func (r *runner) planAddCommand() *cobra.Command {
	var in models.PlanInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a plan",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			p, err := r.backend.Plans.Create(ctx, in)
			if err != nil {
				return err
			}
			r.out.Success("Plan added: %s (ID: %d)", p.Name, p.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "plan name")
	cmd.Flags().StringVar(&in.Speed, "speed", "", "speed, e.g. '10 Mbps'")
	cmd.Flags().StringVar(&in.Price, "price", "", "monthly price")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Duration, "duration", "", "default subscription length in months (default 1)")
	return cmd
}

func (r *runner) planListCommand() *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans by price",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			list, err := r.backend.Plans.List(ctx)
			if err != nil {
				return err
			}
			r.out.Plans(list, detailed)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "show all fields")
	return cmd
}

func (r *runner) planShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a plan",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Plan")
			if err != nil {
				return err
			}
			p, err := r.backend.Plans.Get(ctx, id)
			if err != nil {
				return err
			}
			r.out.Plan(p)
			return nil
		}),
	}
}

func (r *runner) planUpdateCommand() *cobra.Command {
	var name, speed, price, description, duration string
	var cmd *cobra.Command
	cmd = &cobra.Command{
		Use:   "update ID",
		Short: "Change plan details",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Plan")
			if err != nil {
				return err
			}
			patch := models.PlanPatch{
				Name:        optional(cmd, "name", name),
				Speed:       optional(cmd, "speed", speed),
				Price:       optional(cmd, "price", price),
				Description: optional(cmd, "description", description),
				Duration:    optional(cmd, "duration", duration),
			}
			if patch == (models.PlanPatch{}) {
				r.out.Notice("Nothing to update")
				return nil
			}
			p, err := r.backend.Plans.Update(ctx, id, patch)
			if err != nil {
				return err
			}
			r.out.Success("Plan updated: %s (ID: %d)", p.Name, p.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "plan name")
	cmd.Flags().StringVar(&speed, "speed", "", "speed, e.g. '10 Mbps'")
	cmd.Flags().StringVar(&price, "price", "", "monthly price")
	cmd.Flags().StringVar(&description, "description", "", "description, empty string removes it")
	cmd.Flags().StringVar(&duration, "duration", "", "default subscription length in months")
	return cmd
}

func (r *runner) planDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a plan without subscriptions",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Plan")
			if err != nil {
				return err
			}
			p, err := r.backend.Plans.Get(ctx, id)
			if err != nil {
				return err
			}
			ok, err := r.confirm("Delete plan " + p.Name + "?")
			if err != nil {
				return err
			}
			if !ok {
				r.out.Notice("Deletion cancelled")
				return nil
			}
			if err := r.backend.Plans.Delete(ctx, id); err != nil {
				return err
			}
			r.out.Success("Plan deleted: %s", p.Name)
			return nil
		}),
	}
}
