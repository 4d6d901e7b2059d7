package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

func (r *runner) customerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customer",
		Aliases: []string{"customers"},
		Short:   "Manage customers",
	}
	cmd.AddCommand(
		r.customerAddCommand(),
		r.customerListCommand(),
		r.customerShowCommand(),
		r.customerSearchCommand(),
		r.customerUpdateCommand(),
		r.customerDeleteCommand(),
	)
	return cmd
}

func (r *runner) customerAddCommand() *cobra.Command {
	var in models.CustomerInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a customer",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			c, err := r.backend.Customers.Create(ctx, in)
			if err != nil {
				return err
			}
			r.out.Success("Customer added: %s (ID: %d)", c.Name, c.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone, +2547XXXXXXXX or 07XXXXXXXX")
	cmd.Flags().StringVar(&in.Address, "address", "", "installation address")
	cmd.Flags().StringVar(&in.RouterID, "router", "", "router ID, 10 digits")
	return cmd
}

func (r *runner) customerListCommand() *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			list, err := r.backend.Customers.List(ctx)
			if err != nil {
				return err
			}
			r.out.Customers(list, detailed)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "show all fields")
	return cmd
}

func (r *runner) customerShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a customer with subscriptions",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Customer")
			if err != nil {
				return err
			}
			c, err := r.backend.Customers.Get(ctx, id)
			if err != nil {
				return err
			}
			subs, err := r.backend.Customers.Subscriptions(ctx, id)
			if err != nil {
				return err
			}
			r.out.Customer(c, subs, r.today())
			return nil
		}),
	}
}

func (r *runner) customerSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search TERM",
		Short: "Find customers by name, email or router ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			res, err := r.backend.Customers.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			r.out.SearchResult(res)
			return nil
		}),
	}
}

func (r *runner) customerUpdateCommand() *cobra.Command {
	var name, email, phone, address string
	var cmd *cobra.Command
	cmd = &cobra.Command{
		Use:   "update ID",
		Short: "Change customer details",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Customer")
			if err != nil {
				return err
			}
			patch := models.CustomerPatch{
				Name:    optional(cmd, "name", name),
				Email:   optional(cmd, "email", email),
				Phone:   optional(cmd, "phone", phone),
				Address: optional(cmd, "address", address),
			}
			if patch == (models.CustomerPatch{}) {
				r.out.Notice("Nothing to update")
				return nil
			}
			c, err := r.backend.Customers.Update(ctx, id, patch)
			if err != nil {
				return err
			}
			r.out.Success("Customer updated: %s (ID: %d)", c.Name, c.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone, empty string removes it")
	cmd.Flags().StringVar(&address, "address", "", "address, empty string removes it")
	return cmd
}

func (r *runner) customerDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a customer and their subscriptions",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "Customer")
			if err != nil {
				return err
			}
			c, err := r.backend.Customers.Get(ctx, id)
			if err != nil {
				return err
			}
			ok, err := r.confirm("Delete " + c.String() + " and all their subscriptions?")
			if err != nil {
				return err
			}
			if !ok {
				r.out.Notice("Deletion cancelled")
				return nil
			}
			if err := r.backend.Customers.Delete(ctx, id); err != nil {
				return err
			}
			r.out.Success("Customer deleted: %s", c.Name)
			return nil
		}),
	}
}
