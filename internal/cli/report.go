package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/report"
)

func (r *runner) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports",
	}
	var path string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export customers, plans and subscriptions to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, _ []string) error {
			const op = "cli.export"
			today := r.today()
			data, err := r.collect(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if path == "" {
				path = "isp-report-" + today.Format("2006-01-02") + ".xlsx"
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if err := report.Export(f, data, today); err != nil {
				_ = f.Close()
				return fmt.Errorf("%s: %w", op, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			r.out.Success("Report saved to %s", path)
			return nil
		}),
	}
	export.Flags().StringVarP(&path, "out", "o", "", "output file (default isp-report-<date>.xlsx)")
	cmd.AddCommand(export)
	return cmd
}

func (r *runner) collect(ctx context.Context) (report.Data, error) {
	customers, err := r.backend.Customers.List(ctx)
	if err != nil {
		return report.Data{}, err
	}
	plans, err := r.backend.Plans.List(ctx)
	if err != nil {
		return report.Data{}, err
	}
	subs, err := r.backend.Subscriptions.List(ctx, models.FilterAll)
	if err != nil {
		return report.Data{}, err
	}
	return report.Data{Customers: customers, Plans: plans, Subscriptions: subs}, nil
}
