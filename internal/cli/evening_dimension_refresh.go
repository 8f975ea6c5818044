package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tenantetl/internal/pipeline"
)

func newEveningDimensionRefreshCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "evening-dimension-refresh",
		Short: "Full-refresh every dimension table declared for the tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine(opts, "evening_dimension_refresh")
			if err != nil {
				return err
			}
			return runAndReport("evening_dimension_refresh", func(ctx context.Context) (map[string]pipeline.TableOutcome, error) {
				out, err := engine.EveningDimensionRefresh(ctx, opts.TenantSlug)
				return out.PerTable, err
			})
		},
	}
}
