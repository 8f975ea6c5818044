package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tenantetl/internal/pipeline"
)

func newSeedLoadCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-load",
		Short: "Load one or all reference CSVs from the tenant's seeds directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine(opts, "seed_load")
			if err != nil {
				return err
			}
			return runAndReport("seed_load", func(ctx context.Context) (map[string]pipeline.TableOutcome, error) {
				out, err := engine.SeedLoad(ctx, opts.TenantSlug, opts.Table)
				return out.PerTable, err
			})
		},
	}
	cmd.Flags().StringVar(&opts.Table, "table", "", "limit to one seed table (default: load all)")
	return cmd
}
