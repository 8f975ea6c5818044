package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tenantetl/internal/pipeline"
)

func newMorningDimensionIncrementalCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "morning-dimension-incremental",
		Short: "Append today's incremental partition for every dimension table",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine(opts, "morning_dimension_incremental")
			if err != nil {
				return err
			}
			return runAndReport("morning_dimension_incremental", func(ctx context.Context) (map[string]pipeline.TableOutcome, error) {
				out, err := engine.MorningDimensionIncremental(ctx, opts.TenantSlug)
				return out.PerTable, err
			})
		},
	}
}
