package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tenantetl/internal/pipeline"
)

func newMorningFactIncrementalCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "morning-fact-incremental",
		Short: "Append today's incremental partition for one fact table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Table == "" {
				return fmt.Errorf("--table is required")
			}
			engine, err := buildEngine(opts, "morning_fact_incremental")
			if err != nil {
				return err
			}
			return runAndReport("morning_fact_incremental", func(ctx context.Context) (map[string]pipeline.TableOutcome, error) {
				out, err := engine.MorningFactIncremental(ctx, opts.TenantSlug, opts.Table)
				return out.PerTable, err
			})
		},
	}
	cmd.Flags().StringVar(&opts.Table, "table", "", "fact table to load (required)")
	return cmd
}
