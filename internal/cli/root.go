// Package cli assembles the etl binary's cobra command tree: one subcommand
// per spec.md §6.6 named job entry point, the way BartekS5-IDA's
// internal/cli package wires migrate's sql-to-mongo/mongo-to-sql pair under
// one parent command.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the etl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "etl",
		Short:        "Multi-tenant StarRocks ETL engine",
		Long:         "etl resolves one tenant's configuration and runs one named job entry point against it: a dimension refresh, an incremental load, or a seed load.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	opts := &Options{}
	root.PersistentFlags().StringVar(&opts.ConfigRoot, "config-root", "configs", "root of the layered tenant configuration tree")
	root.PersistentFlags().StringVar(&opts.TenantSlug, "tenant", "", "tenant slug or UUID")
	root.PersistentFlags().StringVar(&opts.MetricsBackend, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	root.PersistentFlags().StringVar(&opts.PushgatewayURL, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	root.PersistentFlags().BoolVar(&opts.JSONLogs, "json-logs", false, "emit structured JSON logs instead of the console encoder")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug-level logs")
	_ = root.MarkPersistentFlagRequired("tenant")

	root.AddCommand(
		newEveningDimensionRefreshCmd(opts),
		newMorningDimensionIncrementalCmd(opts),
		newMorningFactIncrementalCmd(opts),
		newSeedLoadCmd(opts),
	)

	return root
}
