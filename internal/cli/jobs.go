package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"tenantetl/internal/config"
	"tenantetl/internal/jobs"
	"tenantetl/internal/logging"
	"tenantetl/internal/metrics"
	"tenantetl/internal/metrics/prompush"
	"tenantetl/internal/pipeline"
)

// Options holds every flag shared across the four job subcommands.
type Options struct {
	ConfigRoot     string
	TenantSlug     string
	Table          string
	MetricsBackend string
	PushgatewayURL string
	JSONLogs       bool
	Verbose        bool
}

func buildEngine(opts *Options, jobName string) (*jobs.Engine, error) {
	logger, err := logging.New(logging.Config{JSON: opts.JSONLogs, Verbose: opts.Verbose})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	setupMetricsBackend(jobName, opts.MetricsBackend, opts.PushgatewayURL)
	return jobs.NewEngine(config.New(opts.ConfigRoot), logger.Named(jobName)), nil
}

func setupMetricsBackend(job, backendName, gwURLFlag string) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := gwURLFlag
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%s backend=%s job=%s", gwURL, backendName, job)
		metrics.SetBackend(b)
	case "", "none":
		// nop backend remains installed
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// runAndReport times job, prints a per-table summary, and flushes metrics.
// It returns an error only for a failure that happens before any table ran
// (tenant resolution, connection setup); per-table failures are surfaced in
// the printed summary and via the process exit code instead.
func runAndReport(jobName string, run func(ctx context.Context) (map[string]pipeline.TableOutcome, error)) error {
	ctx := context.Background()
	start := time.Now()

	perTable, err := run(ctx)
	if err != nil {
		return err
	}

	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}

	fmt.Printf("job=%s elapsed=%s\n", jobName, time.Since(start).Truncate(time.Millisecond))
	failed := false
	for table, result := range perTable {
		fmt.Printf("  table=%-24s status=%-14s rows_loaded=%d rows_filtered=%d elapsed_ms=%d\n",
			table, result.Status, result.RowsLoaded, result.RowsFiltered, result.ElapsedMs)
		if result.Err != nil {
			fmt.Printf("    failed_at=%s error=%v\n", result.FailedAt, result.Err)
		}
		if result.Status == pipeline.StatusFailed {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
	return nil
}
