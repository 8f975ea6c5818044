// Package jobs implements spec.md §6.6's four named engine entry points,
// the boundary a scheduler calls into. It generalizes the teacher's single
// runStreamed entry point (one process invocation runs exactly one static
// pipeline config) into a small set of named operations, each resolving a
// tenant.Context via config.Resolver, wiring up the per-tenant collaborators
// (dbctl.Conn, blobstore.Provider, StreamLoadClient), and delegating the
// actual per-table work to pipeline.Runner.
package jobs

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"tenantetl/internal/blobstore"
	"tenantetl/internal/config"
	"tenantetl/internal/constants"
	"tenantetl/internal/dbctl"
	"tenantetl/internal/errs"
	"tenantetl/internal/loader"
	"tenantetl/internal/metrics"
	"tenantetl/internal/pipeline"
	"tenantetl/internal/tenant"
	"tenantetl/internal/transform"
)

// Engine resolves tenants and runs their named jobs.
type Engine struct {
	Resolver *config.Resolver
	Log      *zap.Logger
}

// NewEngine builds an Engine. log defaults to zap.NewNop() when nil.
func NewEngine(resolver *config.Resolver, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Resolver: resolver, Log: log}
}

// tenantRunner resolves a tenant and builds a pipeline.Runner plus the
// dbctl.Conn the caller must Close.
func (e *Engine) tenantRunner(ctx context.Context, tenantSlug string) (*pipeline.Runner, *dbctl.Conn, *tenant.Context, error) {
	tc, err := e.Resolver.Get(tenantSlug)
	if err != nil {
		return nil, nil, nil, err
	}

	conn, err := dbctl.Open(ctx, dbctl.Config{
		Host:     tc.DB.Host,
		Port:     tc.DB.Port,
		User:     tc.DB.User,
		Password: tc.DB.Password,
		Database: tc.DB.Database,
		PoolMax:  tc.DB.PoolMax,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	provider, err := blobstore.New(tc.Storage.Kind,
		blobstore.LocalConfig{Root: tc.Storage.Root},
		blobstore.ObjectConfig{
			Endpoint:  tc.Storage.Endpoint,
			Region:    tc.Storage.Region,
			Bucket:    tc.Storage.Bucket,
			Prefix:    tc.Storage.Prefix,
			AccessKey: tc.Storage.AccessKey,
			SecretKey: tc.Storage.SecretKey,
			Anonymous: tc.Storage.Anonymous,
		},
	)
	if err != nil {
		conn.Close()
		return nil, nil, nil, err
	}

	if err := e.loadBusinessConstants(ctx, tc); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}

	fetcher := blobstore.NewFetcher(provider, e.Log)
	client := loader.NewStreamLoadClient(time.Duration(tc.StreamLoad.TimeoutSeconds) * time.Second)

	runner := pipeline.NewRunner(pipeline.Deps{
		Ctx:        tc,
		DB:         conn,
		StreamLoad: client,
		Fetcher:    fetcher,
		Log:        e.Log,
	})
	return runner, conn, tc, nil
}

func truncatePtr(v bool) *bool { return &v }

// constantsLookupTable is the name a schema.ComputedLookup rule references
// to join against a tenant's business constants (spec.md §6.5).
const constantsLookupTable = "business_constants"

// loadBusinessConstants reads every business constant declared for tc and
// registers them via transform.RegisterLookupTable, for schema.ComputedLookup
// rules, keyed by bare constant name, so a computed column can pull in a slowly changing reference value
// (a tax rate, a region code map) without the pipeline ever querying the
// constants backend itself. A tenant with no constants backend configured
// skips this step entirely rather than treating it as an error.
func (e *Engine) loadBusinessConstants(ctx context.Context, tc *tenant.Context) error {
	if tc.ConstantsBackendKind == "" || tc.ConstantsDSN == "" {
		return nil
	}

	var backend constants.Backend
	var err error
	switch tc.ConstantsBackendKind {
	case "relational":
		backend, err = constants.NewRelationalBackend(ctx, tc.ConstantsDSN, tc.TenantID, "")
	case "document":
		backend, err = constants.NewDocumentBackend(ctx, tc.ConstantsDSN, "", "", tc.TenantID)
	default:
		return errs.New(errs.KindConfig, errs.ReasonUnsupportedProvider, "", tc.ConstantsBackendKind, nil)
	}
	if err != nil {
		return err
	}
	defer backend.Close()

	raw, err := backend.List(ctx, "")
	if err != nil {
		return err
	}

	prefix := constants.SecretPrefix(tc.TenantID)
	rows := make(map[string]map[string]any, len(raw))
	for k, v := range raw {
		name := strings.TrimPrefix(k, prefix)
		rows[name] = map[string]any{"value": v}
	}
	transform.RegisterLookupTable(constantsLookupTable, rows)
	return nil
}

// EveningDimensionRefresh full-refreshes every table declared under
// tc.DimensionTables.
func (e *Engine) EveningDimensionRefresh(ctx context.Context, tenantSlug string) (pipeline.JobOutcome, error) {
	runner, conn, tc, err := e.tenantRunner(ctx, tenantSlug)
	if err != nil {
		return pipeline.JobOutcome{}, err
	}
	defer conn.Close()

	spec := pipeline.JobSpec{Name: "evening_dimension_refresh", FailFast: true}
	for _, table := range tc.DimensionTables {
		spec.Tables = append(spec.Tables, pipeline.RunTableRequest{
			TableName: table,
			Mode:      pipeline.ModeHistorical,
			Strategy:  loader.StrategyDimensionFullRefresh,
			Truncate:  truncatePtr(true),
		})
	}
	return e.runAndRecord(ctx, runner, tc, spec), nil
}

// MorningDimensionIncremental appends today's dimension blob partition
// without truncating.
func (e *Engine) MorningDimensionIncremental(ctx context.Context, tenantSlug string) (pipeline.JobOutcome, error) {
	runner, conn, tc, err := e.tenantRunner(ctx, tenantSlug)
	if err != nil {
		return pipeline.JobOutcome{}, err
	}
	defer conn.Close()

	spec := pipeline.JobSpec{Name: "morning_dimension_incremental"}
	for _, table := range tc.DimensionTables {
		spec.Tables = append(spec.Tables, pipeline.RunTableRequest{
			TableName: table,
			Mode:      pipeline.ModeIncremental,
			Strategy:  loader.StrategyDimensionIncremental,
			Truncate:  truncatePtr(false),
		})
	}
	return e.runAndRecord(ctx, runner, tc, spec), nil
}

// MorningFactIncremental appends one fact table's incremental partition.
// Fact tables never truncate under any strategy (spec.md §4.5.3).
func (e *Engine) MorningFactIncremental(ctx context.Context, tenantSlug, table string) (pipeline.JobOutcome, error) {
	runner, conn, tc, err := e.tenantRunner(ctx, tenantSlug)
	if err != nil {
		return pipeline.JobOutcome{}, err
	}
	defer conn.Close()

	if err := e.validateFactTable(tc, table); err != nil {
		return pipeline.JobOutcome{}, err
	}

	spec := pipeline.JobSpec{
		Name: "morning_fact_incremental",
		Tables: []pipeline.RunTableRequest{{
			TableName: table,
			Mode:      pipeline.ModeIncremental,
			Strategy:  loader.StrategyFactIncremental,
			Truncate:  truncatePtr(false),
		}},
	}
	return e.runAndRecord(ctx, runner, tc, spec), nil
}

func (e *Engine) runAndRecord(ctx context.Context, runner *pipeline.Runner, tc *tenant.Context, spec pipeline.JobSpec) pipeline.JobOutcome {
	start := time.Now()
	out := runner.RunJob(ctx, spec)
	metrics.RecordJob(tc.TenantSlug, spec.Name, out.Success(), time.Since(start))
	for table, result := range out.PerTable {
		metrics.RecordRows(tc.TenantSlug, table, "loaded", result.RowsLoaded)
		metrics.RecordRows(tc.TenantSlug, table, "filtered", result.RowsFiltered)
		if result.Err != nil {
			e.Log.Error("table run failed",
				zap.String("tenant", tc.TenantSlug),
				zap.String("table", table),
				zap.String("failed_at", string(result.FailedAt)),
				zap.Error(result.Err),
			)
		}
	}
	return out
}

// validateFactTable rejects a table not declared under the tenant's
// fact_tables config, catching a scheduler typo before any network I/O.
func (e *Engine) validateFactTable(tc *tenant.Context, table string) error {
	for _, t := range tc.FactTables {
		if t == table {
			return nil
		}
	}
	return errs.New(errs.KindConfig, errs.ReasonInvalidTenant, table, "not declared under fact_tables", nil)
}
