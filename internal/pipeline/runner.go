package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"tenantetl/internal/blobstore"
	"tenantetl/internal/convert"
	"tenantetl/internal/dbctl"
	"tenantetl/internal/errs"
	"tenantetl/internal/frame"
	"tenantetl/internal/loader"
	"tenantetl/internal/schema"
	"tenantetl/internal/tenant"
	"tenantetl/internal/transform"
)

// RunTableRequest describes one run_table invocation.
type RunTableRequest struct {
	TableName string
	Mode      Mode
	Strategy  loader.Strategy
	// Truncate set to true with an empty Strategy selects
	// StrategyDimensionFullRefresh. It does not override a non-empty
	// Strategy: the load truncates exactly when the resulting strategy is
	// StrategyDimensionFullRefresh, and every other strategy appends.
	Truncate *bool
}

// Deps are the collaborators one Runner needs to drive a tenant's tables.
// All fields are required except Log, which defaults to a no-op logger.
type Deps struct {
	Ctx        *tenant.Context
	DB         *dbctl.Conn
	StreamLoad *loader.StreamLoadClient
	Fetcher    *blobstore.Fetcher
	Log        *zap.Logger
}

// Runner composes the stages for one tenant, matching the teacher's
// container.go role of wiring reader/transform/loader stages behind a
// single entry point, but re-run per (table, mode) instead of once per
// process lifetime.
type Runner struct {
	deps Deps
}

// NewRunner builds a Runner. deps.Log defaults to zap.NewNop() when nil.
func NewRunner(deps Deps) *Runner {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Runner{deps: deps}
}

// RunTable drives table through Discovered → Downloaded → Converted →
// Transformed → Validated → Loaded, returning a TableOutcome that never
// panics on a component failure — the failing stage's error is classified
// into a Failed(...) terminal state instead.
func (r *Runner) RunTable(ctx context.Context, req RunTableRequest) TableOutcome {
	start := time.Now()
	var transitions []Transition
	tick := func(s State, rows int) {
		transitions = append(transitions, Transition{State: s, ElapsedMs: time.Since(start).Milliseconds(), Rows: rows})
	}

	prefix, err := r.blobPrefix(req)
	if err != nil {
		return failed(req.TableName, StateDiscovered, transitions, time.Since(start).Milliseconds(), err)
	}
	if r.deps.Ctx.ComputedColumnFile != "" {
		if _, err := schema.LoadComputedColumns(r.deps.Ctx.ComputedColumnFile); err != nil {
			return failed(req.TableName, StateDiscovered, transitions, time.Since(start).Milliseconds(), err)
		}
	}
	destDir := r.destDir(req)

	blobs, err := r.deps.Fetcher.List(ctx, prefix)
	if err != nil {
		return failed(req.TableName, StateDiscovered, transitions, time.Since(start).Milliseconds(), err)
	}
	tick(StateDiscovered, len(blobs))

	files, err := r.deps.Fetcher.FetchAll(ctx, blobstore.FetchOptions{
		Prefix:        prefix,
		DestDir:       destDir,
		RetryAttempts: 3,
		ProgressEvery: 10,
	})
	if err != nil {
		return failed(req.TableName, StateDownloaded, transitions, time.Since(start).Milliseconds(), err)
	}
	tick(StateDownloaded, len(files))

	if isParquetBlob(files) {
		return r.runParquetPassthrough(ctx, req, files, destDir, transitions, start, tick)
	}

	bronze, skipped, err := r.convertAll(files)
	if err != nil {
		return failed(req.TableName, StateConverted, transitions, time.Since(start).Milliseconds(), err)
	}
	tick(StateConverted, bronze.NumRows())
	if skipped > 0 {
		r.deps.Log.Warn("convert dropped malformed rows", zap.String("table", req.TableName), zap.Int("skipped", skipped))
	}

	xf, err := r.buildTransformer(req.TableName)
	if err != nil {
		return failed(req.TableName, StateTransformed, transitions, time.Since(start).Milliseconds(), err)
	}
	silver, sum, err := xf.Apply(bronze)
	if err != nil {
		return failed(req.TableName, StateTransformed, transitions, time.Since(start).Milliseconds(), err)
	}
	tick(StateTransformed, silver.NumRows())
	r.deps.Log.Info("transform summary",
		zap.String("table", req.TableName),
		zap.Int("mapped", sum.MappedColumns),
		zap.Int("added_null", sum.AddedNullColumns),
		zap.Int("dropped", sum.DroppedColumns),
		zap.Int("computed", sum.ComputedColumns),
		zap.Int("filtered_out_rows", sum.FilteredOutRows),
	)

	// Validated and Loaded are both driven by loader.Load, which performs
	// live-schema fetch, pre-load validation, reorder, chunking, and
	// submission as one unit (spec.md §4.5.1-4.5.4 are one critical path
	// with no safe place to interleave caller code between them).
	tick(StateValidated, silver.NumRows())

	truncate := req.Strategy == loader.StrategyDimensionFullRefresh
	if req.Truncate != nil {
		truncate = *req.Truncate
	}
	strategy := req.Strategy
	if truncate && strategy == "" {
		strategy = loader.StrategyDimensionFullRefresh
	}

	outcome, err := loader.Load(ctx, r.deps.DB, r.deps.StreamLoad, silver, loader.LoadRequest{
		Strategy:      strategy,
		Table:         req.TableName,
		TenantSlug:    r.deps.Ctx.TenantSlug,
		WallClockDate: time.Now().UTC().Format("2006-01-02"),
		ChunkRows:     r.deps.Ctx.StreamLoad.ChunkRows,
		WideningCap:   r.deps.Ctx.StreamLoad.WideningCapBytes,
		StreamLoad: loader.StreamLoadConfig{
			FEHost:            r.deps.Ctx.DB.Host,
			FEHTTPPort:        r.deps.Ctx.DB.HTTPPort,
			Database:          r.deps.Ctx.DB.Database,
			User:              r.deps.Ctx.DB.User,
			Password:          r.deps.Ctx.DB.Password,
			TimeoutSeconds:    r.deps.Ctx.StreamLoad.TimeoutSeconds,
			MaxFilterRatio:    r.deps.Ctx.StreamLoad.MaxFilterRatio,
			StrictMode:        r.deps.Ctx.StreamLoad.StrictMode,
			ColumnSeparator:   r.deps.Ctx.StreamLoad.ColumnSeparator,
			SendColumnsHeader: r.deps.Ctx.StreamLoad.SendColumnsHeader,
		},
	})
	if err != nil {
		return failed(req.TableName, StateLoaded, transitions, time.Since(start).Milliseconds(), err)
	}
	tick(StateLoaded, int(outcome.RowsLoaded))

	status := StatusSuccess
	if outcome.RowsFiltered > 0 {
		status = StatusPartialSuccess
	}

	// Successful runs clean up their staging directory; failed runs retain
	// it for diagnostics until the next run of the same table overwrites it
	// (spec.md §5 "Shared resources").
	_ = os.RemoveAll(destDir)

	return TableOutcome{
		Table:        req.TableName,
		Status:       status,
		RowsLoaded:   outcome.RowsLoaded,
		RowsFiltered: outcome.RowsFiltered,
		ElapsedMs:    time.Since(start).Milliseconds(),
		Transitions:  transitions,
	}
}

func isParquetBlob(files []blobstore.FetchedFile) bool {
	if len(files) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(files[0].LocalPath), ".parquet")
}

// runParquetPassthrough routes Parquet blobs straight to
// loader.LoadRawFile, skipping Converted/Transformed entirely (see
// convert.ParquetConverter's doc comment). Validated is recorded as a
// synthetic tick for the same reason RunTable's CSV/XLSX path records one:
// there is no safe point to interleave caller code inside LoadRawFile.
func (r *Runner) runParquetPassthrough(ctx context.Context, req RunTableRequest, files []blobstore.FetchedFile, destDir string, transitions []Transition, start time.Time, tick func(State, int)) TableOutcome {
	truncate := req.Strategy == loader.StrategyDimensionFullRefresh
	if req.Truncate != nil {
		truncate = *req.Truncate
	}
	strategy := req.Strategy
	if truncate && strategy == "" {
		strategy = loader.StrategyDimensionFullRefresh
	}

	loadReq := loader.LoadRequest{
		Strategy:      strategy,
		Table:         req.TableName,
		TenantSlug:    r.deps.Ctx.TenantSlug,
		WallClockDate: time.Now().UTC().Format("2006-01-02"),
		ChunkRows:     r.deps.Ctx.StreamLoad.ChunkRows,
		WideningCap:   r.deps.Ctx.StreamLoad.WideningCapBytes,
		StreamLoad: loader.StreamLoadConfig{
			FEHost:         r.deps.Ctx.DB.Host,
			FEHTTPPort:     r.deps.Ctx.DB.HTTPPort,
			Database:       r.deps.Ctx.DB.Database,
			User:           r.deps.Ctx.DB.User,
			Password:       r.deps.Ctx.DB.Password,
			TimeoutSeconds: r.deps.Ctx.StreamLoad.TimeoutSeconds,
			MaxFilterRatio: r.deps.Ctx.StreamLoad.MaxFilterRatio,
			StrictMode:     r.deps.Ctx.StreamLoad.StrictMode,
		},
	}

	var rowsLoaded, rowsFiltered int64
	for i, fl := range files {
		// Only the first file's truncate actually truncates; subsequent
		// files in the same run must append to what the first just loaded.
		fileReq := loadReq
		if i > 0 {
			fileReq.Strategy = loader.StrategyDimensionIncremental
		}
		outcome, err := loader.LoadRawFile(ctx, r.deps.DB, r.deps.StreamLoad, fl.LocalPath, fileReq)
		if err != nil {
			return failed(req.TableName, StateLoaded, transitions, time.Since(start).Milliseconds(), err)
		}
		rowsLoaded += outcome.RowsLoaded
		rowsFiltered += outcome.RowsFiltered
	}
	tick(StateValidated, int(rowsLoaded))
	tick(StateLoaded, int(rowsLoaded))

	status := StatusSuccess
	if rowsFiltered > 0 {
		status = StatusPartialSuccess
	}
	_ = os.RemoveAll(destDir)

	return TableOutcome{
		Table:        req.TableName,
		Status:       status,
		RowsLoaded:   rowsLoaded,
		RowsFiltered: rowsFiltered,
		ElapsedMs:    time.Since(start).Milliseconds(),
		Transitions:  transitions,
	}
}

// blobPrefix resolves table's provider-native blob folder from the tenant's
// declared blob_prefixes mapping (spec.md §4.2/§8). Source folder names are
// not algorithmically derivable from the table name, so a table with no
// declared mapping is a configuration error, not a fallback to the raw
// table name.
func (r *Runner) blobPrefix(req RunTableRequest) (string, error) {
	base := r.deps.Ctx.Storage.Prefix
	sub := "incremental"
	if req.Mode == ModeHistorical {
		sub = "historical"
	}
	segment, ok := r.deps.Ctx.BlobPrefixes[req.TableName]
	if !ok {
		return "", errs.New(errs.KindDiscovery, errs.ReasonPrefixMissing, req.TableName, "no blob_prefixes entry for table "+req.TableName, nil)
	}
	return filepath.Join(base, sub, segment), nil
}

func (r *Runner) destDir(req RunTableRequest) string {
	if req.Mode == ModeHistorical {
		return filepath.Join(r.deps.Ctx.Paths.SourceFilesHistorical, req.TableName)
	}
	return filepath.Join(r.deps.Ctx.Paths.SourceFilesIncremental, req.TableName)
}

// convertAll converts every downloaded file and concatenates the results
// into one bronze frame, aligned on the first file's column set (spec.md
// §4.3's "faithful mirror of source" — files for one table share a shape).
func (r *Runner) convertAll(files []blobstore.FetchedFile) (*frame.Frame, int, error) {
	var out *frame.Frame
	totalSkipped := 0
	for _, fl := range files {
		conv, err := convert.ForFile(fl.LocalPath)
		if err != nil {
			return nil, 0, err
		}
		f, err := os.Open(fl.LocalPath)
		if err != nil {
			return nil, 0, errs.New(errs.KindConvert, errs.ReasonUnsupportedFormat, "", fl.LocalPath, err)
		}
		fr, skipped, err := conv.Convert(f)
		f.Close()
		if err != nil {
			return nil, 0, err
		}
		totalSkipped += skipped

		if out == nil {
			out = fr
			continue
		}
		aligned := fr.Project(out.Columns)
		for _, row := range aligned.Rows {
			if err := out.AppendRow(row); err != nil {
				return nil, 0, errs.New(errs.KindConvert, errs.ReasonUnsupportedFormat, "", fl.LocalPath, err)
			}
		}
	}
	if out == nil {
		out = frame.New(nil)
	}
	return out, totalSkipped, nil
}

// buildTransformer loads the tenant's mapping, computed-column rules, and
// row filters for one table and assembles a transform.Transformer.
func (r *Runner) buildTransformer(table string) (*transform.Transformer, error) {
	mapping, err := r.findMapping(table)
	if err != nil {
		return nil, err
	}

	var rules []schema.ComputedColumnRule
	if r.deps.Ctx.ComputedColumnFile != "" {
		sets, err := schema.LoadComputedColumns(r.deps.Ctx.ComputedColumnFile)
		if err != nil {
			return nil, err
		}
		for _, s := range sets {
			if s.Table == table {
				rules = s.Rules
				break
			}
		}
	}

	var filters []schema.RowFilter
	for _, f := range r.deps.Ctx.RowFilters {
		if f.Table == table {
			filters = append(filters, f)
		}
	}

	return &transform.Transformer{
		Mapping:        mapping,
		ComputedRules:  rules,
		Filters:        filters,
		CoercionPolicy: transform.CoerceToNull,
	}, nil
}

func (r *Runner) findMapping(table string) (schema.ColumnMapping, error) {
	for _, path := range r.deps.Ctx.ColumnMappingFiles {
		cm, err := schema.LoadColumnMapping(path)
		if err != nil {
			return schema.ColumnMapping{}, err
		}
		if cm.Table == table {
			return cm, nil
		}
	}
	return schema.ColumnMapping{}, errs.New(errs.KindTransform, errs.ReasonMissingMapping, table, fmt.Sprintf("no column_mappings entry for table %q", table), nil)
}
