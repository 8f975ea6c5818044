package jobs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tenantetl/internal/convert"
	"tenantetl/internal/dbctl"
	"tenantetl/internal/errs"
	"tenantetl/internal/pipeline"
	"tenantetl/internal/schema"
	"tenantetl/internal/tenant"
	"tenantetl/internal/transform"
)

// SeedOutcome mirrors pipeline.JobOutcome's per-table shape for the
// seed_load entry point (spec.md §6.6).
type SeedOutcome struct {
	PerTable  map[string]pipeline.TableOutcome
	ElapsedMs int64
}

// SeedLoad loads one or all reference CSVs from a tenant's seeds/
// directory. When table is empty every seed CSV loads; otherwise only the
// CSV that maps to table (via SEED_MAPPING.yaml or its own base name) does.
// Seeds bypass Stream Load entirely: they're small reference tables loaded
// via dbctl.Conn.InsertRows rather than the chunked HTTP bulk path.
func (e *Engine) SeedLoad(ctx context.Context, tenantSlug, table string) (SeedOutcome, error) {
	start := time.Now()
	tc, err := e.Resolver.Get(tenantSlug)
	if err != nil {
		return SeedOutcome{}, err
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
		return SeedOutcome{}, err
	}
	defer conn.Close()

	mapping, err := schema.LoadSeedMapping(tc.SeedDir)
	if err != nil {
		return SeedOutcome{}, err
	}

	entries, err := os.ReadDir(tc.SeedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return SeedOutcome{PerTable: map[string]pipeline.TableOutcome{}}, nil
		}
		return SeedOutcome{}, errs.New(errs.KindConfig, errs.ReasonParseError, "", tc.SeedDir, err)
	}

	var csvPaths []string
	for _, en := range entries {
		if en.IsDir() || !strings.EqualFold(filepath.Ext(en.Name()), ".csv") {
			continue
		}
		csvPaths = append(csvPaths, filepath.Join(tc.SeedDir, en.Name()))
	}
	sort.Strings(csvPaths)

	out := SeedOutcome{PerTable: map[string]pipeline.TableOutcome{}}
	for _, path := range csvPaths {
		destTable := mapping.TableFor(path)
		if table != "" && destTable != table {
			continue
		}
		out.PerTable[destTable] = e.loadOneSeed(ctx, conn, tc, path, destTable)
	}
	out.ElapsedMs = time.Since(start).Milliseconds()
	return out, nil
}

func (e *Engine) loadOneSeed(ctx context.Context, conn *dbctl.Conn, tc *tenant.Context, path, destTable string) pipeline.TableOutcome {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return pipeline.TableOutcome{Table: destTable, Status: pipeline.StatusFailed, Err: err}
	}
	defer f.Close()

	conv := convert.NewCSVConverter(convert.CSVOptions{HasHeader: true, TrimSpace: true})
	bronze, skipped, err := conv.Convert(f)
	if err != nil {
		return pipeline.TableOutcome{Table: destTable, Status: pipeline.StatusFailed, Err: err}
	}
	if skipped > 0 {
		e.Log.Warn("seed convert dropped malformed rows",
			zap.String("table", destTable), zap.Int("skipped", skipped))
	}

	mapping, err := findMappingForTable(tc, destTable)
	if err != nil {
		return pipeline.TableOutcome{Table: destTable, Status: pipeline.StatusFailed, Err: err}
	}
	silver, sum := bronze, transform.Summary{}
	if len(mapping.Entries) > 0 {
		xf := transform.Transformer{Mapping: mapping, CoercionPolicy: transform.CoerceToNull}
		silver, sum, err = xf.Apply(bronze)
		if err != nil {
			return pipeline.TableOutcome{Table: destTable, Status: pipeline.StatusFailed, Err: err}
		}
	}

	n, err := conn.InsertRows(ctx, destTable, silver.Columns, silver.Rows)
	if err != nil {
		return pipeline.TableOutcome{Table: destTable, Status: pipeline.StatusFailed, Err: err}
	}

	status := pipeline.StatusSuccess
	if sum.FilteredOutRows > 0 {
		status = pipeline.StatusPartialSuccess
	}
	return pipeline.TableOutcome{
		Table:        destTable,
		Status:       status,
		RowsLoaded:   n,
		RowsFiltered: int64(sum.FilteredOutRows),
		ElapsedMs:    time.Since(start).Milliseconds(),
	}
}

// findMappingForTable looks up table's declared column mapping across the
// tenant's mapping files. A seed CSV with no declared mapping loads
// verbatim: its own header row becomes the target column list.
func findMappingForTable(tc *tenant.Context, table string) (schema.ColumnMapping, error) {
	for _, path := range tc.ColumnMappingFiles {
		cm, err := schema.LoadColumnMapping(path)
		if err != nil {
			return schema.ColumnMapping{}, err
		}
		if cm.Table == table {
			return cm, nil
		}
	}
	return schema.ColumnMapping{Table: table}, nil
}
