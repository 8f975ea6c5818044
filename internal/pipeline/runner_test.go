package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/blobstore"
	"tenantetl/internal/schema"
	"tenantetl/internal/tenant"
)

func TestConvertAllAlignsSubsequentFilesToFirstFilesColumns(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.csv")
	f2 := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(f1, []byte("id,name\n1,alice\n"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("name,id,extra\nbob,2,ignored\n"), 0o644))

	r := &Runner{deps: Deps{Ctx: &tenant.Context{}}}
	out, skipped, err := r.convertAll([]blobstore.FetchedFile{
		{Key: "a.csv", LocalPath: f1},
		{Key: "b.csv", LocalPath: f2},
	})
	require.NoError(t, err)
	require.Equal(t, 0, skipped)
	require.Equal(t, []string{"id", "name"}, out.Columns)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, []any{"2", "bob"}, out.Rows[1])
}

func TestBuildTransformerErrorsWhenNoMappingForTable(t *testing.T) {
	r := &Runner{deps: Deps{Ctx: &tenant.Context{}}}
	_, err := r.buildTransformer("orders")
	require.Error(t, err)
}

func TestBuildTransformerCollectsRulesAndFiltersForItsTableOnly(t *testing.T) {
	dir := t.TempDir()
	mappingPath := filepath.Join(dir, "orders.yaml")
	require.NoError(t, os.WriteFile(mappingPath, []byte(`
table: orders
entries:
  - source: id
    target: order_id
    type: bigint
`), 0o644))

	computedPath := filepath.Join(dir, "computed_columns.yaml")
	require.NoError(t, os.WriteFile(computedPath, []byte(`
- table: orders
  rules:
    - target: full_id
      kind: concatenation
      sources: [order_id]
      separator: "-"
- table: customers
  rules:
    - target: full_name
      kind: concatenation
      sources: [first]
`), 0o644))

	ctx := &tenant.Context{
		ColumnMappingFiles: []string{mappingPath},
		ComputedColumnFile: computedPath,
		RowFilters: []schema.RowFilter{
			{Table: "orders", Column: "order_id", Op: "gte", Values: []string{"1"}},
			{Table: "customers", Column: "full_name", Op: "eq", Values: []string{"x"}},
		},
	}
	r := &Runner{deps: Deps{Ctx: ctx}}

	xf, err := r.buildTransformer("orders")
	require.NoError(t, err)
	require.Equal(t, "orders", xf.Mapping.Table)
	require.Len(t, xf.ComputedRules, 1)
	require.Equal(t, "full_id", xf.ComputedRules[0].Target)
	require.Len(t, xf.Filters, 1)
	require.Equal(t, "order_id", xf.Filters[0].Column)
}

func TestBlobPrefixUsesDeclaredMappingNotTableName(t *testing.T) {
	ctx := &tenant.Context{
		Storage:      tenant.StorageConfig{Prefix: "tenants/demo"},
		BlobPrefixes: map[string]string{"dim_dealer_master": "DimDealer_MS"},
	}
	r := &Runner{deps: Deps{Ctx: ctx}}

	prefix, err := r.blobPrefix(RunTableRequest{TableName: "dim_dealer_master", Mode: ModeIncremental})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("tenants/demo", "incremental", "DimDealer_MS"), prefix)
}

func TestBlobPrefixErrorsWhenTableHasNoDeclaredMapping(t *testing.T) {
	r := &Runner{deps: Deps{Ctx: &tenant.Context{}}}
	_, err := r.blobPrefix(RunTableRequest{TableName: "orders"})
	require.Error(t, err)
}

func TestJobOutcomeSuccessFalseWhenAnyTableFailed(t *testing.T) {
	out := JobOutcome{PerTable: map[string]TableOutcome{
		"orders":    {Status: StatusSuccess},
		"customers": {Status: StatusFailed},
	}}
	require.False(t, out.Success())
}

func TestJobOutcomeSuccessTrueWithPartialSuccess(t *testing.T) {
	out := JobOutcome{PerTable: map[string]TableOutcome{
		"orders": {Status: StatusPartialSuccess},
	}}
	require.True(t, out.Success())
}
