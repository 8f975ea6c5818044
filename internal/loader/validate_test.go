package loader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/dbctl"
	"tenantetl/internal/frame"
	"tenantetl/internal/loader"
)

func ptr(n int64) *int64 { return &n }

func liveSchema() []dbctl.ColumnInfo {
	return []dbctl.ColumnInfo{
		{OrdinalPosition: 1, ColumnName: "id", DataType: "bigint", IsNullable: "NO"},
		{OrdinalPosition: 2, ColumnName: "name", DataType: "varchar", IsNullable: "NO", CharMaxLength: ptr(8)},
		{OrdinalPosition: 3, ColumnName: "region", DataType: "varchar", IsNullable: "YES", CharMaxLength: ptr(16)},
	}
}

func TestValidateFillsMissingNullableColumn(t *testing.T) {
	f := frame.New([]string{"id", "name"})
	_ = f.AppendRow([]any{int64(1), "alice"})
	out, result, err := loader.Validate(f, liveSchema())
	require.NoError(t, err)
	require.Contains(t, out.Columns, "region")
	require.Equal(t, 1, result.FilledMissingNonNullable["region"])
}

func TestValidateRejectsMissingNonNullableColumn(t *testing.T) {
	f := frame.New([]string{"name"})
	_ = f.AppendRow([]any{"alice"})
	_, _, err := loader.Validate(f, liveSchema())
	require.Error(t, err)
}

func TestValidateDropsExtraColumns(t *testing.T) {
	f := frame.New([]string{"id", "name", "legacy_flag"})
	_ = f.AppendRow([]any{int64(1), "alice", "Y"})
	out, result, err := loader.Validate(f, liveSchema())
	require.NoError(t, err)
	require.Equal(t, -1, out.IndexOf("legacy_flag"))
	require.Contains(t, result.DroppedExtraColumns, "legacy_flag")
}

func TestValidateDetectsWideningNeed(t *testing.T) {
	f := frame.New([]string{"id", "name"})
	_ = f.AppendRow([]any{int64(1), "a_very_long_name_value"})
	_, result, err := loader.Validate(f, liveSchema())
	require.NoError(t, err)
	require.Equal(t, len("a_very_long_name_value"), result.WideningNeeded["name"])
}

func TestCheckNumericOverflowRejectsOutOfRangeValue(t *testing.T) {
	f := frame.New([]string{"small_int"})
	_ = f.AppendRow([]any{"99999"})
	require.Error(t, loader.CheckNumericOverflow(f, "small_int", 8))
}

func TestCheckNumericOverflowAcceptsInRangeValue(t *testing.T) {
	f := frame.New([]string{"small_int"})
	_ = f.AppendRow([]any{"100"})
	require.NoError(t, loader.CheckNumericOverflow(f, "small_int", 8))
}

func TestCheckNumericOverflowAgainstSchemaRejectsOutOfRangeIntColumn(t *testing.T) {
	f := frame.New([]string{"id", "rank"})
	_ = f.AppendRow([]any{int64(1), "999"})
	cols := []dbctl.ColumnInfo{
		{ColumnName: "id", DataType: "bigint"},
		{ColumnName: "rank", DataType: "tinyint"},
	}
	err := loader.CheckNumericOverflowAgainstSchema(f, cols)
	require.Error(t, err)
}

func TestCheckNumericOverflowAgainstSchemaSkipsNonIntegerTypes(t *testing.T) {
	f := frame.New([]string{"id", "name"})
	_ = f.AppendRow([]any{int64(1), "a_very_long_value_that_is_not_numeric_at_all"})
	err := loader.CheckNumericOverflowAgainstSchema(f, liveSchema())
	require.NoError(t, err)
}
