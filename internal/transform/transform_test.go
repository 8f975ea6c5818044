package transform_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/frame"
	"tenantetl/internal/schema"
	"tenantetl/internal/transform"
)

func bronzeFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New([]string{"Order_Id", "Unit_Price", "Qty", "Status"})
	_ = f.AppendRow([]any{"1", "10.00", "2", "active"})
	_ = f.AppendRow([]any{"2", "5.00", "0", "cancelled"})
	_ = f.AppendRow([]any{"3", "bad", "3", "active"})
	return f
}

func def(s string) *string { return &s }

func basicMapping() schema.ColumnMapping {
	return schema.ColumnMapping{
		Table: "orders",
		Entries: []schema.ColumnMappingEntry{
			{Source: "Order_Id", Target: "order_id", Type: "int"},
			{Source: "Unit_Price", Target: "unit_price", Type: "float"},
			{Source: "Qty", Target: "qty", Type: "int"},
			{Source: "Status", Target: "status", Type: "string"},
			{Source: "Missing_Source", Target: "region", Type: "string", Default: def("unknown")},
		},
	}
}

func TestApplyMapsRenamesAddsAndDrops(t *testing.T) {
	tr := &transform.Transformer{Mapping: basicMapping()}
	out, sum, err := tr.Apply(bronzeFrame(t))
	require.NoError(t, err)
	require.Equal(t, []string{"order_id", "unit_price", "qty", "status", "region"}, out.Columns)
	require.Equal(t, 4, sum.MappedColumns)
	require.Equal(t, 1, sum.AddedNullColumns)
	v, ok := out.Column("region")
	require.True(t, ok)
	require.Equal(t, "unknown", v[0])
}

func TestApplyCoercionDefaultsFailuresToNull(t *testing.T) {
	tr := &transform.Transformer{Mapping: basicMapping()}
	out, sum, err := tr.Apply(bronzeFrame(t))
	require.NoError(t, err)
	require.Equal(t, 1, sum.CoercionFailures["unit_price"])
	v, _ := out.Column("unit_price")
	require.Equal(t, 10.0, v[0])
	require.Nil(t, v[2])
}

func TestApplyComputedConcatenationAndSafeDivision(t *testing.T) {
	mapping := basicMapping()
	tr := &transform.Transformer{
		Mapping: mapping,
		ComputedRules: []schema.ComputedColumnRule{
			{Target: "label", Kind: schema.ComputedConcat, Sources: []string{"order_id", "status"}, Separator: "-"},
			{Target: "per_unit", Kind: schema.ComputedArith, Expr: "unit_price / qty"},
		},
	}
	out, sum, err := tr.Apply(bronzeFrame(t))
	require.NoError(t, err)
	require.Equal(t, 2, sum.ComputedColumns)

	label, _ := out.Column("label")
	require.Equal(t, "1-active", label[0])

	perUnit, _ := out.Column("per_unit")
	require.Equal(t, 5.0, perUnit[0])
	require.Nil(t, perUnit[1], "division by zero qty must yield NULL, not a panic or error")
}

func TestApplyFiltersRunLastAndCanReferenceComputedColumns(t *testing.T) {
	mapping := basicMapping()
	tr := &transform.Transformer{
		Mapping: mapping,
		ComputedRules: []schema.ComputedColumnRule{
			{Target: "is_active", Kind: schema.ComputedTransform, Sources: []string{"status"}, Function: "upper"},
		},
		Filters: []schema.RowFilter{
			{Column: "is_active", Op: "eq", Values: []string{"ACTIVE"}},
		},
	}
	out, sum, err := tr.Apply(bronzeFrame(t))
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, 1, sum.FilteredOutRows)
}

func TestApplyUppercasesDeclaredCodeColumn(t *testing.T) {
	f := frame.New([]string{"Dealer_Code"})
	_ = f.AppendRow([]any{" ab12 "})
	mapping := schema.ColumnMapping{
		Table: "dealers",
		Entries: []schema.ColumnMappingEntry{
			{Source: "Dealer_Code", Target: "dealer_code", Type: "string", Uppercase: true},
		},
	}
	tr := &transform.Transformer{Mapping: mapping}
	out, _, err := tr.Apply(f)
	require.NoError(t, err)
	v, _ := out.Column("dealer_code")
	require.Equal(t, "AB12", v[0])
}

func TestApplyRoundsDecimalToConfiguredPrecision(t *testing.T) {
	f := frame.New([]string{"Amount"})
	_ = f.AppendRow([]any{"10.9961"})
	prec := 2
	mapping := schema.ColumnMapping{
		Table: "orders",
		Entries: []schema.ColumnMappingEntry{
			{Source: "Amount", Target: "amount", Type: "decimal", DecimalPrecision: &prec},
		},
	}
	tr := &transform.Transformer{Mapping: mapping}
	out, _, err := tr.Apply(f)
	require.NoError(t, err)
	v, _ := out.Column("amount")
	require.Equal(t, 11.0, v[0])
}

func TestApplyParsesDateWithPerColumnFormat(t *testing.T) {
	f := frame.New([]string{"Order_Date"})
	_ = f.AppendRow([]any{"04/15/2023"})
	mapping := schema.ColumnMapping{
		Table: "orders",
		Entries: []schema.ColumnMappingEntry{
			{Source: "Order_Date", Target: "order_date", Type: "date", DateFormat: "01/02/2006"},
		},
	}
	tr := &transform.Transformer{Mapping: mapping}
	out, _, err := tr.Apply(f)
	require.NoError(t, err)
	v, _ := out.Column("order_date")
	got, ok := v[0].(time.Time)
	require.True(t, ok)
	require.Equal(t, 2023, got.Year())
	require.Equal(t, time.April, got.Month())
}

func TestApplyFilterGteKeepsOnlyDatesOnOrAfterThreshold(t *testing.T) {
	f := frame.New([]string{"Order_Date"})
	_ = f.AppendRow([]any{"2023-03-15"})
	_ = f.AppendRow([]any{"2023-04-01"})
	_ = f.AppendRow([]any{"2023-06-30"})
	mapping := schema.ColumnMapping{
		Table: "orders",
		Entries: []schema.ColumnMappingEntry{
			{Source: "Order_Date", Target: "order_date", Type: "date"},
		},
	}
	tr := &transform.Transformer{
		Mapping: mapping,
		Filters: []schema.RowFilter{
			{Column: "order_date", Op: "gte", Values: []string{"2023-04-01"}},
		},
	}
	out, sum, err := tr.Apply(f)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, 1, sum.FilteredOutRows)
}

func TestApplyLookupComputedColumn(t *testing.T) {
	transform.RegisterLookupTable("status_codes", map[string]map[string]any{
		"active":    {"code": "A"},
		"cancelled": {"code": "C"},
	})
	mapping := basicMapping()
	tr := &transform.Transformer{
		Mapping: mapping,
		ComputedRules: []schema.ComputedColumnRule{
			{Target: "status_code", Kind: schema.ComputedLookup, Table: "status_codes", Key: "status", Field: "code"},
		},
	}
	out, _, err := tr.Apply(bronzeFrame(t))
	require.NoError(t, err)
	v, _ := out.Column("status_code")
	require.Equal(t, "A", v[0])
	require.Equal(t, "C", v[1])
}
