package frame_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/frame"
)

func sample() *frame.Frame {
	f := frame.New([]string{"id", "name", "amount"})
	_ = f.AppendRow([]any{1, "alice", 10.5})
	_ = f.AppendRow([]any{2, "bob", nil})
	_ = f.AppendRow([]any{3, "carol", 7.25})
	return f
}

func TestProjectReordersAndFillsMissingWithNull(t *testing.T) {
	f := sample()
	out := f.Project([]string{"amount", "id", "region"})
	require.Equal(t, []string{"amount", "id", "region"}, out.Columns)
	require.Equal(t, []any{10.5, 1, nil}, out.Rows[0])
	require.Equal(t, []any{nil, 2, nil}, out.Rows[1])
}

func TestProjectDoesNotMutateSource(t *testing.T) {
	f := sample()
	_ = f.Project([]string{"name"})
	require.Equal(t, []string{"id", "name", "amount"}, f.Columns)
	require.Equal(t, 1, f.Rows[0][0])
}

func TestWithColumnAddsNewColumn(t *testing.T) {
	f := sample()
	out, err := f.WithColumn("doubled", []any{21.0, nil, 14.5})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "amount", "doubled"}, out.Columns)
	require.Len(t, f.Columns, 3)
}

func TestWithColumnReplacesExisting(t *testing.T) {
	f := sample()
	out, err := f.WithColumn("amount", []any{1.0, 2.0, 3.0})
	require.NoError(t, err)
	require.Equal(t, 3, out.NumCols())
	v, ok := out.Column("amount")
	require.True(t, ok)
	require.Equal(t, []any{1.0, 2.0, 3.0}, v)
}

func TestFilterKeepsMatchingRowsOnly(t *testing.T) {
	f := sample()
	idx := f.IndexOf("amount")
	out := f.Filter(func(row []any) bool { return row[idx] != nil })
	require.Equal(t, 2, out.NumRows())
}

func TestDropColumnsRemovesNamedColumns(t *testing.T) {
	f := sample()
	out := f.DropColumns(map[string]struct{}{"name": {}})
	require.Equal(t, []string{"id", "amount"}, out.Columns)
}

func TestAppendRowRejectsWidthMismatch(t *testing.T) {
	f := frame.New([]string{"a", "b"})
	require.Error(t, f.AppendRow([]any{1}))
}
