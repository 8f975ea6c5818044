package loader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/dbctl"
	"tenantetl/internal/frame"
	"tenantetl/internal/loader"
)

// TestReorderForSerializationFollowsLiveColumnOrderNotMappingOrder proves
// the critical invariant: a frame built in declared-mapping order must be
// projected onto the database's current physical column order before
// serialization, even when that order has drifted (e.g. a column was added
// to the live table after the mapping was declared).
func TestReorderForSerializationFollowsLiveColumnOrderNotMappingOrder(t *testing.T) {
	f := frame.New([]string{"name", "id", "region"})
	_ = f.AppendRow([]any{"alice", int64(1), "east"})

	liveCols := []dbctl.ColumnInfo{
		{OrdinalPosition: 1, ColumnName: "id"},
		{OrdinalPosition: 2, ColumnName: "region"},
		{OrdinalPosition: 3, ColumnName: "name"},
	}

	reordered := loader.ReorderForSerialization(f, liveCols)
	require.Equal(t, []string{"id", "region", "name"}, reordered.Columns)
	require.Equal(t, []any{int64(1), "east", "alice"}, reordered.Rows[0])
}

func TestReorderForSerializationFillsNullForColumnAbsentFromFrame(t *testing.T) {
	f := frame.New([]string{"id"})
	_ = f.AppendRow([]any{int64(7)})

	liveCols := []dbctl.ColumnInfo{
		{OrdinalPosition: 1, ColumnName: "id"},
		{OrdinalPosition: 2, ColumnName: "added_later"},
	}
	reordered := loader.ReorderForSerialization(f, liveCols)
	require.Equal(t, []any{int64(7), nil}, reordered.Rows[0])
}
