package loader

import (
	"tenantetl/internal/dbctl"
	"tenantetl/internal/frame"
)

// ReorderForSerialization projects f onto the live column order reported by
// DescribeTable. This is the single most important invariant in the engine
// (spec.md §3): StarRocks Stream Load is positional, so a frame serialized
// in ColumnMapping declaration order — rather than the database's current
// physical column order — silently shifts every value into the wrong
// column the moment the two orders diverge (e.g. after a manual ALTER TABLE
// ADD COLUMN on the destination). Every call path that serializes a chunk
// for Stream Load MUST go through this function immediately beforehand,
// using a live DescribeTable result fetched no earlier than validation for
// the same chunk.
func ReorderForSerialization(f *frame.Frame, liveCols []dbctl.ColumnInfo) *frame.Frame {
	return f.Project(dbctl.ColumnOrder(liveCols))
}
