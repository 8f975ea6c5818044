package schema

import "sort"

// SortForCreation orders tables by their declared Ordinal, ascending, for
// deterministic DDL application during bootstrap/seed flows. Per spec.md
// §3's invariant, this ordering never affects runtime loads — it is only
// consulted by seed/schema-bootstrap tooling.
func SortForCreation(tables []TableSchema) []TableSchema {
	out := make([]TableSchema, len(tables))
	copy(out, tables)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// SortForDrop orders tables for teardown: the reverse of creation order, so
// views/matviews depending on base tables are dropped first when Ordinal is
// assigned with that dependency in mind.
func SortForDrop(tables []TableSchema) []TableSchema {
	out := SortForCreation(tables)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
