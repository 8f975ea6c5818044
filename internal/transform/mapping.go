package transform

import (
	"tenantetl/internal/frame"
	"tenantetl/internal/schema"
)

type mappingSummary struct {
	mapped  int
	added   int
	dropped int
}

// applyMapping renames bronze columns to their declared target names,
// fills in target columns absent from the source with NULL (or the
// mapping's declared default), and drops source columns that have no
// mapping entry. Order of the output frame follows mapping.TargetNames(),
// not the source's column order — column order is only made final later,
// at serialization time, by internal/loader (spec.md §3's critical
// invariant: column order must be reconciled against live schema, not
// assumed from mapping declaration order).
func applyMapping(f *frame.Frame, mapping schema.ColumnMapping) (*frame.Frame, mappingSummary) {
	var sum mappingSummary
	targets := mapping.TargetNames()
	out := frame.New(targets)
	out.Rows = make([][]any, f.NumRows())
	for i := range out.Rows {
		out.Rows[i] = make([]any, len(targets))
	}

	byTarget := mapping.ByTarget()
	for ti, target := range targets {
		entry, ok := byTarget[target]
		if !ok {
			continue
		}
		srcIdx := f.IndexOf(entry.Source)
		if srcIdx < 0 {
			sum.added++
			var def any
			if entry.Default != nil {
				def = *entry.Default
			}
			for r := range out.Rows {
				out.Rows[r][ti] = def
			}
			continue
		}
		sum.mapped++
		for r, row := range f.Rows {
			out.Rows[r][ti] = row[srcIdx]
		}
	}

	mappedSources := make(map[string]struct{}, len(mapping.Entries))
	for _, e := range mapping.Entries {
		mappedSources[e.Source] = struct{}{}
	}
	for _, c := range f.Columns {
		if _, ok := mappedSources[c]; !ok {
			sum.dropped++
		}
	}

	return out, sum
}
