// Package transform implements the silver-layer stage: applying a tenant's
// declared column mapping, type coercion, computed columns, and row filters
// to a bronze-layer frame.Frame, in that fixed order (spec.md §4.4). It
// generalizes the teacher's transformer.Chain — a simple ordered-apply
// pipeline over []records.Record — to frame.Frame's columnar shape. Each
// concern is one unexported function (applyMapping, applyCoercion,
// applyComputedRule, applyFilters), run in order by Transformer.Apply.
package transform

import (
	"tenantetl/internal/errs"
	"tenantetl/internal/frame"
	"tenantetl/internal/schema"
)

// Summary reports what each stage did. The pipeline runner logs it once
// per table after the Transformed transition.
type Summary struct {
	MappedColumns     int
	AddedNullColumns  int
	DroppedColumns    int
	CoercionFailures  map[string]int
	ComputedColumns   int
	FilteredOutRows   int
}

// Transformer applies one tenant table's mapping, coercion, computed
// columns, and filters to a bronze frame.
type Transformer struct {
	Mapping         schema.ColumnMapping
	ComputedRules   []schema.ComputedColumnRule
	Filters         []schema.RowFilter
	CoercionPolicy  CoercionPolicy // applied to every mapped column; mapping entries carry no policy of their own
}

// Apply runs the full silver-layer pipeline in order: mapping, coercion,
// computed columns, filters.
func (t *Transformer) Apply(f *frame.Frame) (*frame.Frame, Summary, error) {
	var sum Summary

	mapped, mapSum := applyMapping(f, t.Mapping)
	sum.MappedColumns = mapSum.mapped
	sum.AddedNullColumns = mapSum.added
	sum.DroppedColumns = mapSum.dropped

	coerced, failures, err := applyCoercion(mapped, t.Mapping, t.CoercionPolicy)
	if err != nil {
		return nil, sum, err
	}
	sum.CoercionFailures = failures

	ordered := schema.TopoSort(t.ComputedRules)
	computed := coerced
	for _, rule := range ordered {
		computed, err = applyComputedRule(computed, rule)
		if err != nil {
			return nil, sum, errs.New(errs.KindTransform, errs.ReasonMissingMapping, rule.Target, err.Error(), err)
		}
		sum.ComputedColumns++
	}

	before := computed.NumRows()
	filtered, err := applyFilters(computed, t.Filters)
	if err != nil {
		return nil, sum, err
	}
	sum.FilteredOutRows = before - filtered.NumRows()

	return filtered, sum, nil
}
