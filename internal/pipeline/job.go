package pipeline

import (
	"context"
	"time"
)

// JobSpec is a flat list of tables to run in sequence, matching spec.md
// §5's default scheduling model (tables within one tenant and one job run
// sequentially unless a job spec declares explicit parallelism, which this
// engine does not implement — see DESIGN.md "Open Questions resolved").
type JobSpec struct {
	Name string
	// FailFast stops the remaining tables in this job as soon as one
	// table's error must abort the job (errs.AbortsJob), rather than only
	// surfacing it in the aggregated outcome.
	FailFast bool
	Tables   []RunTableRequest
}

// JobOutcome aggregates every table's result under one job run, matching
// spec.md §6.6's `JobOutcome = {per_table: map<name, {...}>}` shape.
type JobOutcome struct {
	Name      string
	PerTable  map[string]TableOutcome
	ElapsedMs int64
}

// Success reports whether every table in the outcome is Success or
// PartialSuccess.
func (o JobOutcome) Success() bool {
	for _, t := range o.PerTable {
		if t.Status == StatusFailed {
			return false
		}
	}
	return true
}

// RunJob loops over spec.Tables and aggregates their outcomes. The runner
// itself never retries a failed table; that is left to a caller re-invoking
// the whole job (spec.md §4.6 "Error-classification policy").
func (r *Runner) RunJob(ctx context.Context, spec JobSpec) JobOutcome {
	start := time.Now()
	out := JobOutcome{Name: spec.Name, PerTable: make(map[string]TableOutcome, len(spec.Tables))}

	for _, req := range spec.Tables {
		result := r.RunTable(ctx, req)
		out.PerTable[req.TableName] = result
		if result.Status == StatusFailed && spec.FailFast && result.AbortsJob() {
			break
		}
	}

	out.ElapsedMs = time.Since(start).Milliseconds()
	return out
}
