// Package metrics is a small backend-agnostic facade over per-stage and
// per-job counters/histograms, generalized from the teacher's
// internal/metrics package: a narrow Backend interface, a global pluggable
// instance defaulting to a no-op so instrumentation calls are always safe,
// and convenience recorders shaped around this engine's stage/job/table
// vocabulary instead of the teacher's reader/transformer/loader terms.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends, letting the rest
// of the engine depend only on this package while a concrete system
// (Prometheus, or any other) stays isolated in a subpackage.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStage times one pipeline state transition (spec.md §4.6) and
// counts it success/failure.
func RecordStage(tenantSlug, table, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"tenant": tenantSlug, "table": table, "stage": stage, "status": status}
	backend.IncCounter("etl_stage_total", 1, lbls)
	backend.ObserveHistogram("etl_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for one table, kind being one
// of "loaded", "filtered", "skipped_convert", "coercion_failed".
func RecordRows(tenantSlug, table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("etl_rows_total", float64(delta), Labels{"tenant": tenantSlug, "table": table, "kind": kind})
}

// RecordChunk increments the Stream Load chunk counter and its retry count.
func RecordChunk(tenantSlug, table string, retries int) {
	backend.IncCounter("etl_chunks_total", 1, Labels{"tenant": tenantSlug, "table": table})
	if retries > 0 {
		backend.IncCounter("etl_chunk_retries_total", float64(retries), Labels{"tenant": tenantSlug, "table": table})
	}
}

// RecordJob times one full job run and counts success/failure by name.
func RecordJob(tenantSlug, job string, success bool, d time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	lbls := Labels{"tenant": tenantSlug, "job": job, "status": status}
	backend.IncCounter("etl_job_total", 1, lbls)
	backend.ObserveHistogram("etl_job_duration_seconds", d.Seconds(), lbls)
}
