// Package prompush adapts metrics.Backend to a Prometheus Pushgateway,
// grounded on the teacher's internal/metrics/prompush package. A batch job
// that runs for minutes and exits has nothing listening for a scrape by the
// time it's done, so it pushes its registry once at the end instead of
// exposing a /metrics handler for scraping.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tenantetl/internal/metrics"
)

// Backend pushes the engine's fixed metric set to a Pushgateway under one
// grouping job name, set once at construction (normally the job entry point
// name: evening_dimension_refresh, morning_fact_incremental, ...).
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewBackend constructs a Backend. jobName defaults to "etl" when empty.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "etl"
	}

	reg := prometheus.NewRegistry()
	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        reg,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}

	b.counters["etl_stage_total"] = registerCounter(reg, "etl_stage_total", "Pipeline stage transitions by outcome.", "tenant", "table", "stage", "status")
	b.counters["etl_rows_total"] = registerCounter(reg, "etl_rows_total", "Rows observed by kind.", "tenant", "table", "kind")
	b.counters["etl_chunks_total"] = registerCounter(reg, "etl_chunks_total", "Stream Load chunks submitted.", "tenant", "table")
	b.counters["etl_chunk_retries_total"] = registerCounter(reg, "etl_chunk_retries_total", "Stream Load chunk retry attempts.", "tenant", "table")
	b.counters["etl_job_total"] = registerCounter(reg, "etl_job_total", "Job runs by outcome.", "tenant", "job", "status")

	b.histograms["etl_stage_duration_seconds"] = registerHistogram(reg, "etl_stage_duration_seconds", "Pipeline stage duration.", "tenant", "table", "stage", "status")
	b.histograms["etl_job_duration_seconds"] = registerHistogram(reg, "etl_job_duration_seconds", "Job run duration.", "tenant", "job", "status")

	return b, nil
}

func registerCounter(reg *prometheus.Registry, name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	reg.MustRegister(c)
	return c
}

func registerHistogram(reg *prometheus.Registry, name, help string, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help}, labels)
	reg.MustRegister(h)
	return h
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	c, ok := b.counters[name]
	if !ok {
		return
	}
	lv, err := labelValues(name, labels)
	if err != nil {
		return
	}
	c.WithLabelValues(lv...).Add(delta)
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	h, ok := b.histograms[name]
	if !ok {
		return
	}
	lv, err := labelValues(name, labels)
	if err != nil {
		return
	}
	h.WithLabelValues(lv...).Observe(value)
}

// Flush pushes the current registry to the Pushgateway under b.jobName.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}

var metricLabelOrder = map[string][]string{
	"etl_stage_total":            {"tenant", "table", "stage", "status"},
	"etl_rows_total":             {"tenant", "table", "kind"},
	"etl_chunks_total":           {"tenant", "table"},
	"etl_chunk_retries_total":    {"tenant", "table"},
	"etl_job_total":              {"tenant", "job", "status"},
	"etl_stage_duration_seconds": {"tenant", "table", "stage", "status"},
	"etl_job_duration_seconds":   {"tenant", "job", "status"},
}

func labelValues(name string, labels metrics.Labels) ([]string, error) {
	order, ok := metricLabelOrder[name]
	if !ok {
		return nil, fmt.Errorf("prompush: unknown metric %q", name)
	}
	out := make([]string, len(order))
	for i, k := range order {
		out[i] = labels[k]
	}
	return out, nil
}
