package prompush

import (
	"testing"

	"github.com/stretchr/testify/require"
	dto "github.com/prometheus/client_model/go"

	"tenantetl/internal/metrics"
)

func TestNewBackendRequiresGatewayURL(t *testing.T) {
	_, err := NewBackend("evening_dimension_refresh", "")
	require.Error(t, err)
}

func TestNewBackendDefaultsJobName(t *testing.T) {
	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	require.Equal(t, "etl", b.jobName)
}

func TestIncCounterIgnoresUnknownMetricName(t *testing.T) {
	b, err := NewBackend("seed_load", "http://pushgateway:9091")
	require.NoError(t, err)
	require.NotPanics(t, func() {
		b.IncCounter("not_a_real_metric", 1, metrics.Labels{})
	})
}

func TestIncCounterRoutesByLabelOrder(t *testing.T) {
	b, err := NewBackend("seed_load", "http://pushgateway:9091")
	require.NoError(t, err)
	b.IncCounter("etl_rows_total", 3, metrics.Labels{"tenant": "acme", "table": "orders", "kind": "loaded"})

	c, err := b.counters["etl_rows_total"].GetMetricWithLabelValues("acme", "orders", "loaded")
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, c.Write(&m))
	require.Equal(t, float64(3), m.GetCounter().GetValue())
}
