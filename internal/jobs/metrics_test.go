package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("onebeat:export").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("onebeat:export").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("onebeat:export", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("onebeat:export", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("onebeat:export")))
}

func TestCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddReportRows("MTSSKUS", 7, 3)
	m.AddReportRows("MTSSKUS", 7, 0)
	m.AddOrders(0, 2)

	require.Equal(t, 3.0, testutil.ToFloat64(m.reportRows.WithLabelValues("MTSSKUS", "7")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("0")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddOrders(1, 1)
	m.AddReportRows("STATUS", 1, 1)
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("x").End(boom), boom)
}
