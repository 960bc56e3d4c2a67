package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ConfigDone(metrics.OutcomeOK, 2*time.Second)
	m.ConfigDone(metrics.OutcomeFailed, time.Second)
	m.ConfigDone(metrics.OutcomeOK, time.Second)
	m.Scraped(8)
	m.Created(5)
	m.Skipped("duplicate")
	m.Skipped("duplicate")
	m.ImageFailed()

	assert.InDelta(t, 2, testutil.ToFloat64(m.ConfigsProcessed.WithLabelValues(metrics.OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ConfigsProcessed.WithLabelValues(metrics.OutcomeFailed)), 0)
	assert.InDelta(t, 8, testutil.ToFloat64(m.ArticlesScraped), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.ArticlesCreated), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ArticlesSkipped.WithLabelValues("duplicate")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ImageFailures), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "newsdesk_ingest_config_duration_seconds")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ConfigDone(metrics.OutcomeOK, time.Second)
		m.Scraped(1)
		m.Created(1)
		m.Skipped("duplicate")
		m.ImageFailed()
	})
}
