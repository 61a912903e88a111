package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordDecision("")
	m.RecordDecision("quota_exceeded")
	m.RecordDecision("quota_exceeded")
	m.RecordConsumed("forfait2", "cleaning", 3)
	m.RecordConflict("retried")
	m.RecordQuoteRun("tiling", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("quota_exceeded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tasksConsumed.WithLabelValues("forfait2", "cleaning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.usageConflicts.WithLabelValues("retried")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quoteRuns.WithLabelValues("tiling", "empty")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordDecision("not_active")
		m.RecordConsumed("forfait1", "cleaning", 1)
		m.RecordConflict("exhausted")
		m.RecordQuoteRun("tiling", 2)
	})
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
