// Package metrics exposes the prometheus instruments of the entitlement and quoting paths.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	decisions       *prometheus.CounterVec
	tasksConsumed   *prometheus.CounterVec
	usageConflicts  *prometheus.CounterVec
	quoteRuns       *prometheus.CounterVec
	quoteCandidates prometheus.Histogram
}

func New(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "khaja_entitlement_decisions_total",
			Help: "Entitlement decisions by outcome reason.",
		}, []string{"reason"}),
		tasksConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "khaja_usage_tasks_consumed_total",
			Help: "Tasks consumed against subscription quotas by plan and service.",
		}, []string{"plan", "service"}),
		usageConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "khaja_usage_conflicts_total",
			Help: "Optimistic write conflicts on subscription usage.",
		}, []string{"outcome"}),
		quoteRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "khaja_quote_runs_total",
			Help: "Automatic quote computations by work type and result.",
		}, []string{"work_type", "result"}),
		quoteCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "khaja_quote_candidates",
			Help:    "Quotes produced per automatic quote run.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
	}

	for _, c := range []prometheus.Collector{m.decisions, m.tasksConsumed, m.usageConflicts, m.quoteRuns, m.quoteCandidates} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordDecision counts an entitlement outcome; an empty reason means allowed.
func (m *Metrics) RecordDecision(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "allowed"
	}
	m.decisions.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordConsumed(plan, service string, quantity int) {
	if m == nil {
		return
	}
	m.tasksConsumed.WithLabelValues(plan, service).Add(float64(quantity))
}

// RecordConflict counts a CAS miss; outcome is "retried" or "exhausted".
func (m *Metrics) RecordConflict(outcome string) {
	if m == nil {
		return
	}
	m.usageConflicts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordQuoteRun(workType string, quotes int) {
	if m == nil {
		return
	}
	result := "ok"
	if quotes == 0 {
		result = "empty"
	}
	m.quoteRuns.WithLabelValues(workType, result).Inc()
	m.quoteCandidates.Observe(float64(quotes))
}
