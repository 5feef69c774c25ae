package binder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes binding counters. Long runs serve these over --metrics-addr
// so operators can watch progress without tailing logs.
type Metrics struct {
	Bound   prometheus.Counter
	Failed  prometheus.Counter
	Skipped prometheus.Counter
	Retries prometheus.Counter
}

// NewMetrics registers binding counters with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Bound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "htan2bind",
			Subsystem: "binder",
			Name:      "bound_total",
			Help:      "Number of schema bindings acknowledged by the platform.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "htan2bind",
			Subsystem: "binder",
			Name:      "failed_total",
			Help:      "Number of schema bindings that failed terminally.",
		}),
		Skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "htan2bind",
			Subsystem: "binder",
			Name:      "skipped_total",
			Help:      "Number of pairs excluded by caller-supplied filters.",
		}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "htan2bind",
			Subsystem: "binder",
			Name:      "retries_total",
			Help:      "Number of bind attempts retried after transient errors.",
		}),
	}
}

func (m *Metrics) observe(b Binding) {
	if m == nil {
		return
	}
	switch b.Status {
	case StatusBound:
		m.Bound.Inc()
	case StatusFailed:
		m.Failed.Inc()
	case StatusSkipped:
		m.Skipped.Inc()
	}
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}
