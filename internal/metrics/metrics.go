// Package metrics exposes ledger and RPC counters to Prometheus.
//
// A nil *Metrics is valid and records nothing, so callers that do not care
// about metrics can pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "settleup"

type Metrics struct {
	allocations       *prometheus.CounterVec
	allocationDrift   *prometheus.CounterVec
	driftAmount       prometheus.Histogram
	paymentTransition *prometheus.CounterVec
	expensesFullyPaid prometheus.Counter
	rpcDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Share allocations by split policy and outcome.",
		}, []string{"policy", "outcome"}),
		allocationDrift: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_drift_total",
			Help:      "Allocations whose shares do not add up to the expense amount within epsilon.",
		}, []string{"policy"}),
		driftAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "allocation_drift_amount",
			Help:      "Absolute drift of drifted allocations, in currency units.",
			Buckets:   []float64{0.01, 0.02, 0.05, 0.1, 0.5, 1},
		}),
		paymentTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_transitions_total",
			Help:      "Payment status transitions by target status.",
		}, []string{"status"}),
		expensesFullyPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_fully_paid_total",
			Help:      "Expenses that reached fully_paid.",
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and Connect code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	reg.MustRegister(
		m.allocations,
		m.allocationDrift,
		m.driftAmount,
		m.paymentTransition,
		m.expensesFullyPaid,
		m.rpcDuration,
	)
	return m
}

// ObserveAllocation counts one allocation attempt.
func (m *Metrics) ObserveAllocation(policy string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.allocations.WithLabelValues(policy, outcome).Inc()
}

// ObserveDrift records an allocation left off by drift.
func (m *Metrics) ObserveDrift(policy string, drift decimal.Decimal) {
	if m == nil {
		return
	}
	m.allocationDrift.WithLabelValues(policy).Inc()
	m.driftAmount.Observe(drift.Abs().InexactFloat64())
}

// ObservePayment counts a payment moving to status.
func (m *Metrics) ObservePayment(status string) {
	if m == nil {
		return
	}
	m.paymentTransition.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveFullyPaid() {
	if m == nil {
		return
	}
	m.expensesFullyPaid.Inc()
}

func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}
