package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAllocation("equal", nil)
	m.ObserveAllocation("equal", nil)
	m.ObserveAllocation("percentage", errors.New("does not add up"))
	m.ObserveDrift("equal", decimal.RequireFromString("-0.03"))
	m.ObservePayment("paid")
	m.ObservePayment("rejected")
	m.ObservePayment("paid")
	m.ObserveFullyPaid()
	m.ObserveRPC("/settleup.v1.LedgerService/MarkSharePaid", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.allocations.WithLabelValues("equal", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues("percentage", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocationDrift.WithLabelValues("equal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentTransition.WithLabelValues("paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expensesFullyPaid))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rpcDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.driftAmount))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAllocation("equal", nil)
		m.ObserveDrift("equal", decimal.NewFromInt(1))
		m.ObservePayment("paid")
		m.ObserveFullyPaid()
		m.ObserveRPC("p", "ok", time.Second)
	})
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "duplicate registration must be caught")
}
