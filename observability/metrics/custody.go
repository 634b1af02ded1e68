package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CustodyMetrics aggregates the counters exported by the custody RPC surface.
type CustodyMetrics struct {
	operations   *prometheus.CounterVec
	valueSettled *prometheus.CounterVec
	rejections   *prometheus.CounterVec
}

var (
	custodyOnce     sync.Once
	custodyRegistry *CustodyMetrics
)

// Custody returns the process-wide custody metrics, registering them on first
// use.
func Custody() *CustodyMetrics {
	custodyOnce.Do(func() {
		custodyRegistry = &CustodyMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_operations_total",
				Help: "Count of custody operations by module, operation and result.",
			}, []string{"module", "op", "result"}),
			valueSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_value_settled_total",
				Help: "Total value disbursed per module and flow direction.",
			}, []string{"module", "flow"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_rejections_total",
				Help: "Count of rejected operations by module and reason.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			custodyRegistry.operations,
			custodyRegistry.valueSettled,
			custodyRegistry.rejections,
		)
	})
	return custodyRegistry
}

// ObserveOperation records the outcome of a single custody operation.
func (m *CustodyMetrics) ObserveOperation(module, op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(module, op, result).Inc()
}

// ObserveSettledValue records value leaving a module vault. The amount is
// reported as a float; precision loss here affects dashboards only, never the
// ledger itself.
func (m *CustodyMetrics) ObserveSettledValue(module, flow string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.valueSettled.WithLabelValues(module, flow).Add(amount)
}

// ObserveRejection records a rejected operation with its stable reason code.
func (m *CustodyMetrics) ObserveRejection(module, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(module, reason).Inc()
}
