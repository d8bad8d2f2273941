package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the protocol service.
type Metrics struct {
	BalancesInitialized prometheus.Counter
	TransfersCommitted  prometheus.Counter
	TransferFailures    *prometheus.CounterVec
	EventsRelayed       prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		BalancesInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilpay_balances_initialized_total",
			Help: "Total number of balance accounts created",
		}),
		TransfersCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilpay_transfers_committed_total",
			Help: "Total number of private transfers committed",
		}),
		TransferFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veilpay_transfer_failures_total",
			Help: "Total number of rejected transfers by error code",
		}, []string{"code"}),
		EventsRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilpay_events_relayed_total",
			Help: "Total number of committed events relayed to external consumers",
		}),
	}
}

// IncTransferFailure records a rejected transfer under its error code.
func (m *Metrics) IncTransferFailure(code string) {
	if m == nil {
		return
	}
	m.TransferFailures.WithLabelValues(code).Inc()
}

// IncBalancesInitialized increments the account creation counter.
func (m *Metrics) IncBalancesInitialized() {
	if m == nil {
		return
	}
	m.BalancesInitialized.Inc()
}

// IncTransfersCommitted increments the committed transfer counter.
func (m *Metrics) IncTransfersCommitted() {
	if m == nil {
		return
	}
	m.TransfersCommitted.Inc()
}

// IncEventsRelayed adds n relayed events.
func (m *Metrics) IncEventsRelayed(n int) {
	if m == nil {
		return
	}
	m.EventsRelayed.Add(float64(n))
}
