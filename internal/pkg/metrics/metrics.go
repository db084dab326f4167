// Package metrics holds the Prometheus collectors of the dispatch service.
// Collectors are package level; Register adds them to a registry once at
// startup.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrderEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_order_events_total",
			Help: "Committed order lifecycle events by kind",
		},
		[]string{"kind"},
	)

	ProofScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_proof_scans_total",
			Help: "Proof-of-delivery redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	CommissionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_commission_events_total",
			Help: "Ledger threshold crossings by kind",
		},
		[]string{"kind"},
	)

	SweepExpiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_sweep_expired_total",
			Help: "Pending orders closed by the scheduled sweeps",
		},
		[]string{"sweep"},
	)

	SyncConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_sync_connections",
			Help: "Open sync channel connections",
		},
	)

	SyncMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_sync_messages_total",
			Help: "Sync channel messages by result (delivered, stale, overflow)",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		OrderEventsTotal,
		ProofScansTotal,
		CommissionEventsTotal,
		SweepExpiredTotal,
		SyncConnections,
		SyncMessagesTotal,
		HTTPRequestDuration,
	)
}
