// Package metrics declares the Prometheus collectors of the wallet service.
// They are registered on the default registry and served by /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wallet/internal/core"
)

const namespace = "wallet"

var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Ledger operations by operation and outcome.",
}, []string{"operation", "outcome"})

var LedgerBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "balance_cents",
	Help:      "Current wallet balance in cents.",
})

var LedgerTotalExpenses = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "total_expenses_cents",
	Help:      "Sum of all held transactions in cents.",
})

var LedgerTransactions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "transactions",
	Help:      "Number of held transactions.",
})

var LedgerVersion = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "version",
	Help:      "Version of the latest ledger snapshot.",
})

var SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "persist",
	Name:      "saves_total",
	Help:      "Snapshot save attempts by backend and outcome.",
}, []string{"backend", "outcome"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status code.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

var EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "subscribers",
	Help:      "Connected server-sent event clients.",
})

var MirrorApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "mirror",
	Name:      "snapshots_total",
	Help:      "Snapshots handled by the mirror worker by outcome (applied, skipped, failed).",
}, []string{"outcome"})

// Outcome returns "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSnapshot updates the ledger gauges. It has the ledger observer
// signature.
func ObserveSnapshot(s core.Snapshot) {
	LedgerBalance.Set(float64(s.Balance.Cents))
	LedgerTotalExpenses.Set(float64(s.TotalExpenses.Cents))
	LedgerTransactions.Set(float64(len(s.Transactions)))
	LedgerVersion.Set(float64(s.Version))
}

// RecordOperation counts one ledger operation.
func RecordOperation(op string, err error) {
	LedgerOperations.WithLabelValues(op, Outcome(err)).Inc()
}

// RecordSave counts one snapshot save; it matches persist.WithSaveHook.
func RecordSave(backend string, err error) {
	SnapshotSaves.WithLabelValues(backend, Outcome(err)).Inc()
}

// RecordHTTP counts one request and its latency.
func RecordHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
