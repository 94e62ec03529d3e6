// Package metrics defines and registers all custom Prometheus metrics for the
// tracker sync service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracker"

// ── Channel metrics ───────────────────────────────────────────────────────────

// ConnectionState is 1 for the current connection state and 0 for the others.
// Label:
//   - state: "disabled", "connecting", "connected", "error"
var ConnectionState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connection_state",
		Help:      "Current live channel connection state (1 = active).",
	},
	[]string{"state"},
)

// ConnectionErrorsTotal counts failed or timed out subscriptions.
var ConnectionErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connection_errors_total",
		Help:      "Total number of live channel subscriptions that failed.",
	},
)

// PacketsReceivedTotal counts inbound channel messages.
// Label:
//   - result: "applied", "self_echo", "ignored"
var PacketsReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_received_total",
		Help:      "Total number of location packets received from peers, by result.",
	},
	[]string{"result"},
)

// BroadcastsTotal counts outbound location packets.
// Labels:
//   - reason: "fix", "heartbeat", "status"
//   - result: "ok", "error"
var BroadcastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcasts_total",
		Help:      "Total number of location packets published.",
	},
	[]string{"reason", "result"},
)

// ── Persistence metrics ───────────────────────────────────────────────────────

// LogWritesTotal counts persistence attempts.
// Label:
//   - result: "ok", "buffered", "duplicate", "lost"
var LogWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_writes_total",
		Help:      "Total number of durable log write attempts, by outcome.",
	},
	[]string{"result"},
)

// FlushesTotal counts buffer flush attempts.
// Label:
//   - result: "ok", "error"
var FlushesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "buffer_flushes_total",
		Help:      "Total number of offline buffer flushes, by outcome.",
	},
	[]string{"result"},
)

// FlushedRowsTotal counts rows moved from the offline buffer to the store.
var FlushedRowsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "buffer_flushed_rows_total",
		Help:      "Total number of buffered rows written to the durable store.",
	},
)

// ── Registry metrics ──────────────────────────────────────────────────────────

// TrackersGauge is the number of identities in the registry.
var TrackersGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registry_trackers",
		Help:      "Current number of trackers held in the registry.",
	},
)

// InboundQueueDepth tracks the number of packets waiting in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var InboundQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inbound_queue_depth",
		Help:      "Current number of packets pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

var connStates = []string{"disabled", "connecting", "connected", "error"}

// SetConnectionState marks state as the active connection state.
func SetConnectionState(state string) {
	for _, s := range connStates {
		v := 0.0
		if s == state {
			v = 1
		}
		ConnectionState.WithLabelValues(s).Set(v)
	}
}
