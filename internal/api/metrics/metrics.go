// Package metrics defines and registers the custom Prometheus metrics of the
// bug tracker API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation; HTTP request metrics are produced separately by the
// echoprometheus middleware wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bugtracker"

// ── Bug metrics ───────────────────────────────────────────────────────────────

// BugsCreatedTotal counts newly created bugs.
// Label:
//   - severity: low, medium, high or critical
var BugsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bugs_created_total",
		Help:      "Total number of bugs created, by severity.",
	},
	[]string{"severity"},
)

// BugsUpdatedTotal counts successful updates, labelled by resulting status.
var BugsUpdatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bugs_updated_total",
		Help:      "Total number of bug updates, by resulting status.",
	},
	[]string{"status"},
)

// BugsDeletedTotal counts deleted bugs.
var BugsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bugs_deleted_total",
		Help:      "Total number of bugs deleted.",
	},
)

// ValidationFailuresTotal counts payloads rejected by the validator.
// Label:
//   - operation: "create" or "update"
var ValidationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of bug payloads rejected by validation.",
	},
	[]string{"operation"},
)

// IdempotentReplaysTotal counts create requests answered from an earlier
// submission with the same Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of bug creations replayed via Idempotency-Key.",
	},
)

// ── Activity metrics ──────────────────────────────────────────────────────────

// ActivityRecordedTotal counts activity entries, labelled by outcome
// ("ok", "error" or "dropped").
var ActivityRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_recorded_total",
		Help:      "Total number of bug activity entries processed, by result.",
	},
	[]string{"result"},
)

// ActivityQueueDepth tracks pending activity entries per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activity entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
