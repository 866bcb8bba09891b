// Package metrics defines and registers every Prometheus metric emitted by the
// workspace client and its reference backend. It is the single source of truth
// for metric names, labels and help strings.
//
// Metrics register with the default Prometheus registry on package init
// (promauto); the reference backend exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clientx"

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayRequestsTotal counts backend calls by classified outcome.
// Labels:
//   - method: HTTP method
//   - outcome: "success", "rejected", "not_found", "auth_expired" or "transport"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of backend calls, by method and classified outcome.",
	},
	[]string{"method", "outcome"},
)

// GatewayRequestDuration measures the round-trip time of backend calls.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Round-trip duration of backend calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Resource store metrics ────────────────────────────────────────────────────

// StoreMutationsTotal counts create/update/delete calls issued by a store.
// Labels:
//   - resource: "project", "task" or "notification"
//   - op: "create", "update", "delete" or "mark_read"
//   - result: "applied" or the failure kind
var StoreMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_mutations_total",
		Help:      "Total number of resource store mutations, by resource, operation and result.",
	},
	[]string{"resource", "op", "result"},
)

// StoreLoadsDiscardedTotal counts load responses dropped because a later load
// had already been applied.
var StoreLoadsDiscardedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_loads_discarded_total",
		Help:      "Total number of superseded load responses discarded, by resource.",
	},
	[]string{"resource"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state transitions.
// Label:
//   - to: target state ("restoring", "authenticated", "anonymous")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by target state.",
	},
	[]string{"to"},
)

// CredentialRejectionsTotal counts 401 reports received by the session.
// Label:
//   - result: "cleared" (current credential dropped) or "ignored" (stale)
var CredentialRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_rejections_total",
		Help:      "Total number of backend credential rejections, by handling result.",
	},
	[]string{"result"},
)

// ── Reference backend metrics ─────────────────────────────────────────────────

// BackendRequestsTotal counts requests served by the reference backend.
// Labels:
//   - method: HTTP method
//   - route: registered route pattern (e.g. "/api/tasks/:id/")
//   - status: HTTP status code
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests served by the reference backend.",
	},
	[]string{"method", "route", "status"},
)
