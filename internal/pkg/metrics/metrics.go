// Package metrics defines and registers all custom Prometheus metrics for the
// scheduling API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scheduling"

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheRequestsTotal counts cache lookups.
// Label:
//   - result: "hit" or "miss"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// CacheErrorsTotal counts backend failures swallowed by the cache-aside layer.
// Label:
//   - op: "get", "set", "remove", "remove_prefix", "decode", "encode"
var CacheErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_errors_total",
		Help:      "Total number of cache backend errors, by operation.",
	},
	[]string{"op"},
)

// CacheEvictionsTotal counts entries evicted from the in-memory store to respect its bound.
var CacheEvictionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_evictions_total",
		Help:      "Total number of entries evicted from the in-memory cache.",
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsPublishedTotal counts notifications delivered to the publisher.
// Label:
//   - type: notification type (e.g. "appointment.created")
var NotificationsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of notifications published, by type.",
	},
	[]string{"type"},
)

// NotificationsErrorsTotal counts notifications that could not be published.
// Label:
//   - reason: "queue_full", "encode_failed", "publish_failed"
var NotificationsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_errors_total",
		Help:      "Total number of notifications dropped or failed, by reason.",
	},
	[]string{"reason"},
)

// NotificationsQueueDepth tracks pending notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationPublishDuration measures a single publish call.
var NotificationPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_publish_duration_seconds",
		Help:      "Duration of a single notification publish.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Domain metrics ────────────────────────────────────────────────────────────

// RemindersDispatchedTotal counts reminders announced by the sweeper.
var RemindersDispatchedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_dispatched_total",
		Help:      "Total number of due reminders dispatched by the sweeper.",
	},
)

// AuthAttemptsTotal counts authentication calls.
// Labels:
//   - operation: "register", "login", "refresh", "reset_password"
//   - result: "success", "rejected" (bad credentials or token) or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by operation and result.",
	},
	[]string{"operation", "result"},
)

// RateLimitedTotal counts requests rejected by the auth rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)
