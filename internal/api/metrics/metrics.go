// Package metrics defines the custom Prometheus metrics of the telemedicine
// service. Metrics are registered with the default registry on import through
// promauto and exposed on /metrics next to the echo request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "telemedicine"

// ── Appointment metrics ───────────────────────────────────────────────────────

// AppointmentsBookedTotal counts appointments created by patients.
// Label:
//   - result: "created" or "replayed" (idempotent retry of an earlier booking)
var AppointmentsBookedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_booked_total",
		Help:      "Total number of booking requests, by result.",
	},
	[]string{"result"},
)

// AppointmentTransitionsTotal counts accepted status changes.
// Labels:
//   - from: previous status
//   - to:   new status
var AppointmentTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointment_transitions_total",
		Help:      "Total number of appointment status transitions.",
	},
	[]string{"from", "to"},
)

// PrescriptionsIssuedTotal counts prescriptions written by doctors.
var PrescriptionsIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prescriptions_issued_total",
		Help:      "Total number of prescriptions issued.",
	},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// MessagesSentTotal counts chat messages appended.
// Label:
//   - sender_role: "patient" or "doctor"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of chat messages sent, by sender role.",
	},
	[]string{"sender_role"},
)

// ChatRefreshesTotal counts conversation reloads performed by open widgets.
// Label:
//   - trigger: "open", "poll" or "notify"
var ChatRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_refreshes_total",
		Help:      "Total number of chat widget refreshes, by trigger.",
	},
	[]string{"trigger"},
)

// OpenChatWidgets tracks widgets currently polling.
var OpenChatWidgets = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chat_widgets_open",
		Help:      "Number of chat widgets currently open.",
	},
)

// ── Change fan-out metrics ────────────────────────────────────────────────────

// ChangeQueueDepth tracks the number of change events waiting per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ChangeQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "change_queue_depth",
		Help:      "Current number of change events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ChangeErrorsTotal counts change events whose fan-out failed.
var ChangeErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "change_errors_total",
		Help:      "Total number of change events that failed to publish.",
	},
	[]string{"kind"},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreOperationDuration measures record store calls end-to-end, including
// backend retries.
// Labels:
//   - collection: persisted key suffix (e.g. "users")
//   - op:         "get_all", "save_all", "mutate" or "update"
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of record store operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"collection", "op"},
)
