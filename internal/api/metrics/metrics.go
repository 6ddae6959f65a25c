// Package metrics defines the custom Prometheus metrics of the worksheet
// API. It is the single source of truth for metric names, labels, and help
// strings; metrics register themselves with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "worksheet"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", or "inactive"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "rejected", or "closed" (cap reached)
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of account registration attempts, by result.",
	},
	[]string{"result"},
)

// AccessDeniedTotal counts authorization denials.
// Label:
//   - gate: which check denied ("route", "view", "edit", "role", "status", "delete")
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of authorization denials, by gate.",
	},
	[]string{"gate"},
)

// ImportsTotal counts worksheet import attempts.
// Label:
//   - result: "committed", "rejected", or "failed"
var ImportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Total number of worksheet import attempts, by result.",
	},
	[]string{"result"},
)

// ImportPayloadBytes measures the size of uploaded worksheet documents.
var ImportPayloadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_payload_bytes",
		Help:      "Size of uploaded worksheet documents in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 7), // 1 KiB .. 4 MiB
	},
)
