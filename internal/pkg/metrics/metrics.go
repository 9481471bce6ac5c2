/*
Package metrics exposes the Prometheus instrumentation for the server.

It covers the HTTP surface and the realtime delivery core: live connection
gauge, envelope and fan-out counters, and persistence failures.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaychat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relaychat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime core metrics
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relaychat_ws_live_connections",
			Help: "Currently open websocket connections",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaychat_ws_connections_total",
			Help: "Total websocket connections accepted",
		},
	)

	EnvelopesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaychat_ws_envelopes_total",
			Help: "Inbound websocket envelopes by type",
		},
		[]string{"type"},
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaychat_messages_persisted_total",
			Help: "Chat messages durably stored",
		},
	)

	EventsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaychat_fanout_deliveries_total",
			Help: "Events delivered to live connections during fan-out",
		},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaychat_fanout_delivery_failures_total",
			Help: "Per-connection send failures during fan-out",
		},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaychat_ws_auth_failures_total",
			Help: "Failed websocket auth attempts",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaychat_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
