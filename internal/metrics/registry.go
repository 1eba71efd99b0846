package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "knxip"

// Registry holds the Prometheus collectors this module updates. Every
// field is safe for concurrent use; collectors are registered once, at
// construction.
type Registry struct {
	registry *prometheus.Registry

	// RoutingLostMessages counts RoutingLostMessage reports received
	// from gateways on the multicast group.
	RoutingLostMessages prometheus.Counter
	// HeartbeatFailures counts connected tunnels dropping into
	// reconnecting: three failed ConnectionStateRequest exchanges in a
	// row, or an unacknowledged tunnelled Send.
	HeartbeatFailures prometheus.Counter
	// Reconnects counts completed tunnel/router reconnect cycles.
	Reconnects prometheus.Counter
	// InboundQueueDepth tracks the telegram queue's current inbound
	// backlog.
	InboundQueueDepth prometheus.Gauge
	// OutboundQueueDepth tracks the telegram queue's current outbound
	// backlog.
	OutboundQueueDepth prometheus.Gauge
}

// New constructs a Registry with its own prometheus.Registry, so
// multiple clients in one process don't collide on metric names.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		RoutingLostMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "lost_messages_total",
			Help:      "Cumulative count of RoutingLostMessage reports received from gateways.",
		}),
		HeartbeatFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tunnel",
			Name:      "heartbeat_failures_total",
			Help:      "Cumulative count of failed ConnectionStateRequest exchanges.",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "reconnects_total",
			Help:      "Cumulative count of completed reconnect cycles.",
		}),
		InboundQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "inbound_queue_depth",
			Help:      "Current number of telegrams buffered for inbound dispatch.",
		}),
		OutboundQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "outbound_queue_depth",
			Help:      "Current number of telegrams buffered for outbound send.",
		}),
	}
}

// Handler returns an HTTP handler serving this registry's metrics in
// the Prometheus exposition format, for an embedding process to mount
// on its own mux.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
