// Prometheus collectors for the realtime layer. Label cardinality is kept
// to the event name, which is a small closed set.
package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	// wsConnections gauges sessions currently attached to the hub,
	// identified or not.
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Current number of attached WebSocket sessions.",
		},
	)

	// wsOnlineUsers gauges users with a live presence entry.
	wsOnlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_online_users",
			Help: "Current number of identified online users.",
		},
	)

	// wsDelivered counts events accepted into a session send queue.
	wsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_delivered_total",
			Help: "Total events enqueued for delivery to a live session.",
		},
		[]string{"event"},
	)

	// wsDropped counts events that found no live target or a full queue.
	// Offline targets are expected traffic, not failures.
	wsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Total events dropped (target offline or send queue full).",
		},
		[]string{"event", "reason"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsOnlineUsers, wsDelivered, wsDropped)
}
