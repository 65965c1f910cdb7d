// Package metrics exposes Prometheus collectors for the realtime hub and the
// HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Hub metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agora_ws_connections_active",
			Help: "Currently connected websocket sessions",
		},
	)

	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agora_rooms_active",
			Help: "Rooms with at least one member",
		},
	)

	EventsBroadcastTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_events_broadcast_total",
			Help: "Change events broadcast to rooms, by event name",
		},
		[]string{"event"},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_events_dropped_total",
			Help: "Events dropped because a session's outbound queue was full",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_api_requests_total",
			Help: "HTTP API requests, by method and status code",
		},
		[]string{"method", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		RoomsActive,
		EventsBroadcastTotal,
		EventsDroppedTotal,
		APIRequestsTotal,
	)
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
