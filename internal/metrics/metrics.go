package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector defines the interface for metrics collection
type Collector interface {
	// Connection metrics
	Connected(sessionID string)
	Disconnected(sessionID string)
	ConnectSuperseded()

	// Session metrics
	SessionCreated()
	SessionJoined()
	SessionDeleted()

	// Broadcast metrics
	MessageBroadcast(messageType string)
	ParticipantCount(count int)

	// Gateway metrics
	ClientAttached(sessionID string)
	ClientDetached(sessionID string)
	ClientThrottled(sessionID string)

	// Handler returns an HTTP handler for the metrics endpoint
	Handler() http.Handler
}

// PrometheusCollector implements the Collector interface using Prometheus
type PrometheusCollector struct {
	connections       *prometheus.CounterVec
	disconnections    *prometheus.CounterVec
	supersededTotal   prometheus.Counter
	sessionsCreated   prometheus.Counter
	sessionsJoined    prometheus.Counter
	sessionsDeleted   prometheus.Counter
	messagesBroadcast *prometheus.CounterVec
	participants      prometheus.Gauge
	attachedClients   prometheus.Gauge
	clientAttaches    *prometheus.CounterVec
	clientThrottles   *prometheus.CounterVec
}

// NewPrometheusCollector creates a new PrometheusCollector
func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_connections_total",
				Help: "Total number of successful session connections",
			},
			[]string{"session_id"},
		),

		disconnections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_disconnections_total",
				Help: "Total number of session disconnections",
			},
			[]string{"session_id"},
		),

		supersededTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_connects_superseded_total",
			Help: "Connect attempts dropped because a newer request superseded them",
		}),

		sessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_sessions_created_total",
			Help: "Total number of sessions created",
		}),

		sessionsJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_sessions_joined_total",
			Help: "Total number of session joins",
		}),

		sessionsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_sessions_deleted_total",
			Help: "Total number of sessions deleted",
		}),

		messagesBroadcast: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_messages_broadcast_total",
				Help: "Total number of envelopes broadcast through the bus",
			},
			[]string{"type"},
		),

		participants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "whiteboard_participants",
			Help: "Number of participants in the active session",
		}),

		attachedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "whiteboard_gateway_clients",
			Help: "Number of WebSocket clients attached to the gateway",
		}),

		clientAttaches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_gateway_attaches_total",
				Help: "Total number of WebSocket client attachments",
			},
			[]string{"session_id"},
		),

		clientThrottles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_gateway_throttled_total",
				Help: "Inbound envelopes dropped by the per-client rate limiter",
			},
			[]string{"session_id"},
		),
	}
}

// Connected records a successful session connection
func (c *PrometheusCollector) Connected(sessionID string) {
	c.connections.WithLabelValues(sessionID).Inc()
}

// Disconnected records a session disconnection
func (c *PrometheusCollector) Disconnected(sessionID string) {
	c.disconnections.WithLabelValues(sessionID).Inc()
	c.participants.Set(0)
}

// ConnectSuperseded records a dropped stale connect callback
func (c *PrometheusCollector) ConnectSuperseded() {
	c.supersededTotal.Inc()
}

// SessionCreated records a session creation
func (c *PrometheusCollector) SessionCreated() {
	c.sessionsCreated.Inc()
}

// SessionJoined records a session join
func (c *PrometheusCollector) SessionJoined() {
	c.sessionsJoined.Inc()
}

// SessionDeleted records a session deletion
func (c *PrometheusCollector) SessionDeleted() {
	c.sessionsDeleted.Inc()
}

// MessageBroadcast records a broadcast envelope by type
func (c *PrometheusCollector) MessageBroadcast(messageType string) {
	c.messagesBroadcast.WithLabelValues(messageType).Inc()
}

// ParticipantCount records the current roster size
func (c *PrometheusCollector) ParticipantCount(count int) {
	c.participants.Set(float64(count))
}

// ClientAttached records a WebSocket client attachment
func (c *PrometheusCollector) ClientAttached(sessionID string) {
	c.clientAttaches.WithLabelValues(sessionID).Inc()
	c.attachedClients.Inc()
}

// ClientDetached records a WebSocket client detachment
func (c *PrometheusCollector) ClientDetached(sessionID string) {
	c.attachedClients.Dec()
}

// ClientThrottled records a rate-limited inbound envelope
func (c *PrometheusCollector) ClientThrottled(sessionID string) {
	c.clientThrottles.WithLabelValues(sessionID).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// NopCollector is a Collector that discards all observations, used in tests
type NopCollector struct{}

func (NopCollector) Connected(string)        {}
func (NopCollector) Disconnected(string)     {}
func (NopCollector) ConnectSuperseded()      {}
func (NopCollector) SessionCreated()         {}
func (NopCollector) SessionJoined()          {}
func (NopCollector) SessionDeleted()         {}
func (NopCollector) MessageBroadcast(string) {}
func (NopCollector) ParticipantCount(int)    {}
func (NopCollector) ClientAttached(string)   {}
func (NopCollector) ClientDetached(string)   {}
func (NopCollector) ClientThrottled(string)  {}
func (NopCollector) Handler() http.Handler   { return http.NotFoundHandler() }
