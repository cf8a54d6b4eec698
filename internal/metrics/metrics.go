// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Social engagement
	PostsCreatedTotal   prometheus.CounterVec
	LikesTotal          prometheus.CounterVec
	CommentsTotal       prometheus.CounterVec
	FollowsTotal        prometheus.CounterVec
	ContextVotesTotal   prometheus.CounterVec
	NotificationsQueued prometheus.Counter

	// Websocket
	WebsocketConnections prometheus.Gauge
	WebsocketMessages    prometheus.CounterVec

	// Backend connection health as driven by the resilience manager:
	// 0=healthy 1=degraded 2=reconnecting 3=unrecoverable
	ConnectionState      prometheus.Gauge
	ReconnectAttempts    prometheus.Counter
	ConnectionErrorsSeen prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			PostsCreatedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_created_total",
					Help: "Total number of posts created",
				},
				[]string{"has_image"},
			),
			LikesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "likes_total",
					Help: "Total like toggles",
				},
				[]string{"action"},
			),
			CommentsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "comments_total",
					Help: "Total comments created and deleted",
				},
				[]string{"action"},
			),
			FollowsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "follows_total",
					Help: "Total follow and unfollow operations",
				},
				[]string{"action"},
			),
			ContextVotesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "context_votes_total",
					Help: "Total context votes cast",
				},
				[]string{"direction"},
			),
			NotificationsQueued: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "notifications_queued_total",
					Help: "Total notifications written",
				},
			),

			WebsocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Number of connected websocket clients",
				},
			),
			WebsocketMessages: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "websocket_messages_total",
					Help: "Total websocket messages broadcast",
				},
				[]string{"type"},
			),

			ConnectionState: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "backend_connection_state",
					Help: "Remote backend connection state (0=healthy 1=degraded 2=reconnecting 3=unrecoverable)",
				},
			),
			ReconnectAttempts: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "backend_reconnect_attempts_total",
					Help: "Total reconnect attempts made by the resilience manager",
				},
			),
			ConnectionErrorsSeen: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "backend_connection_errors_total",
					Help: "Connection-class errors observed, by classification",
				},
				[]string{"class"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing on first use
func Get() *Metrics {
	return Initialize()
}
