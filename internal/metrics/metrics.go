// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the API collectors. Methods are safe on a nil receiver so
// callers may run without metrics.
type Collector struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	authRejections *prometheus.CounterVec
	identityEvents *prometheus.CounterVec
	bookMutations  *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "library_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_auth_rejections_total",
			Help: "Requests rejected by the authorization middleware, by reason.",
		}, []string{"reason"}),
		identityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_identity_events_total",
			Help: "Signup and signin attempts by outcome.",
		}, []string{"op", "outcome"}),
		bookMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_book_mutations_total",
			Help: "Successful book create, update and delete operations.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.authRejections,
		c.identityEvents,
		c.bookMutations,
	)
	return c
}

// RecordRequest records one served HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthRejection records a request rejected before reaching a handler.
func (c *Collector) RecordAuthRejection(reason string) {
	if c == nil {
		return
	}
	c.authRejections.WithLabelValues(reason).Inc()
}

// RecordIdentityEvent records a signup or signin outcome.
func (c *Collector) RecordIdentityEvent(op, outcome string) {
	if c == nil {
		return
	}
	c.identityEvents.WithLabelValues(op, outcome).Inc()
}

// RecordBookMutation records a successful write to the book store.
func (c *Collector) RecordBookMutation(op string) {
	if c == nil {
		return
	}
	c.bookMutations.WithLabelValues(op).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
