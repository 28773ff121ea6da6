// Package metrics exposes Prometheus collectors for engine events and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	model "auction-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts engine events and HTTP requests.
type Collector struct {
	gatherer prometheus.Gatherer
	events   *prometheus.CounterVec
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector registers the collectors on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		gatherer: reg,
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_engine_events_total",
				Help: "Committed engine state transitions by event type",
			},
			[]string{"event"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_engine_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auction_engine_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	reg.MustRegister(c.events, c.requests, c.latency)
	return c
}

// Notify counts the event. Collector can be used as a notify.Dispatcher.
func (c *Collector) Notify(_ context.Context, event model.Event) error {
	c.events.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// Middleware records request count and latency per matched route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.requests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
