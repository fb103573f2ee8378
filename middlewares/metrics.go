package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

// MetricsPath is where the Prometheus handler is usually mounted.
const MetricsPath = "/metrics"

// HTTPMetrics holds the request collectors.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewHTTPMetrics registers the request collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "latios",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method, status and locale.",
		}, []string{"route", "method", "status", "locale"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "latios",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "latios",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests being served.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.inflight)
	return m
}

// Middleware records every request. Routes are labelled by their chi
// pattern so path parameters do not explode cardinality.
func (m *HTTPMetrics) Middleware() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			m.inflight.Inc()
			start := time.Now()
			err := next(c)
			m.inflight.Dec()

			route := routePattern(c.Request())
			status := http.StatusOK
			if rw, ok := c.Response().(*internal.ResponseWriter); ok && rw.Written() {
				status = rw.Status()
			} else if he := internal.AsHTTPError(err); he != nil {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			locale := c.Locale()
			if locale == "" {
				locale = "none"
			}

			m.requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status), locale).Inc()
			m.duration.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the metrics gathered by g.
func (m *HTTPMetrics) Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Requests exposes the request counter, mostly for tests.
func (m *HTTPMetrics) Requests() *prometheus.CounterVec {
	return m.requests
}
