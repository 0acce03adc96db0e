// Package metrics exposes Prometheus collectors for the portal.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Recorder holds the portal's collectors on a private registry. It also
// satisfies service.Observer.
type Recorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	tokenFailures  prometheus.Counter
	fetchFailures  *prometheus.CounterVec
	userAppsServed *prometheus.CounterVec
	appsReturned   prometheus.Histogram
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		tokenFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mgmt",
			Name:      "token_failures_total",
			Help:      "Failed Management API token requests.",
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mgmt",
			Name:      "fetch_failures_total",
			Help:      "Management API reads that fell back to an empty result.",
		}, []string{"op"}),
		userAppsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_apps_served_total",
			Help:      "Completed user-apps computations.",
		}, []string{"degraded"}),
		appsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "user_apps_applications",
			Help:      "Applications returned per user-apps response.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}

	reg.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.tokenFailures,
		r.fetchFailures,
		r.userAppsServed,
		r.appsReturned,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) TokenFailed(context.Context, error) {
	r.tokenFailures.Inc()
}

func (r *Recorder) FetchFailed(_ context.Context, op string, _ error) {
	r.fetchFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) UserAppsServed(_ context.Context, applications, _ int, degraded bool) {
	r.userAppsServed.WithLabelValues(strconv.FormatBool(degraded)).Inc()
	r.appsReturned.Observe(float64(applications))
}

// Middleware records request count and latency. route must be the
// registered mux pattern, never the raw path.
func (r *Recorder) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, req)

			r.httpRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
			r.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
