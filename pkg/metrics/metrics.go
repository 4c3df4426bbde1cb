// Package metrics holds the storefront's Prometheus collectors and serves
// them. The HTTP kernel wires it as
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// DefaultRegistry is the registry served on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
	DefaultRegistry.MustRegister(c)
	return c
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
	DefaultRegistry.MustRegister(h)
	return h
}

func gauge(subsystem, name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	})
	DefaultRegistry.MustRegister(g)
	return g
}

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var (
	httpDuration = histogram("http", "request_duration_seconds", "Duration of HTTP requests in seconds.",
		prometheus.DefBuckets, "method", "route", "status")
	httpRequests = counter("http", "requests_total", "HTTP requests served.", "method", "route", "status")
	httpInFlight = gauge("http", "requests_in_flight", "HTTP requests being served.")
	httpSize     = histogram("http", "response_size_bytes", "Response body sizes in bytes.",
		[]float64{256, 2_048, 16_384, 131_072, 1_048_576}, "route")

	dbQueries = histogram("db", "query_duration_seconds", "Database query latency in seconds.",
		[]float64{.001, .005, .01, .025, .05, .1, .5, 1}, "operation")

	queueJobs        = counter("queue", "jobs_processed_total", "Queue jobs processed.", "job", "status")
	queueJobDuration = histogram("queue", "job_duration_seconds", "Queue job run time in seconds.",
		prometheus.DefBuckets, "job")

	CacheHits   = counter("cache", "hits_total", "Cache hits.", "backend")
	CacheMisses = counter("cache", "misses_total", "Cache misses.", "backend")
)

// Register adds c to DefaultRegistry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// recorder captures the status and body size of a response.
type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the live websocket upgrade through.
func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer cannot hijack")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records latency, count and size of every request, labelled by
// the matched route pattern.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			status := strconv.Itoa(rec.status)
			httpDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			httpRequests.WithLabelValues(r.Method, route, status).Inc()
			httpSize.WithLabelValues(route).Observe(float64(rec.size))
		})
	}
}

// Handler serves DefaultRegistry in text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP
}

// routePattern returns the matched chi pattern ("/api/products/{id}") so
// ids stay out of the labels.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ObserveDBQuery records a query's latency:
//
//	defer metrics.ObserveDBQuery("select", time.Now())
func ObserveDBQuery(operation string, start time.Time) {
	dbQueries.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordQueueJob records one run of a queued job.
func RecordQueueJob(job, status string, start time.Time) {
	queueJobs.WithLabelValues(job, status).Inc()
	queueJobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
