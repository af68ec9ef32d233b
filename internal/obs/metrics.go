package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	otpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_requests_total",
			Help: "One-time code requests by outcome.",
		},
		[]string{"outcome"},
	)

	documentDownloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_downloads_total",
		Help: "Successful document downloads.",
	})
)

// Init registers metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		otpRequestsTotal,
		documentDownloadsTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CountOTPRequest records an OTP request outcome ("sent", "unknown_email",
// "throttled", "error").
func CountOTPRequest(outcome string) {
	otpRequestsTotal.WithLabelValues(outcome).Inc()
}

// CountDocumentDownload records a served document download.
func CountDocumentDownload() {
	documentDownloadsTotal.Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses entity identifiers embedded in known routes so the
// path label stays bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}

	type pattern struct {
		prefix string
		// allowed suffixes after the id segment; "" means bare id
		suffixes []string
	}
	patterns := []pattern{
		{prefix: "/api/documents/category/", suffixes: []string{"/documents"}},
		{prefix: "/api/documents/", suffixes: []string{"", "/download", "/view", "/url", "/access-logs"}},
		{prefix: "/api/admin/users/", suffixes: []string{"", "/activate"}},
		{prefix: "/api/admin/access-requests/", suffixes: []string{""}},
		{prefix: "/api/permissions/levels/", suffixes: []string{""}},
		{prefix: "/api/qa/", suffixes: []string{"", "/answer"}},
	}
	for _, p := range patterns {
		if !strings.HasPrefix(path, p.prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, p.prefix)
		id, suffix, _ := strings.Cut(rest, "/")
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		if suffix != "" {
			suffix = "/" + suffix
		}
		for _, allowed := range p.suffixes {
			if suffix == allowed {
				return p.prefix + ":id" + suffix
			}
		}
	}
	return path
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
