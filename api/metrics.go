package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/employee-directory/directory"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "directory_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	structureQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_structure_queries_total",
		Help: "Reporting-structure queries by outcome",
	}, []string{"result"})

	structureReports = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "directory_structure_reports",
		Help:    "numberOfReports returned by reporting-structure queries",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// observeHTTPRequest records an HTTP request metric.
func observeHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// observeStructure records a successful structure query.
func observeStructure(rs directory.ReportingStructure) {
	result := "complete"
	if rs.IsTruncated {
		result = "truncated"
	}
	structureQueries.WithLabelValues(result).Inc()
	structureReports.Observe(float64(rs.NumberOfReports))
}

// observeStructureError records a failed structure query.
func observeStructureError(err error) {
	result := "error"
	switch {
	case directory.IsNotFound(err):
		result = "not_found"
	case directory.IsClientError(err):
		result = "invalid"
	case directory.IsIntegrityViolation(err):
		result = "integrity"
	}
	structureQueries.WithLabelValues(result).Inc()
}

// metricsMiddleware instruments requests with Prometheus metrics. Routes
// are labeled by their chi pattern so ids do not explode cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observeHTTPRequest(r.Method, route, strconv.Itoa(ww.status), time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
