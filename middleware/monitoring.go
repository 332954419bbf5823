package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	rateLimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)
	panicsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Handler panics turned into 500 responses",
		},
	)

	registerOnce sync.Once
)

// InitPrometheus registers the HTTP metrics. Later calls are no-ops.
func InitPrometheus(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(httpRequestsTotal, httpRequestDuration, rateLimitRejections, panicsRecovered)
	})
}

// routeLabel uses the mux path template so ids in the URL don't explode label cardinality.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// MonitorMiddleware tracks request counts and latency per route.
func MonitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := newResponseWriter(w)
		next.ServeHTTP(ww, r)

		path := routeLabel(r)
		httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

// BasicAuthMiddleware protects /metrics. Without configured credentials every request is refused.
func BasicAuthMiddleware(metricsUser, metricsPass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()

			if !ok || metricsUser == "" ||
				subtle.ConstantTimeCompare([]byte(user), []byte(metricsUser)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(metricsPass)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PprofSecurityMiddleware protects /debug/pprof behind the X-Pprof-Secret header.
func PprofSecurityMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Pprof-Secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				respondWithError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// Initialized with 200 OK in case WriteHeader isn't called explicitly
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
