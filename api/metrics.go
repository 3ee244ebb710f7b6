// Prometheus instrumentation for the HTTP surface.
package api

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coin_engine_http_requests_total",
			Help: "Total HTTP requests by route, method, and status",
		},
		[]string{"route", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coin_engine_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coin_engine_ledger_operations_total",
			Help: "Mutating ledger operations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(httpDuration)
	prometheus.MustRegister(ledgerOperations)
}

// Metrics records request counts and latency per route.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CountOperation records the outcome of a mutating ledger operation.
func CountOperation(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerOperations.WithLabelValues(kind, outcome).Inc()
}
