package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidoptimize_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidoptimize_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SuggestionsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidoptimize_suggestions_generated_total",
			Help: "Suggestions produced, by kind and by source (ai or fallback)",
		},
		[]string{"kind", "source"},
	)

	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidoptimize_quota_rejections_total",
			Help: "Requests rejected because the user's quota is used up",
		},
	)

	RefreshRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidoptimize_refresh_rotations_total",
			Help: "Refresh token rotation attempts by result",
		},
		[]string{"result"},
	)
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordSuggestion(kind, source string) {
	SuggestionsGeneratedTotal.WithLabelValues(kind, source).Inc()
}

func RecordQuotaRejection() {
	QuotaRejectionsTotal.Inc()
}

func RecordRefreshRotation(result string) {
	RefreshRotationsTotal.WithLabelValues(result).Inc()
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RecordHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
	})
}
