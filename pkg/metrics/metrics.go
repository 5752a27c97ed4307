package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "schoolfinder"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "search_requests_total", Help: "Number of school searches by outcome."},
		[]string{"outcome"},
	)
	SearchCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "search_cache_total", Help: "Search cache lookups by result (hit, miss, error)."},
		[]string{"result"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status class."},
		[]string{"method", "route", "status"},
	)
	DocumentUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "admission_document_uploads_total", Help: "Admission document uploads by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SearchRequests)
	reg.MustRegister(SearchCache)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(DocumentUploads)
}
