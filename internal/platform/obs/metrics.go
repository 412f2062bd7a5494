package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_import_rows_total",
		Help: "Spreadsheet rows processed by the importer, by entity and outcome.",
	}, []string{"entity", "outcome"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
)
