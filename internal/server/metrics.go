package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	argumentsAdded   *prometheus.CounterVec
	argumentsDeleted prometheus.Counter
	suggestions      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debatepad_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "debatepad_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"method", "route"}),
		argumentsAdded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debatepad_arguments_added_total",
			Help: "Arguments added by side",
		}, []string{"side"}),
		argumentsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "debatepad_arguments_deleted_total",
			Help: "Arguments deleted",
		}),
		suggestions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debatepad_suggestion_batches_total",
			Help: "Suggestion batches by generator and result",
		}, []string{"generator", "result"}),
	}
}
