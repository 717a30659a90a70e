// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timetracker_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
	TasksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetracker_tasks_created_total",
		Help: "Tasks created through the API or web UI",
	})
	TasksDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetracker_tasks_deleted_total",
		Help: "Tasks deleted, each with its time records",
	})
	RecordsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetracker_time_records_created_total",
		Help: "Time records logged",
	})
	WorkedSeconds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetracker_worked_seconds_logged_total",
		Help: "Worked time logged through new time records, in seconds",
	})
	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_validation_failures_total",
			Help: "Rejected writes by field",
		},
		[]string{"field"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		RateLimited,
		TasksCreated,
		TasksDeleted,
		RecordsCreated,
		WorkedSeconds,
		ValidationFailures,
	)
}
