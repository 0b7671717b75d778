package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPRequests counts handled requests by method, route pattern and status.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "erp_http_requests_total",
		Help: "Total number of HTTP requests handled",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration records handler latency per route pattern.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "erp_http_request_duration_seconds",
		Help:    "Latency in seconds of HTTP request handling",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route"},
)

// SMSMessages counts SMS send attempts by final status.
var SMSMessages = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "erp_sms_messages_total",
		Help: "Total number of SMS send attempts by result",
	},
	[]string{"status"},
)

// Backups counts database backup attempts by result.
var Backups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "erp_backups_total",
		Help: "Total number of database backups by result",
	},
	[]string{"result"},
)

// LoginAttempts counts login attempts by outcome.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "erp_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, SMSMessages, Backups, LoginAttempts)
}
