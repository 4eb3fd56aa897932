package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wil_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wil_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// CodesIssuedTotal kind: signup | staff | mentor | event
	CodesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wil_codes_issued_total",
			Help: "Total number of one-time codes issued.",
		},
		[]string{"kind"},
	)

	// CodeRedemptionsTotal result: ok | invalid_code | email_blocked | duplicate | error
	CodeRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wil_code_redemptions_total",
			Help: "Total number of code redemption attempts.",
		},
		[]string{"kind", "result"},
	)

	StatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wil_status_transitions_total",
			Help: "Total number of application and student status transitions.",
		},
		[]string{"entity", "from", "to"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wil_notifications_total",
			Help: "Total number of notification dispatch attempts.",
		},
		[]string{"template", "result"},
	)

	SweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wil_inactivity_sweep_duration_seconds",
			Help:    "Duration of bulk inactivity sweeps.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

// MustRegister 注册到默认 Registry，进程启动时调用一次
func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		CodesIssuedTotal,
		CodeRedemptionsTotal,
		StatusTransitionsTotal,
		NotificationsTotal,
		SweepDurationSeconds,
	)
}
