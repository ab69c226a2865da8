package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_http_requests_total",
			Help: "HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "balancereports_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Reports
var (
	ReportsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_reports_generated_total",
			Help: "Report computations by type and outcome.",
		},
		[]string{"report_type", "outcome"},
	)

	ReportGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "balancereports_report_generation_duration_seconds",
			Help:    "Time spent computing a report, excluding cache hits.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"report_type"},
	)
)

// Cache
var (
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_cache_hits_total",
			Help: "Report cache hits.",
		},
		[]string{"report_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_cache_misses_total",
			Help: "Report cache misses.",
		},
		[]string{"report_type"},
	)

	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_cache_invalidations_total",
			Help: "Tenant cache invalidations by source.",
		},
		[]string{"source"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "balancereports_cache_entries",
			Help: "Entries held by the in-memory report cache.",
		},
	)
)

// Audit
var (
	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_audit_writes_total",
			Help: "Audit log writes by action.",
		},
		[]string{"action"},
	)

	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "balancereports_audit_write_failures_total",
			Help: "Audit log writes that failed.",
		},
	)

	AccessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancereports_access_denied_total",
			Help: "Requests rejected before reaching a tenant schema.",
		},
		[]string{"reason"},
	)
)

// BuildInfo is always 1; the labels carry the running build.
var BuildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "balancereports_build_info",
		Help: "Build metadata.",
	},
	[]string{"version", "commit"},
)
