// Package metrics provides Prometheus metrics for the pointcloud server.
// Labels never carry request paths, hosts or IDs; routes are labeled by
// their chi pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// HTTP

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pointcloud_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pointcloud_http_requests_in_flight",
		Help: "Current number of HTTP requests being served.",
	})

	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pointcloud_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes.",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "route", "status"})

	// Rejections by the ambient and configured middleware chain, by reason
	// (disallowed_host, csrf, rate_limited, panic).
	HTTPRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointcloud_http_rejected_total",
		Help: "Requests rejected before reaching a handler, by reason.",
	}, []string{"reason"})

	// Static files

	StaticRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointcloud_static_requests_total",
		Help: "Static asset requests, by result (served, not_modified, not_found, denied).",
	}, []string{"result"})

	StaticCollectFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointcloud_static_collect_files_total",
		Help: "Files handled by collectstatic, by outcome (copied, unmodified, skipped).",
	}, []string{"outcome"})

	// Configuration

	ConfigReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointcloud_config_reloads_total",
		Help: "Configuration reload attempts, by result (success, failure).",
	}, []string{"result"})

	ConfigLastReloadTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pointcloud_config_last_reload_timestamp_seconds",
		Help: "Unix time of the last successful configuration reload.",
	})

	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pointcloud_build_info",
		Help: "Build information; the value is always 1.",
	}, []string{"version", "commit"})
)

// RecordRejected counts a request stopped by middleware.
func RecordRejected(reason string) {
	HTTPRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordStatic counts a static asset request outcome.
func RecordStatic(result string) {
	StaticRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCollect counts one collectstatic outcome.
func RecordCollect(outcome string) {
	StaticCollectFilesTotal.WithLabelValues(outcome).Inc()
}

// RecordReload counts a reload attempt.
func RecordReload(ok bool, unix float64) {
	if ok {
		ConfigReloadsTotal.WithLabelValues("success").Inc()
		ConfigLastReloadTimestamp.Set(unix)
		return
	}
	ConfigReloadsTotal.WithLabelValues("failure").Inc()
}

// SetBuildInfo publishes the running version.
func SetBuildInfo(version, commit string) {
	BuildInfo.Reset()
	BuildInfo.WithLabelValues(version, commit).Set(1)
}

// CounterValue reads a labeled counter (for tests and diagnostics).
func CounterValue(vec *prometheus.CounterVec, labels ...string) float64 {
	var m dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
