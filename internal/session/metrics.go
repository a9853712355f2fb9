package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry             *prometheus.Registry
	sessionsActive       prometheus.Gauge
	sessionsExpiredTotal prometheus.Counter
	uploadsRejectedTotal *prometheus.CounterVec
	transformsTotal      *prometheus.CounterVec
	transformDuration    *prometheus.HistogramVec
	activeTransforms     prometheus.Gauge
	pixelsProcessedTotal prometheus.Counter
	bytesSavedTotal      prometheus.Counter
	computeTimeMSTotal   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imagetools_sessions_active",
			Help: "Current number of open tool page sessions.",
		}),
		sessionsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagetools_sessions_expired_total",
			Help: "Total sessions closed by the idle sweeper.",
		}),
		uploadsRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagetools_uploads_rejected_total",
			Help: "Total rejected uploads by reason.",
		}, []string{"reason"}),
		transformsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagetools_transforms_total",
			Help: "Total transforms by output format and outcome.",
		}, []string{"format", "outcome"}),
		transformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imagetools_transform_duration_seconds",
			Help:    "Duration of each transform including time spent waiting for a slot.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format", "outcome"}),
		activeTransforms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imagetools_active_transforms",
			Help: "Current number of transforms holding a processing slot.",
		}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagetools_usage_pixels_processed_total",
			Help: "Total output pixels across successful transforms.",
		}),
		bytesSavedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagetools_usage_bytes_saved_total",
			Help: "Total bytes saved across successful transforms.",
		}),
		computeTimeMSTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagetools_usage_compute_time_ms_total",
			Help: "Total compute time in milliseconds across successful transforms.",
		}),
	}

	m.registry.MustRegister(
		m.sessionsActive,
		m.sessionsExpiredTotal,
		m.uploadsRejectedTotal,
		m.transformsTotal,
		m.transformDuration,
		m.activeTransforms,
		m.pixelsProcessedTotal,
		m.bytesSavedTotal,
		m.computeTimeMSTotal,
	)
	return m
}
