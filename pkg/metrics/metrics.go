// Package metrics exposes the pipeline's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set groups the collectors the pipeline and HTTP surface report to.
type Set struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	ThreatsTotal         *prometheus.CounterVec
	RecallNotifications  prometheus.Counter
	AlertsComposed       *prometheus.CounterVec
	TelemetryFetchErrors prometheus.Counter
}

// New registers the collector set on reg.
func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoguard_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoguard_pipeline_run_duration_seconds",
			Help:    "Wall time of one pipeline run.",
			Buckets: prometheus.DefBuckets,
		}),
		ThreatsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoguard_threats_detected_total",
			Help: "Detected security threats by type.",
		}, []string{"type"}),
		RecallNotifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoguard_recall_notifications_total",
			Help: "Manufacturer recall notifications emitted.",
		}),
		AlertsComposed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoguard_alerts_composed_total",
			Help: "Customer alerts composed, by source.",
		}, []string{"source"}),
		TelemetryFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoguard_telemetry_fetch_errors_total",
			Help: "Telemetry fetches that degraded to defaults.",
		}),
	}
}

// NewDefault registers on the default Prometheus registry.
func NewDefault() *Set { return New(prometheus.DefaultRegisterer) }
