// Package metrics holds the Prometheus instruments for the newsletter
// pipeline.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_submissions_total",
			Help: "Document submissions by outcome (succeeded, failed).",
		}, []string{"outcome"})

	SubmissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_submission_duration_seconds",
			Help:    "Latency of document creation calls.",
			Buckets: prometheus.DefBuckets,
		})

	SubmissionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_submissions_in_flight",
			Help: "Document creation calls currently awaiting a response.",
		})

	ValidationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_validation_rejections_total",
			Help: "Submit attempts blocked by an invalid field, by field.",
		}, []string{"field"})

	AnalyticsEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_analytics_events_total",
			Help: "Subscription events pushed to the analytics sink.",
		})

	ActiveForms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_active_forms",
			Help: "Per-visitor form instances currently held in memory.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		SubmissionDuration,
		SubmissionsInFlight,
		ValidationRejectionsTotal,
		AnalyticsEventsTotal,
		ActiveForms,
	)
}
