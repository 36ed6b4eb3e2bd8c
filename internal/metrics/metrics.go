// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InstancesGenerated counts task instances created by the generator.
	InstancesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorechart_instances_generated_total",
		Help: "Total task instances created by the daily generator",
	})

	// Completions counts completion-engine transitions by outcome.
	Completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chorechart_completions_total",
		Help: "Total instance transitions by outcome",
	}, []string{"outcome"})

	// PointsAwarded sums points written as EARN entries.
	PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorechart_points_awarded_total",
		Help: "Total points awarded on completion",
	})

	// PointsRedeemed sums points spent through REDEEM entries.
	PointsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorechart_points_redeemed_total",
		Help: "Total points spent on rewards",
	})

	// Redemptions counts reward redemptions by kind and result.
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chorechart_redemptions_total",
		Help: "Total redemptions by kind and result",
	}, []string{"kind", "result"})

	// ResetRuns counts orchestrator invocations by result.
	ResetRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chorechart_daily_reset_runs_total",
		Help: "Total daily reset checks by result",
	}, []string{"result"})

	// EventsPublished counts events handed to the bus by type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chorechart_events_published_total",
		Help: "Total events published by type",
	}, []string{"type"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	// HTTPRequests counts served requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chorechart_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chorechart_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
