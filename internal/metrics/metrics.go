// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ViewsTotal counts page views by how their recording ended:
	// stored, failed or dropped (queue full or recorder closed).
	ViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dailydog",
			Name:      "views_total",
			Help:      "Article page views by recording outcome",
		},
		[]string{"status"},
	)

	ViewQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dailydog",
			Name:      "view_queue_depth",
			Help:      "Views waiting to be written",
		},
	)

	GenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dailydog",
			Name:      "generation_total",
			Help:      "Article generation requests by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dailydog",
			Name:      "generation_duration_seconds",
			Help:      "Duration of article generation calls in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	SubscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dailydog",
			Name:      "subscriptions_total",
			Help:      "Newsletter subscription transitions",
		},
		[]string{"action"},
	)
)

// Outcome labels.
const (
	StatusStored  = "stored"
	StatusFailed  = "failed"
	StatusDropped = "dropped"

	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeTimeout  = "timeout"
	OutcomeQuota    = "quota"
	OutcomeError    = "error"

	ActionSubscribe   = "subscribe"
	ActionReactivate  = "reactivate"
	ActionUnsubscribe = "unsubscribe"
)

func RecordView(status string) {
	ViewsTotal.WithLabelValues(status).Inc()
}

// RecordGeneration records one generator call.
func RecordGeneration(outcome string, started time.Time) {
	GenerationTotal.WithLabelValues(outcome).Inc()
	GenerationDuration.Observe(time.Since(started).Seconds())
}

func RecordSubscription(action string) {
	SubscriptionsTotal.WithLabelValues(action).Inc()
}
