// Package metrics registers the prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts inbound webhook deliveries by platform and
	// event kind (command, callback, ping, rejected).
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compassbot_webhook_events_total",
		Help: "Inbound webhook deliveries by platform and event kind.",
	}, []string{"platform", "event"})

	// GenerationCalls counts generation backend calls by provider and
	// outcome.
	GenerationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compassbot_generation_calls_total",
		Help: "Generation backend calls by provider, operation and status.",
	}, []string{"provider", "op", "status"})

	// GenerationDuration tracks generation backend latency.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "compassbot_generation_duration_seconds",
		Help:    "Generation backend call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "op"})

	// SessionsCompleted counts quizzes finished end to end.
	SessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compassbot_sessions_completed_total",
		Help: "Quiz sessions completed, by platform.",
	}, []string{"platform"})
)
