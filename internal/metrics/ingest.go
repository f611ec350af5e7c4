package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesIngested counts messages persisted, labelled by placement.
	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Total number of messages persisted by the ingestion pipeline",
		},
		[]string{"status"},
	)

	// WebhooksRejected counts webhook deliveries that did not reach the
	// persistence stage, labelled by the stage that stopped them.
	WebhooksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rejected_total",
			Help: "Total number of webhook deliveries rejected or silently dropped",
		},
		[]string{"reason"},
	)

	// EffectsFailed counts best-effort side effects that failed after the
	// authoritative write.
	EffectsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_effects_failed_total",
			Help: "Total number of failed best-effort post-persist effects",
		},
		[]string{"effect"},
	)
)
