package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of job messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of job messages processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of job messages failed to process",
		},
		[]string{"topic"},
	)
)

var (
	JobsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Jobs put into the queue",
		},
		[]string{"kind", "channel"},
	)
	JobsRetried = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_retried_total",
			Help: "Jobs re-enqueued after a transient failure",
		},
		[]string{"kind"},
	)
	JobsExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_exhausted_total",
			Help: "Jobs permanently failed after all attempts",
		},
		[]string{"kind"},
	)
	JobsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_dropped_total",
			Help: "Jobs dropped without retry (invalid payload or permanent error)",
		},
		[]string{"kind"},
	)
)

var (
	ReconcileResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_results_total",
			Help: "Order reconciliation outcomes",
		},
		[]string{"result"}, // created|updated|skipped|failed
	)
	OutboundPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_status_pushes_total",
			Help: "Outbound order status pushes",
		},
		[]string{"outcome"}, // synced|error|suppressed
	)
	MarketplaceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Marketplace API calls",
		},
		[]string{"op", "outcome"},
	)
	MarketplaceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_request_duration_seconds",
			Help:    "Marketplace API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations",
		},
		[]string{"op"}, // hit|miss|evicted|expired
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Number of items currently in cache",
		},
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует метрики в глобальном реестре; повторный вызов ничего не делает.
func MustRegister() {
	registerOnce.Do(register)
}

func register() {
	prometheus.MustRegister(
		KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed,
		JobsEnqueued, JobsRetried, JobsExhausted, JobsDropped,
		ReconcileResults, OutboundPushes, MarketplaceRequests, MarketplaceLatency,
		CacheOps, CacheSize,
	)
}
