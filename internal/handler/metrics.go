package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_processed_total",
			Help:      "Total number of orders created from kafka messages",
		},
	)

	ordersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_failed_total",
			Help:      "Total number of kafka messages that failed to become orders",
		},
	)

	ordersDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_dlq_total",
			Help:      "Total number of orders written to DLQ",
		},
	)

	commitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commit_errors_total",
			Help:      "Total number of Kafka commit errors",
		},
	)

	orderProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "order_processing_duration_seconds",
			Help:      "Histogram of order processing durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	ordersInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_in_progress",
			Help:      "Number of kafka messages currently being processed",
		},
	)
)

// RegisterMetrics регистрирует метрики kafka консьюмера в reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		ordersProcessed,
		ordersFailed,
		ordersDLQ,
		commitErrors,
		orderProcessingDuration,
		ordersInProgress,
	)
}
