package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "factoryops_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	usageRecords *prometheus.CounterVec
	usageLatency *prometheus.HistogramVec

	alertsCreated *prometheus.CounterVec
	notifications *prometheus.CounterVec
	toolResets    prometheus.Counter

	stockMutations *prometheus.CounterVec

	exportTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		usageRecords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "usage_records_total",
				Help: "Total usage recordings by tier and result",
			},
			[]string{"tier", "result"},
		)
		usageLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "usage_record_latency_seconds",
				Help:    "Usage recording latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alertsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_created_total",
				Help: "Total tool-life alerts created by tier",
			},
			[]string{"tier"},
		)
		notifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notification deliveries by channel and result",
			},
			[]string{"channel", "result"},
		)
		toolResets = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "tool_resets_total",
				Help: "Total maintenance resets",
			},
		)

		stockMutations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stock_mutations_total",
				Help: "Total stock mutations by operation and result",
			},
			[]string{"operation", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_export_total",
				Help: "Total history exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			usageRecords,
			usageLatency,
			alertsCreated,
			notifications,
			toolResets,
			stockMutations,
			exportTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncUsageRecorded increments the usage recording counter.
func IncUsageRecorded(tier string, ok bool) {
	if tier == "" {
		tier = "NONE"
	}
	if usageRecords != nil {
		usageRecords.WithLabelValues(tier, resultFor(ok)).Inc()
	}
}

// ObserveUsageLatency records the latency of one usage recording.
func ObserveUsageLatency(ok bool, duration time.Duration) {
	if usageLatency != nil {
		usageLatency.WithLabelValues(resultFor(ok)).Observe(duration.Seconds())
	}
}

// IncAlertCreated increments the alert creation counter.
func IncAlertCreated(tier string) {
	if tier == "" {
		tier = "unknown"
	}
	if alertsCreated != nil {
		alertsCreated.WithLabelValues(tier).Inc()
	}
}

// IncNotification increments the notification delivery counter.
func IncNotification(channel string, ok bool) {
	if channel == "" {
		channel = "unknown"
	}
	if notifications != nil {
		notifications.WithLabelValues(channel, resultFor(ok)).Inc()
	}
}

// IncToolReset increments the maintenance reset counter.
func IncToolReset() {
	if toolResets != nil {
		toolResets.Inc()
	}
}

// IncStockMutation increments the stock mutation counter.
func IncStockMutation(operation string, ok bool) {
	if operation == "" {
		operation = "unknown"
	}
	if stockMutations != nil {
		stockMutations.WithLabelValues(operation, resultFor(ok)).Inc()
	}
}

// IncExport increments the history export counter.
func IncExport(format string, ok bool) {
	if format == "" {
		format = "unknown"
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, resultFor(ok)).Inc()
	}
}

func resultFor(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultError
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
