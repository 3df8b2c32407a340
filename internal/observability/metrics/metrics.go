package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	metricPrefix = "medibill_"

	resultSuccess     = "success"
	resultError       = "error"
	resultHit         = "hit"
	resultUnavailable = "unavailable"
	resultParseError  = "parse_error"
	resultCancelled   = "cancelled"
)

var (
	registerOnce sync.Once

	explanationsTotal *prometheus.CounterVec
	generatorLatency  *prometheus.HistogramVec
	generatorRetries  prometheus.Counter

	interactionLogWrites   *prometheus.CounterVec
	interactionLogFailures *prometheus.CounterVec
	interactionLogDropped  prometheus.Counter

	simulatedCharges *prometheus.CounterVec

	billExportTotal   *prometheus.CounterVec
	billExportLatency *prometheus.HistogramVec

	liveClients prometheus.Gauge
)

// Init registers metrics and DB-backed gauges. A nil db skips the gauges.
func Init(db *sql.DB, logger zerolog.Logger) {
	registerOnce.Do(func() {
		explanationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "explanations_total",
				Help: "Total explanation requests by kind and result",
			},
			[]string{"kind", "result"},
		)
		generatorLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "generator_latency_seconds",
				Help:    "External generator call latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"result"},
		)
		generatorRetries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "generator_retries_total",
				Help: "Total generator retries after a failed attempt",
			},
		)

		interactionLogWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "interaction_log_writes_total",
				Help: "Total interaction log sink writes by sink",
			},
			[]string{"sink"},
		)
		interactionLogFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "interaction_log_failures_total",
				Help: "Total interaction log sink failures by sink",
			},
			[]string{"sink"},
		)
		interactionLogDropped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "interaction_log_dropped_total",
				Help: "Interaction log entries dropped because the buffer was full",
			},
		)

		simulatedCharges = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "simulated_charges_total",
				Help: "Total simulated charges by category",
			},
			[]string{"category"},
		)

		billExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "bill_export_total",
				Help: "Total bill export operations by format and result",
			},
			[]string{"format", "result"},
		)
		billExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "bill_export_latency_seconds",
				Help:    "Bill export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		liveClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "live_clients",
				Help: "Connected live bill websocket clients",
			},
		)

		prometheus.MustRegister(
			explanationsTotal,
			generatorLatency,
			generatorRetries,
			interactionLogWrites,
			interactionLogFailures,
			interactionLogDropped,
			simulatedCharges,
			billExportTotal,
			billExportLatency,
			liveClients,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncExplanation increments the explanation counter.
func IncExplanation(kind, result string) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if explanationsTotal != nil {
		explanationsTotal.WithLabelValues(kind, result).Inc()
	}
}

// ObserveGenerator records generator call latency and result.
func ObserveGenerator(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if generatorLatency != nil {
		generatorLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncGeneratorRetry increments the retry counter.
func IncGeneratorRetry() {
	if generatorRetries != nil {
		generatorRetries.Inc()
	}
}

// IncInteractionLogWrite increments successful sink writes.
func IncInteractionLogWrite(sink string) {
	if sink == "" {
		sink = "unknown"
	}
	if interactionLogWrites != nil {
		interactionLogWrites.WithLabelValues(sink).Inc()
	}
}

// IncInteractionLogFailure increments failed sink writes.
func IncInteractionLogFailure(sink string) {
	if sink == "" {
		sink = "unknown"
	}
	if interactionLogFailures != nil {
		interactionLogFailures.WithLabelValues(sink).Inc()
	}
}

// IncInteractionLogDropped increments dropped entries.
func IncInteractionLogDropped() {
	if interactionLogDropped != nil {
		interactionLogDropped.Inc()
	}
}

// IncSimulatedCharge increments simulated charges.
func IncSimulatedCharge(category string) {
	if category == "" {
		category = "unknown"
	}
	if simulatedCharges != nil {
		simulatedCharges.WithLabelValues(category).Inc()
	}
}

// ObserveBillExport records export latency and result.
func ObserveBillExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if billExportTotal != nil {
		billExportTotal.WithLabelValues(format, result).Inc()
	}
	if billExportLatency != nil {
		billExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// AddLiveClients adjusts the connected websocket client gauge.
func AddLiveClients(delta int) {
	if liveClients != nil {
		liveClients.Add(float64(delta))
	}
}

// Exported constants for callers.
const (
	ResultSuccess     = resultSuccess
	ResultError       = resultError
	ResultHit         = resultHit
	ResultUnavailable = resultUnavailable
	ResultParseError  = resultParseError
	ResultCancelled   = resultCancelled
)
