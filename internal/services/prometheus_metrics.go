package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	bankMatchesTotal     *prometheus.CounterVec
	bankMatchDuration    prometheus.Histogram
	bankMatchResults     prometheus.Histogram
	catalogCacheTotal    *prometheus.CounterVec
	catalogSize          prometheus.Gauge
	applicationsTotal    *prometheus.CounterVec
	documentsTotal       *prometheus.CounterVec
	documentStoreLatency prometheus.Histogram
	exportDuration       prometheus.Histogram
	circuitBreakerState  *prometheus.GaugeVec
	authEventsTotal      *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors with the default registry served on /metrics
func NewPrometheusMetrics() MetricsRecorderInterface {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		bankMatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_matches_total",
				Help: "Total number of bank match requests by banking need",
			},
			[]string{"banking_need"},
		),
		bankMatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bank_match_duration_milliseconds",
				Help:    "Bank match duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		bankMatchResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bank_match_results",
				Help:    "Number of offers returned per match request",
				Buckets: prometheus.LinearBuckets(0, 1, 10),
			},
		),
		catalogCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_catalog_cache_total",
				Help: "Bank catalog cache lookups by result",
			},
			[]string{"result"},
		),
		catalogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bank_catalog_offers",
				Help: "Number of active offers in the bank catalog",
			},
		),
		applicationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_applications_total",
				Help: "Loan application transitions by loan type and resulting status",
			},
			[]string{"loan_type", "status"},
		),
		documentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "application_documents_total",
				Help: "Uploaded application documents by type and outcome",
			},
			[]string{"document_type", "outcome"},
		),
		documentStoreLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "document_store_duration_milliseconds",
				Help:    "Document storage duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		exportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "applications_export_duration_seconds",
				Help:    "Spreadsheet export duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		authEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event", "outcome"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case "bank_matches_total":
		m.bankMatchesTotal.WithLabelValues(tags["banking_need"]).Inc()
	case "catalog_cache_total":
		if result := tags["result"]; result != "" {
			m.catalogCacheTotal.WithLabelValues(result).Inc()
		}
	case "applications_total":
		m.applicationsTotal.WithLabelValues(tags["loan_type"], tags["status"]).Inc()
	case "documents_total":
		m.documentsTotal.WithLabelValues(tags["document_type"], tags["outcome"]).Inc()
	case "circuit_breaker.open":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(1)
	case "circuit_breaker.closed":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(0)
	case "auth_events_total":
		if event := tags["event"]; event != "" {
			m.authEventsTotal.WithLabelValues(event, tags["outcome"]).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "bank_match":
		m.bankMatchDuration.Observe(float64(duration.Microseconds()) / 1000)
	case "document_store":
		m.documentStoreLatency.Observe(float64(duration.Milliseconds()))
	case "applications_export":
		m.exportDuration.Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "bank_match_results":
		m.bankMatchResults.Observe(value)
	case "bank_catalog_offers":
		m.catalogSize.Set(value)
	case "circuit_breaker_state":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(value)
	}
}
