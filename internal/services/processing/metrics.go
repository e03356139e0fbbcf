package processing

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/models"
)

// Metrics holds run counters in a dedicated registry so batch runs can be
// pushed to a Pushgateway without process-wide collectors.
type Metrics struct {
	registry *prometheus.Registry
	config   *common.MetricsConfig

	items              *prometheus.CounterVec
	enrichmentFailures *prometheus.CounterVec
	runs               prometheus.Counter

	lastScraped   prometheus.Gauge
	lastWorthy    prometheus.Gauge
	lastInserted  prometheus.Gauge
	lastDuration  prometheus.Gauge
	lastTimestamp prometheus.Gauge
}

// NewMetrics creates and registers the run collectors
func NewMetrics(config *common.MetricsConfig) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		config:   config,
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peulot",
			Subsystem: "ingest",
			Name:      "items_total",
			Help:      "Topics handled by processing runs, by outcome.",
		}, []string{"outcome"}),
		enrichmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peulot",
			Subsystem: "ingest",
			Name:      "enrichment_failures_total",
			Help:      "Metadata enrichment failures, by failure kind.",
		}, []string{"kind"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "peulot",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Completed processing runs.",
		}),
		lastScraped:   lastRunGauge("scraped", "Topics with extracted text in the last run."),
		lastWorthy:    lastRunGauge("worthy", "Topics accepted by the filter in the last run."),
		lastInserted:  lastRunGauge("inserted", "Activities stored by the last run."),
		lastDuration:  lastRunGauge("duration_seconds", "Duration of the last run."),
		lastTimestamp: lastRunGauge("timestamp_seconds", "Unix time the last run finished."),
	}

	m.registry.MustRegister(
		m.items, m.enrichmentFailures, m.runs,
		m.lastScraped, m.lastWorthy, m.lastInserted, m.lastDuration, m.lastTimestamp,
	)

	// Every outcome series exists from the start, even at zero
	for _, outcome := range models.AllOutcomes {
		m.items.WithLabelValues(string(outcome))
	}

	return m
}

func lastRunGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "peulot",
		Subsystem: "last_run",
		Name:      name,
		Help:      help,
	})
}

// Registry exposes the registry for tests and exporters
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a finished run
func (m *Metrics) Observe(summary *models.RunSummary) {
	for outcome, count := range summary.Outcomes {
		m.items.WithLabelValues(string(outcome)).Add(float64(count))
	}
	for kind, count := range summary.EnrichmentErrors {
		m.enrichmentFailures.WithLabelValues(kind).Add(float64(count))
	}
	m.runs.Inc()

	m.lastScraped.Set(float64(summary.Scraped))
	m.lastWorthy.Set(float64(summary.Worthy))
	m.lastInserted.Set(float64(summary.Inserted))
	m.lastDuration.Set(summary.Duration().Seconds())
	if !summary.FinishedAt.IsZero() {
		m.lastTimestamp.Set(float64(summary.FinishedAt.Unix()))
	}
}

// Push sends the registry to the configured Pushgateway. It is a no-op when
// no gateway URL is set.
func (m *Metrics) Push(ctx context.Context) error {
	if m.config == nil || m.config.PushGatewayURL == "" {
		return nil
	}

	job := m.config.JobName
	if job == "" {
		job = "peulot_ingest"
	}

	if err := push.New(m.config.PushGatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", m.config.PushGatewayURL, err)
	}
	return nil
}
