// Package observe provides application-wide observability primitives for
// Canonry: OpenTelemetry metrics, distributed tracing, and structured
// logging enriched with trace context.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Canonry metrics.
const meterName = "github.com/MrWong99/canonry"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ScanDuration tracks content-scan latency, from extraction through
	// canon scoring.
	ScanDuration metric.Float64Histogram

	// ValidateDuration tracks pre-generation validation latency.
	ValidateDuration metric.Float64Histogram

	// CommitDuration tracks end-to-end commit latency.
	CommitDuration metric.Float64Histogram

	// --- Counters ---

	// Discoveries counts discoveries produced by scans. Use with attribute:
	//   attribute.String("suggested_type", ...)
	Discoveries metric.Int64Counter

	// ExistingMentions counts scan mentions resolved against the catalog.
	ExistingMentions metric.Int64Counter

	// Conflicts counts validation conflicts. Use with attributes:
	//   attribute.String("type", ...), attribute.String("severity", ...)
	Conflicts metric.Int64Counter

	// StubsMinted counts stub entities created at commit time.
	StubsMinted metric.Int64Counter

	// --- Error counters ---

	// PersistenceErrors counts failed best-effort persistence stages.
	// Use with attribute: attribute.String("stage", ...)
	PersistenceErrors metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries in seconds, tuned for
// the short synchronous pipelines of this engine.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ScanDuration, err = m.Float64Histogram("canonry.scan.duration",
		metric.WithDescription("Latency of content scans."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ValidateDuration, err = m.Float64Histogram("canonry.validate.duration",
		metric.WithDescription("Latency of pre-generation validation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CommitDuration, err = m.Float64Histogram("canonry.commit.duration",
		metric.WithDescription("Latency of entity commits."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Discoveries, err = m.Int64Counter("canonry.scan.discoveries",
		metric.WithDescription("Total discoveries produced by scans, by suggested type."),
	); err != nil {
		return nil, err
	}
	if met.ExistingMentions, err = m.Int64Counter("canonry.scan.existing_mentions",
		metric.WithDescription("Total scan mentions resolved against the catalog."),
	); err != nil {
		return nil, err
	}
	if met.Conflicts, err = m.Int64Counter("canonry.validate.conflicts",
		metric.WithDescription("Total validation conflicts, by type and severity."),
	); err != nil {
		return nil, err
	}
	if met.StubsMinted, err = m.Int64Counter("canonry.commit.stubs",
		metric.WithDescription("Total stub entities minted at commit time."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.PersistenceErrors, err = m.Int64Counter("canonry.commit.persistence_errors",
		metric.WithDescription("Total failed best-effort persistence stages."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails, which should not happen with
// the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDiscovery records one scan discovery with its suggested type.
func (m *Metrics) RecordDiscovery(ctx context.Context, suggestedType string) {
	m.Discoveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("suggested_type", suggestedType),
	))
}

// RecordConflict records one validation conflict with the standard attribute
// set.
func (m *Metrics) RecordConflict(ctx context.Context, conflictType, severity string) {
	m.Conflicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", conflictType),
		attribute.String("severity", severity),
	))
}

// RecordPersistenceError records one failed persistence stage.
func (m *Metrics) RecordPersistenceError(ctx context.Context, stage string) {
	m.PersistenceErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
	))
}
