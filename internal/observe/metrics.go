// Package observe provides observability primitives for phonoise:
// OpenTelemetry metrics, tracing helpers, and trace-aware structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// installs a Prometheus exporter bridge so a long batch can be scraped on
// /metrics while it runs. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
)

// meterName is the instrumentation scope name used for all phonoise metrics.
const meterName = "github.com/rcoulter13/phonoise"

// Lookup status attribute values.
const (
	LookupOK    = "ok"
	LookupNone  = "none"
	LookupError = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// Sentences counts noised lines. Attribute: "changed" (bool).
	Sentences metric.Int64Counter

	// SkippedLines counts blank input lines.
	SkippedLines metric.Int64Counter

	// OperationAttempts counts edit attempts. Attributes: "op", "status"
	// ("success" or "failure").
	OperationAttempts metric.Int64Counter

	// EngineStops counts engine runs by "reason".
	EngineStops metric.Int64Counter

	// SentenceDuration tracks per-line noising latency.
	SentenceDuration metric.Float64Histogram

	// SentenceBudget tracks the budget assigned to each line.
	SentenceBudget metric.Float64Histogram

	// LookupRequests counts homophone lookups. Attributes: "backend",
	// "status" (ok, none, error).
	LookupRequests metric.Int64Counter

	// LookupDuration tracks homophone lookup latency per "backend".
	LookupDuration metric.Float64Histogram

	// HTTPRequestDuration tracks probe and scrape requests served during a
	// run. Attributes: "method", "path", "status".
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets (seconds) cover in-memory lookups through slow HTTP calls.
var latencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5,
}

var budgetBuckets = []float64{0, 1, 2, 3, 5, 8, 13, 21}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Sentences, err = m.Int64Counter("phonoise.sentences",
		metric.WithDescription("Lines noised, by whether the output differs from the input."),
	); err != nil {
		return nil, err
	}
	if met.SkippedLines, err = m.Int64Counter("phonoise.lines.skipped",
		metric.WithDescription("Blank input lines skipped."),
	); err != nil {
		return nil, err
	}
	if met.OperationAttempts, err = m.Int64Counter("phonoise.operation.attempts",
		metric.WithDescription("Edit operation attempts by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.EngineStops, err = m.Int64Counter("phonoise.engine.stops",
		metric.WithDescription("Engine runs by stop reason."),
	); err != nil {
		return nil, err
	}
	if met.SentenceDuration, err = m.Float64Histogram("phonoise.sentence.duration",
		metric.WithDescription("Latency of noising one line."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SentenceBudget, err = m.Float64Histogram("phonoise.sentence.budget",
		metric.WithDescription("Corruption budget assigned to each line."),
		metric.WithExplicitBucketBoundaries(budgetBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LookupRequests, err = m.Int64Counter("phonoise.homophone.lookups",
		metric.WithDescription("Homophone lookups by backend and status."),
	); err != nil {
		return nil, err
	}
	if met.LookupDuration, err = m.Float64Histogram("phonoise.homophone.lookup.duration",
		metric.WithDescription("Latency of homophone lookups."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("phonoise.http.request.duration",
		metric.WithDescription("Latency of requests to the metrics and probe endpoints."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
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

// RecordSentence records one noised line.
func (m *Metrics) RecordSentence(ctx context.Context, changed bool, budget float64, d time.Duration) {
	m.Sentences.Add(ctx, 1, metric.WithAttributes(attribute.Bool("changed", changed)))
	m.SentenceBudget.Record(ctx, budget)
	m.SentenceDuration.Record(ctx, d.Seconds())
}

// RecordSkip records a skipped blank line.
func (m *Metrics) RecordSkip(ctx context.Context) {
	m.SkippedLines.Add(ctx, 1)
}

// RecordOperation adds succeeded and failed attempts of op.
func (m *Metrics) RecordOperation(ctx context.Context, op string, succeeded, failed int) {
	if succeeded > 0 {
		m.OperationAttempts.Add(ctx, int64(succeeded), metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", "success"),
		))
	}
	if failed > 0 {
		m.OperationAttempts.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", "failure"),
		))
	}
}

// RecordStop records why an engine run ended.
func (m *Metrics) RecordStop(ctx context.Context, reason string) {
	m.EngineStops.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordLookup records one homophone lookup against backend.
func (m *Metrics) RecordLookup(ctx context.Context, backend string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", LookupStatus(err)),
	)
	m.LookupRequests.Add(ctx, 1, attrs)
	m.LookupDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("backend", backend)))
}

// LookupStatus classifies a lookup error as [LookupOK], [LookupNone], or
// [LookupError].
func LookupStatus(err error) string {
	switch {
	case err == nil:
		return LookupOK
	case errors.Is(err, homophone.ErrNoHomophones):
		return LookupNone
	default:
		return LookupError
	}
}
