package observe

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Resource attribute keys describing a noising run.
const (
	AttrNoisePercent      = attribute.Key("phonoise.noise.percent")
	AttrOutputFormat      = attribute.Key("phonoise.output.format")
	AttrHomophoneProvider = attribute.Key("phonoise.homophone.provider")
)

// ProviderConfig describes the run whose telemetry the SDK providers export.
type ProviderConfig struct {
	// ServiceName defaults to "phonoise".
	ServiceName string

	// ServiceVersion is the build version, if known.
	ServiceVersion string

	// RunID identifies the batch run. It is reported as service.instance.id
	// so every scrape and span of one run can be grouped.
	RunID string

	// Percent is the corruption fraction of the run.
	Percent float64

	// Format is the output format name (csv, tsv, json, xlsx, postgres).
	Format string

	// HomophoneProvider names the primary lookup backend.
	HomophoneProvider string

	// TraceExporter is an optional span exporter. When nil, spans are
	// recorded but not exported.
	TraceExporter sdktrace.SpanExporter
}

// attributes returns the run-level resource attributes. Empty fields are
// left out.
func (c ProviderConfig) attributes() []attribute.KeyValue {
	name := c.ServiceName
	if name == "" {
		name = "phonoise"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		AttrNoisePercent.Float64(c.Percent),
	}
	if c.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(c.ServiceVersion))
	}
	if c.RunID != "" {
		attrs = append(attrs, attribute.String("service.instance.id", c.RunID))
	}
	if c.Format != "" {
		attrs = append(attrs, AttrOutputFormat.String(c.Format))
	}
	if c.HomophoneProvider != "" {
		attrs = append(attrs, AttrHomophoneProvider.String(c.HomophoneProvider))
	}
	return attrs
}

// NewResource merges the SDK default resource with the run attributes of cfg.
func NewResource(cfg ProviderConfig) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(cfg.attributes()...),
	)
}

// InitProvider registers global OTel providers for one run: a meter provider
// exporting through a Prometheus bridge (served by [MetricsHandler]) and a
// tracer provider batching to cfg.TraceExporter when set. Both carry the
// resource built by [NewResource].
//
// The returned shutdown flushes both providers and should be deferred from
// main.
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	res, err := NewResource(cfg)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TraceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.TraceExporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}

// MetricsHandler serves the Prometheus default registry, which the exporter
// installed by [InitProvider] writes to.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
