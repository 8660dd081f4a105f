package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	SampleRate  float64
}

// TracerProvider wraps the OpenTelemetry SDK provider used for engine spans.
// Exporters are not configured here; callers that ship spans register a span
// processor through NewTracerProvider's options.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracerProvider creates a provider with a sampler chosen from the
// environment. A disabled config yields a provider whose spans are no-ops.
func NewTracerProvider(config TracingConfig, opts ...sdktrace.TracerProviderOption) *TracerProvider {
	if config.ServiceName == "" {
		config.ServiceName = "sign-air-discovery"
	}
	if !config.Enabled {
		return &TracerProvider{tracer: noop.NewTracerProvider().Tracer(config.ServiceName)}
	}
	if config.SampleRate == 0 {
		config.SampleRate = getSampleRate(config.Environment)
	}

	base := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(createResource(config)),
		sdktrace.WithSampler(createSampler(config)),
	}
	tp := sdktrace.NewTracerProvider(append(base, opts...)...)

	return &TracerProvider{
		provider: tp,
		tracer:   tp.Tracer(config.ServiceName),
	}
}

func createResource(config TracingConfig) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(getServiceVersion()),
		attribute.String("deployment.environment", config.Environment),
	}
	if hostname, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.HostName(hostname))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createSampler(config TracingConfig) sdktrace.Sampler {
	switch config.Environment {
	case "production", "staging":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRate))
	default:
		return sdktrace.AlwaysSample()
	}
}

func getSampleRate(environment string) float64 {
	switch environment {
	case "production":
		return 0.01
	case "staging":
		return 0.1
	default:
		return 1.0
	}
}

func getServiceVersion() string {
	if version := os.Getenv("SERVICE_VERSION"); version != "" {
		return version
	}
	return "unknown"
}

// Tracer returns the tracer used for engine spans.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Shutdown flushes and stops the provider. It is a no-op when tracing is disabled.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}
