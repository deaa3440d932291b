// Package observability sets up OpenTelemetry tracing for reads
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/textreader"

var (
	mu       sync.RWMutex
	tracer   trace.Tracer = otel.Tracer(instrumentationName)
	provider *sdktrace.TracerProvider
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	// Exporter is "stdout" or "none"
	Exporter     string
	Output       io.Writer
	BatchTimeout time.Duration
}

// DefaultConfig returns tracing switched off with a 10% sampling rate
func DefaultConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "textreader",
		ServiceVersion: "dev",
		Environment:    getEnv("ENVIRONMENT", "development"),
		SamplingRate:   0.1,
		Exporter:       getEnv("TRACING_EXPORTER", "stdout"),
		BatchTimeout:   5 * time.Second,
	}
}

// Initialize installs a tracer provider. Until it is called, spans go to
// the global otel provider, which is a no-op by default.
func Initialize(config TracingConfig) error {
	if !config.Enabled {
		return nil
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SamplingRate)),
	}
	switch config.Exporter {
	case "none":
	case "stdout", "":
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(config.BatchTimeout)))
	default:
		return fmt.Errorf("unknown trace exporter %q", config.Exporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mu.Lock()
	provider = tp
	tracer = tp.Tracer(instrumentationName)
	mu.Unlock()
	return nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// Shutdown flushes and stops the provider installed by Initialize
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	tracer = otel.Tracer(instrumentationName)
	mu.Unlock()
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}

// Span wraps a trace span and batches its attributes until End
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// StartSpan starts a child span of whatever span ctx carries
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	mu.RLock()
	t := tracer
	mu.RUnlock()
	ctx, span := t.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Span{span: span}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// Finish records err, if any, and ends the span
func (s *Span) Finish(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.End()
}

// End ends the span
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// SpanContext exposes the underlying span context
func (s *Span) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
