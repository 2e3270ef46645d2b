package trace

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "stock-analyzer"
	ServiceVersion = "1.0.0"
)

var (
	mu             sync.RWMutex
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

// Setup installs a stdout-exporting tracer provider when on is true. Calling it
// again replaces the previous provider.
func Setup(on bool) error {
	mu.Lock()
	defer mu.Unlock()

	enabled = false
	if !on {
		return nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}
	return install(sdktrace.WithBatcher(exporter))
}

// SetupWithExporter installs a provider that exports synchronously to exp.
// Tests use it with an in-memory exporter.
func SetupWithExporter(exp sdktrace.SpanExporter) error {
	mu.Lock()
	defer mu.Unlock()
	return install(sdktrace.WithSyncer(exp))
}

func install(opt sdktrace.TracerProviderOption) error {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(opt, sdktrace.WithResource(res))
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(ServiceName)
	enabled = true
	return nil
}

func Shutdown(ctx context.Context) error {
	mu.RLock()
	tp := tracerProvider
	mu.RUnlock()
	if tp != nil {
		return tp.Shutdown(ctx)
	}
	return nil
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	mu.RLock()
	t, on := tracer, enabled
	mu.RUnlock()
	if !on || t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.Start(ctx, spanName, opts...)
}

func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// IDs returns the active trace and span ids.
func IDs(ctx context.Context) (traceID, spanID string, ok bool) {
	if !Enabled() {
		return "", "", false
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", "", false
	}
	return span.SpanContext().TraceID().String(),
		span.SpanContext().SpanID().String(),
		true
}
