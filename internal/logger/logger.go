package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"stock-analyzer/internal/trace"
)

var (
	globalLogger    = slog.Default()
	logLevel        slog.Level
	detailedLogging bool // gates Debug and source attribution
)

type LogConfig struct {
	Level           string
	Format          string // "json", anything else is text
	DetailedLogging bool
	TracingEnabled  bool
}

// Init configures logging and tracing from LOG_* environment variables.
func Init() error {
	config := LoadConfigFromEnv()
	return InitWithConfig(config)
}

func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
		TracingEnabled:  getEnvOrDefault("LOG_TRACING_ENABLED", "true") == "true",
	}
}

// InitWithConfig replaces the global logger. A tracer setup failure only
// disables tracing.
func InitWithConfig(config LogConfig) error {
	logLevel = parseLogLevel(config.Level)
	detailedLogging = config.DetailedLogging

	// Source is added manually in logWithTrace to get the real caller
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: false,
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	if err := trace.Setup(config.TracingEnabled); err != nil {
		globalLogger.Warn("Failed to initialize OpenTelemetry tracer, tracing disabled", "error", err)
	}
	return nil
}

// Shutdown flushes pending spans
func Shutdown(ctx context.Context) error {
	return trace.Shutdown(ctx)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getTraceAttrs(ctx context.Context) []any {
	traceID, spanID, ok := trace.IDs(ctx)
	if !ok {
		return nil
	}
	return []any{"trace_id", traceID, "span_id", spanID}
}

// Debug is a no-op unless LOG_DETAILED is set.
func Debug(ctx context.Context, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, slog.LevelDebug, msg, 2, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, 2, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, 2, args...)
}

// ErrorWithErr also marks the active span as failed.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, 2, allArgs...)
}

// DebugSkip logs at debug level, attributing the line to the caller skip
// frames above the one calling DebugSkip. Used by the *obs decorators.
func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, slog.LevelDebug, msg, 2+skip, args...)
}

// ErrorWithErrSkip records err on the active span and logs it.
func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, 2+skip, allArgs...)
}

func recordSpanError(ctx context.Context, err error) {
	if !trace.Enabled() || err == nil {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// logWithTrace prefixes trace_id/span_id when a span is active. skip counts
// frames from runtime.Caller up to the caller worth reporting.
func logWithTrace(ctx context.Context, level slog.Level, msg string, skip int, args ...any) {
	if traceAttrs := getTraceAttrs(ctx); traceAttrs != nil {
		args = append(traceAttrs, args...)
	}

	if detailedLogging {
		// runtime.Caller -> logWithTrace -> wrapper -> actual caller
		if pc, file, line, ok := runtime.Caller(skip); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				args = append(args, "source", slog.GroupValue(
					slog.String("function", fn.Name()),
					slog.String("file", file),
					slog.Int("line", line),
				))
			}
		}
	}

	globalLogger.Log(ctx, level, msg, args...)
}

// spanAttrs converts alternating key/value fields to span attributes,
// ignoring unsupported value types.
func spanAttrs(fields []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		}
	}
	return attrs
}

// OperationTimer times one unit of work and owns its span.
type OperationTimer struct {
	ctx    context.Context
	span   oteltrace.Span
	start  time.Time
	fields []any
}

func StartOperation(ctx context.Context, operation string, fields ...any) *OperationTimer {
	var span oteltrace.Span
	if trace.Enabled() {
		ctx, span = trace.StartSpan(ctx, operation)
		span.SetAttributes(spanAttrs(fields)...)
	}

	Debug(ctx, "Operation started", append([]any{"operation", operation}, fields...)...)

	return &OperationTimer{
		ctx:    ctx,
		span:   span,
		start:  time.Now(),
		fields: fields,
	}
}

func (ot *OperationTimer) End(additionalFields ...any) {
	duration := time.Since(ot.start)

	if ot.span != nil {
		ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		ot.span.SetAttributes(spanAttrs(additionalFields)...)
		ot.span.SetStatus(codes.Ok, "completed")
		ot.span.End()
	}

	fields := append(append([]any{}, ot.fields...), "duration_ms", duration.Milliseconds())
	Debug(ot.ctx, "Operation completed", append(fields, additionalFields...)...)
}

func (ot *OperationTimer) EndWithError(err error, additionalFields ...any) {
	duration := time.Since(ot.start)

	if ot.span != nil {
		ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		ot.span.RecordError(err)
		ot.span.SetStatus(codes.Error, err.Error())
		ot.span.End()
	}

	fields := append(append([]any{}, ot.fields...), "duration_ms", duration.Milliseconds(), "error", err)
	Error(ot.ctx, "Operation failed", append(fields, additionalFields...)...)
}

// GetContext carries the operation span; pass it to nested calls.
func (ot *OperationTimer) GetContext() context.Context {
	return ot.ctx
}

func addSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if !trace.Enabled() {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent(name, oteltrace.WithAttributes(attrs...))
	}
}

// Decision logs a buy-opportunity recommendation (always logged regardless of level)
func Decision(ctx context.Context, ticker, recommendation string, score float64, reason string, fields ...any) {
	addSpanEvent(ctx, "buy_decision",
		attribute.String("ticker", ticker),
		attribute.String("recommendation", recommendation),
		attribute.Float64("score", score),
		attribute.String("reason", reason),
	)

	allFields := append([]any{
		"type", "DECISION",
		"ticker", ticker,
		"recommendation", recommendation,
		"score", score,
		"reason", reason,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "Buy opportunity evaluated", 2, allFields...)
}

// Valuation logs a completed fair-value estimate
func Valuation(ctx context.Context, ticker, method string, fairValue, upside float64, fields ...any) {
	addSpanEvent(ctx, "valuation_completed",
		attribute.String("ticker", ticker),
		attribute.String("method", method),
		attribute.Float64("fair_value", fairValue),
		attribute.Float64("upside", upside),
	)

	allFields := append([]any{
		"type", "VALUATION",
		"ticker", ticker,
		"method", method,
		"fair_value", fairValue,
		"upside", upside,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "Valuation completed", 2, allFields...)
}

// Risk logs an elevated risk rating
func Risk(ctx context.Context, ticker, rating string, fields ...any) {
	addSpanEvent(ctx, "risk_event",
		attribute.String("ticker", ticker),
		attribute.String("rating", rating),
	)

	allFields := append([]any{
		"type", "RISK",
		"ticker", ticker,
		"rating", rating,
	}, fields...)
	logWithTrace(ctx, slog.LevelWarn, "Risk event", 2, allFields...)
}
