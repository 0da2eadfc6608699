package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Aleph-Alpha/persist/v1/observability"
)

// convertToZapFields converts an error and additional field maps into Zap's
// structured logging fields.
//
// If multiple field maps contain the same key, later maps override earlier
// ones.
func (l *LoggerClient) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			zapFields = append(zapFields, zap.Any(key, value))
		}
	}
	return zapFields
}

// contextFields extracts the correlation id and, when tracing is enabled,
// the active OpenTelemetry span context from ctx.
func (l *LoggerClient) contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}

	var zapFields []zap.Field
	if id := observability.CorrelationID(ctx); id != "" {
		zapFields = append(zapFields, zap.String("correlation_id", id))
	}

	if l.tracingEnabled {
		span := trace.SpanContextFromContext(ctx)
		if span.IsValid() {
			zapFields = append(zapFields,
				zap.String("trace_id", span.TraceID().String()),
				zap.String("span_id", span.SpanID().String()),
			)
		}
	}
	return zapFields
}

// Debug logs a debug-level message, useful for development and troubleshooting.
func (l *LoggerClient) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Info logs an informational message, along with an optional error and
// structured fields.
//
// Example:
//
//	log.Info("record created", nil, map[string]interface{}{
//	    "table": "dummies",
//	    "id":    id,
//	})
func (l *LoggerClient) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs a warning message, indicating potential issues that aren't
// necessarily errors.
func (l *LoggerClient) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs an error message, including details of the error and additional
// context fields.
func (l *LoggerClient) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// Fatal logs a critical error message and terminates the application.
// This method calls os.Exit(1) after logging the message and does not return.
func (l *LoggerClient) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, l.convertToZapFields(err, fields...)...)
}

// DebugWithContext logs a debug-level message enriched with the correlation
// id and trace context carried by ctx.
func (l *LoggerClient) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	zapFields := append(l.contextFields(ctx), l.convertToZapFields(err, fields...)...)
	l.Zap.Debug(msg, zapFields...)
}

// InfoWithContext logs an informational message enriched with the
// correlation id and trace context carried by ctx.
func (l *LoggerClient) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	zapFields := append(l.contextFields(ctx), l.convertToZapFields(err, fields...)...)
	l.Zap.Info(msg, zapFields...)
}

// WarnWithContext logs a warning message enriched with the correlation id
// and trace context carried by ctx.
func (l *LoggerClient) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	zapFields := append(l.contextFields(ctx), l.convertToZapFields(err, fields...)...)
	l.Zap.Warn(msg, zapFields...)
}

// ErrorWithContext logs an error message enriched with the correlation id
// and trace context carried by ctx.
func (l *LoggerClient) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	zapFields := append(l.contextFields(ctx), l.convertToZapFields(err, fields...)...)
	l.Zap.Error(msg, zapFields...)
}
