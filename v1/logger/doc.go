// Package logger provides structured logging for the persistence components.
//
// The package wraps Uber's Zap with a field-map interface and integrates
// with the fx dependency injection framework for easy incorporation into
// applications.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Logger interface: defines the contract for logging operations
//   - LoggerClient struct: concrete implementation of the Logger interface
//   - NewLoggerClient constructor: returns *LoggerClient (concrete type)
//   - FX module: provides both *LoggerClient and the Logger interface
//
// # Direct Usage (Without FX)
//
// For simple applications or tests, create a logger directly:
//
//	import "github.com/Aleph-Alpha/persist/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:         logger.Info,
//	    ServiceName:   "orders",
//	    EnableTracing: true,
//	})
//
//	log.Info("store opened", nil, map[string]interface{}{
//	    "table": "dummies",
//	})
//
// # Context-Aware Logging
//
// The *WithContext methods enrich entries with the correlation id carried by
// the context (see the observability package) and, when EnableTracing is
// set, the active OpenTelemetry trace and span ids:
//
//	ctx = observability.WithCorrelationID(ctx, requestID)
//	log.DebugWithContext(ctx, "executing query", nil, nil)
//
// The following fields are added automatically when present:
//   - correlation_id: the request correlation id
//   - trace_id: the OpenTelemetry trace id
//   - span_id: the OpenTelemetry span id
//
// # Type Aliases in Consumer Code
//
// Consuming packages declare their own minimal Logger interface with just
// the methods they call (the mysql package does exactly this), so they never
// import zap or this package directly. *LoggerClient satisfies any such
// subset.
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule, // provides *LoggerClient and logger.Logger
//	    fx.Provide(func() logger.Config {
//	        return logger.Config{Level: logger.Info, ServiceName: "orders"}
//	    }),
//	    // other modules...
//	)
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
