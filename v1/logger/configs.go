package logger

// Log level names accepted in Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config defines the configuration for the logger.
type Config struct {
	// Level is the minimum level that will be emitted.
	// One of: "debug", "info", "warning", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// ServiceName is stamped onto every log entry as the "service" field.
	ServiceName string `yaml:"service_name"`

	// EnableTracing controls whether the *WithContext logging methods
	// extract OpenTelemetry trace and span ids from the context and
	// include them in log entries.
	EnableTracing bool `yaml:"enable_tracing"`
}
