package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/persist/v1/observability"
)

// Error categories. Every *Error belongs to exactly one.
const (
	// CategoryConfiguration marks errors caused by missing or invalid
	// configuration: no connection fragment, no host, no table name.
	// Always fatal to the call, never worth retrying.
	CategoryConfiguration = "configuration"

	// CategoryConnection marks connect and disconnect failures. The
	// underlying driver error is attached as the cause.
	CategoryConnection = "connection"

	// CategorySchema marks entities that do not support the canonical
	// map-conversion contract. This signals a programming error by the
	// integrator, not a runtime condition.
	CategorySchema = "schema"

	// CategoryInvalidState marks internally inconsistent component state,
	// such as a store marked open without a live connection.
	CategoryInvalidState = "invalid_state"
)

// Error kinds: stable strings suitable for programmatic branching.
const (
	KindNoConnection     = "NO_CONNECTION"
	KindNoHost           = "NO_HOST"
	KindNoPort           = "NO_PORT"
	KindNoDatabase       = "NO_DATABASE"
	KindNoTable          = "NO_TABLE"
	KindConnectFailed    = "CONNECT_FAILED"
	KindDisconnectFailed = "DISCONNECT_FAILED"
	KindSchemaMismatch   = "SCHEMA_MISMATCH"
	KindNotOpened        = "NOT_OPENED"
)

// Error is the typed error returned by this package. Kind is stable across
// releases; branch on it (or on the Is* predicates) rather than on the
// message text.
type Error struct {
	// Category is one of the Category* constants.
	Category string

	// Kind is one of the Kind* constants.
	Kind string

	// CorrelationID is the request correlation id active when the error
	// was created, or "" when the context carried none.
	CorrelationID string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Category, e.Kind, e.Message)
	if e.CorrelationID != "" {
		msg += fmt.Sprintf(" (correlation_id=%s)", e.CorrelationID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a configuration-category error.
func NewConfigurationError(ctx context.Context, kind, message string) *Error {
	return &Error{
		Category:      CategoryConfiguration,
		Kind:          kind,
		CorrelationID: observability.CorrelationID(ctx),
		Message:       message,
	}
}

// NewConnectionError creates a connection-category error wrapping cause.
func NewConnectionError(ctx context.Context, kind, message string, cause error) *Error {
	return &Error{
		Category:      CategoryConnection,
		Kind:          kind,
		CorrelationID: observability.CorrelationID(ctx),
		Message:       message,
		Cause:         cause,
	}
}

// NewInvalidStateError creates an invalid-state-category error.
func NewInvalidStateError(ctx context.Context, kind, message string) *Error {
	return &Error{
		Category:      CategoryInvalidState,
		Kind:          kind,
		CorrelationID: observability.CorrelationID(ctx),
		Message:       message,
	}
}

// newSchemaError creates a schema-category error without a correlation id.
// Converters have no access to the request context; the store stamps the id
// via withCorrelation before the error reaches the caller.
func newSchemaError(message string, cause error) *Error {
	return &Error{
		Category: CategorySchema,
		Kind:     KindSchemaMismatch,
		Message:  message,
		Cause:    cause,
	}
}

// withCorrelation stamps the context's correlation id onto err when err is a
// *Error that does not carry one yet. Other errors pass through unchanged.
func withCorrelation(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.CorrelationID == "" {
		e.CorrelationID = observability.CorrelationID(ctx)
	}
	return err
}

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryConfiguration
}

// IsConnectionError checks if the error is a connect or disconnect failure.
func IsConnectionError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryConnection
}

// IsSchemaError checks if the error is a map-conversion contract violation.
func IsSchemaError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategorySchema
}

// IsInvalidStateError checks if the error reports inconsistent component
// state.
func IsInvalidStateError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryInvalidState
}

// ErrorKind returns the stable kind string of err, or "" when err is not a
// *Error from this package.
func ErrorKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDuplicateKeyError checks if the error is a unique-constraint violation
// reported by the driver. Connections are opened with GORM error translation
// enabled, so driver-specific duplicate-key errors surface as
// gorm.ErrDuplicatedKey.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
