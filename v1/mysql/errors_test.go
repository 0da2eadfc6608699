package mysql

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/persist/v1/observability"
)

func TestErrorMessageFormat(t *testing.T) {
	err := &Error{
		Category: CategoryConfiguration,
		Kind:     KindNoHost,
		Message:  "connection host is not set",
	}
	assert.Equal(t, "configuration NO_HOST: connection host is not set", err.Error())

	err.CorrelationID = "req-123"
	assert.Equal(t, "configuration NO_HOST: connection host is not set (correlation_id=req-123)", err.Error())

	err.Cause = assert.AnError
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := NewConnectionError(context.Background(), KindConnectFailed, "connection to mysql failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestErrorCapturesCorrelationID(t *testing.T) {
	ctx := observability.WithCorrelationID(context.Background(), "req-42")

	err := NewConfigurationError(ctx, KindNoTable, "table name is not configured")
	assert.Equal(t, "req-42", err.CorrelationID)
}

func TestErrorPredicates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		kind      string
	}{
		{
			name:      "configuration",
			err:       NewConfigurationError(ctx, KindNoHost, "connection host is not set"),
			predicate: IsConfigurationError,
			kind:      KindNoHost,
		},
		{
			name:      "connection",
			err:       NewConnectionError(ctx, KindConnectFailed, "connection to mysql failed", nil),
			predicate: IsConnectionError,
			kind:      KindConnectFailed,
		},
		{
			name:      "schema",
			err:       newSchemaError("entity does not support map conversion", nil),
			predicate: IsSchemaError,
			kind:      KindSchemaMismatch,
		},
		{
			name:      "invalid state",
			err:       NewInvalidStateError(ctx, KindNoConnection, "mysql connection is missing"),
			predicate: IsInvalidStateError,
			kind:      KindNoConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.predicate(tt.err))
			assert.Equal(t, tt.kind, ErrorKind(tt.err))
		})
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	inner := NewConfigurationError(context.Background(), KindNoPort, "connection port is not set")
	wrapped := fmt.Errorf("resolving endpoint: %w", inner)

	assert.True(t, IsConfigurationError(wrapped))
	assert.Equal(t, KindNoPort, ErrorKind(wrapped))
}

func TestErrorKindOnForeignError(t *testing.T) {
	assert.Equal(t, "", ErrorKind(assert.AnError))
	assert.Equal(t, "", ErrorKind(nil))
}

func TestWithCorrelationStampsBareErrors(t *testing.T) {
	ctx := observability.WithCorrelationID(context.Background(), "req-7")

	err := withCorrelation(ctx, newSchemaError("row does not match entity shape", nil))
	var typed *Error
	assert.ErrorAs(t, err, &typed)
	assert.Equal(t, "req-7", typed.CorrelationID)
}

func TestWithCorrelationKeepsExistingID(t *testing.T) {
	first := observability.WithCorrelationID(context.Background(), "req-1")
	second := observability.WithCorrelationID(context.Background(), "req-2")

	err := withCorrelation(first, NewConfigurationError(first, KindNoHost, "connection host is not set"))
	err = withCorrelation(second, err)

	var typed *Error
	assert.ErrorAs(t, err, &typed)
	assert.Equal(t, "req-1", typed.CorrelationID)
}

func TestWithCorrelationPassesForeignErrors(t *testing.T) {
	assert.ErrorIs(t, withCorrelation(context.Background(), assert.AnError), assert.AnError)
	assert.NoError(t, withCorrelation(context.Background(), nil))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, IsDuplicateKeyError(assert.AnError))
}
