package observability

import "time"

// OperationContext describes a single completed operation against a backing
// service. Components fill in the fields that make sense for the operation;
// unused fields are left at their zero value.
type OperationContext struct {
	// Component is the name of the component that performed the operation
	// (e.g., "mysql").
	Component string

	// Operation is the logical operation name (e.g., "create", "get_page").
	Operation string

	// Resource is the primary resource the operation touched, typically a
	// table or collection name.
	Resource string

	// SubResource carries additional addressing context, such as a record
	// id or column name, when one applies.
	SubResource string

	// Duration is the wall-clock time the operation took.
	Duration time.Duration

	// Error is the error the operation returned, or nil on success.
	Error error

	// Size is an operation-specific magnitude: rows returned, rows
	// affected, or bytes written.
	Size int64

	// Metadata holds free-form operation attributes.
	Metadata map[string]interface{}
}

// Observer receives operation events from instrumented components.
//
// Implementations must be safe for concurrent use and must not block:
// observers sit on the hot path of every instrumented call.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls the wrapped function.
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
