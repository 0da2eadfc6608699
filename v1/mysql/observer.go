package mysql

import (
	"time"

	"github.com/Aleph-Alpha/persist/v1/observability"
)

// WithObserver sets the observer notified after every store operation.
// Returns the store for chaining.
func (s *Store[T]) WithObserver(observer observability.Observer) *Store[T] {
	s.observer = observer
	return s
}

// observeOperation reports one completed operation to the observer, if any.
// Size carries the number of rows read or affected.
func (s *Store[T]) observeOperation(operation string, duration time.Duration, err error, size int64) {
	if s == nil || s.observer == nil {
		return
	}
	s.observer.ObserveOperation(observability.OperationContext{
		Component: "mysql",
		Operation: operation,
		Resource:  s.storeCfg.Table,
		Duration:  duration,
		Error:     err,
		Size:      size,
	})
}
