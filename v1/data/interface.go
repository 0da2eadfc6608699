// Package data defines the shared data-model types and store contracts used
// by the persistence components: paged results, paging parameters, and the
// generic CRUD interfaces stores implement.
//
// Applications depend on these interfaces rather than concrete store types:
//
//	type DummyRepository struct {
//	    store data.Writer[Dummy, string]
//	}
//
// The mysql package's IdentifiableStore satisfies every interface below.
package data

import "context"

// Opener is implemented by components with an explicit open/close lifecycle.
// Open is idempotent; opening an already-open component is a no-op.
type Opener interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool
}

// Cleaner is implemented by stores that can remove all of their records.
type Cleaner interface {
	Clear(ctx context.Context) error
}

// Getter reads single records of type T addressed by keys of type K.
// A nil result with a nil error means no record matched.
type Getter[T any, K any] interface {
	GetOneByID(ctx context.Context, id K) (*T, error)
}

// Writer creates, updates and deletes records of type T keyed by K.
//
// Create returns the stored record, which may differ from the input when an
// id was auto-generated. Update returns nil when the id matched no record.
// DeleteByID returns the record as it was before deletion, or nil when the
// id matched no record.
type Writer[T any, K any] interface {
	Create(ctx context.Context, item T) (*T, error)
	Update(ctx context.Context, item T) (*T, error)
	DeleteByID(ctx context.Context, id K) (*T, error)
}

// Setter upserts records: Set inserts the record when its key is unseen and
// fully replaces it otherwise, returning the freshly stored value.
type Setter[T any] interface {
	Set(ctx context.Context, item T) (*T, error)
}

// PartialUpdater applies a sparse field update to the record with the given
// id, returning the record after the update or nil when the id matched no
// record.
type PartialUpdater[T any, K any] interface {
	UpdatePartially(ctx context.Context, id K, update map[string]interface{}) (*T, error)
}
