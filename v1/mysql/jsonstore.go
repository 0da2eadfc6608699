package mysql

import (
	"context"
	"encoding/json"

	"github.com/Aleph-Alpha/persist/v1/keys"
	"github.com/Aleph-Alpha/persist/v1/observability"
)

// Default column types of the two-column document table.
const (
	// DefaultIDType is the column type of the id column.
	DefaultIDType = "VARCHAR(32)"

	// DefaultDataType is the column type of the data column.
	DefaultDataType = "JSON"
)

// JSONStore is an IdentifiableStore that persists entities as JSON
// documents in a two-column table: an id column for keyed access and a data
// column holding the full entity encoding. Partial updates patch the
// document in place with JSON_MERGE_PATCH instead of rewriting columns.
//
// Filter fragments run against the stored columns, so they address entity
// fields through JSON paths, for example data->>'$.key'. Generated columns
// over frequently filtered paths keep such filters indexable; declare them
// through a custom schema hook.
type JSONStore[T any, K comparable] struct {
	*IdentifiableStore[T, K]
}

// NewJSONStore creates a closed JSON document store with the document
// storage mapping and a default schema hook creating the two-column table.
func NewJSONStore[T any, K comparable](cfg Config, storeCfg StoreConfig) *JSONStore[T, K] {
	s := &JSONStore[T, K]{
		IdentifiableStore: NewIdentifiableStore[T, K](cfg, storeCfg),
	}
	s.IdentifiableStore.WithConverter(DocumentConverter[T]{})
	s.IdentifiableStore.WithSchemaDefinition(func(*Store[T]) {
		s.EnsureTable("", "")
	})
	return s
}

// EnsureTable appends the document table DDL with the given column types,
// falling back to VARCHAR(32) ids and a JSON data column when empty.
func (s *JSONStore[T, K]) EnsureTable(idType string, dataType string) {
	if idType == "" {
		idType = DefaultIDType
	}
	if dataType == "" {
		dataType = DefaultDataType
	}
	s.EnsureSchema("CREATE TABLE " + s.QuotedTableName() +
		" (`id` " + idType + " PRIMARY KEY, `data` " + dataType + ")")
}

// WithConnection attaches a shared connection. Returns the store for
// chaining.
func (s *JSONStore[T, K]) WithConnection(conn *Connection) *JSONStore[T, K] {
	s.IdentifiableStore.WithConnection(conn)
	return s
}

// WithLogger sets the logger. Returns the store for chaining.
func (s *JSONStore[T, K]) WithLogger(logger Logger) *JSONStore[T, K] {
	s.IdentifiableStore.WithLogger(logger)
	return s
}

// WithObserver sets the operation observer. Returns the store for chaining.
func (s *JSONStore[T, K]) WithObserver(observer observability.Observer) *JSONStore[T, K] {
	s.IdentifiableStore.WithObserver(observer)
	return s
}

// WithSchemaDefinition replaces the default schema hook. Returns the store
// for chaining.
func (s *JSONStore[T, K]) WithSchemaDefinition(define func(s *Store[T])) *JSONStore[T, K] {
	s.IdentifiableStore.WithSchemaDefinition(define)
	return s
}

// WithGenerator replaces the id generator. Returns the store for chaining.
func (s *JSONStore[T, K]) WithGenerator(generator keys.Generator[K]) *JSONStore[T, K] {
	s.IdentifiableStore.WithGenerator(generator)
	return s
}

// UpdatePartially merges the given entity fields into the stored document
// with JSON_MERGE_PATCH and returns the persisted result. Unlike the
// column-wise base behavior, keys name entity fields rather than columns.
// Returns nil without error when the id is the zero key or the update is
// empty.
func (s *JSONStore[T, K]) UpdatePartially(ctx context.Context, id K, update map[string]interface{}) (*T, error) {
	var zero K
	if id == zero || len(update) == 0 {
		return nil, nil
	}

	patch, err := json.Marshal(update)
	if err != nil {
		return nil, withCorrelation(ctx, newSchemaError("update does not encode to a document patch", err))
	}
	query := "UPDATE " + s.QuotedTableName() +
		" SET `data`=JSON_MERGE_PATCH(`data`,?) WHERE `id`=?"

	if _, err := s.execute(ctx, "update_partially", query, []interface{}{string(patch), id}); err != nil {
		return nil, err
	}
	s.logDebug(ctx, "partially updated document", map[string]interface{}{
		"table": s.storeCfg.Table,
		"id":    id,
	})
	return s.GetOneByID(ctx, id)
}
