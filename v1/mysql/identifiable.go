package mysql

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/persist/v1/keys"
	"github.com/Aleph-Alpha/persist/v1/observability"
)

// IdentifiableStore is a Store over entities keyed by an id column of type
// K. It adds id-keyed reads, writes and deletes on top of the filter-based
// operations of Store, and can generate ids for entities created without
// one.
//
// Entities expose their id through the canonical map conversion under the
// "id" key. For string keys a UUIDv7 generator is installed by default;
// other key types start without one and only assign ids after WithGenerator.
type IdentifiableStore[T any, K comparable] struct {
	*Store[T]

	generator keys.Generator[K]
}

// NewIdentifiableStore creates a closed identifiable store.
func NewIdentifiableStore[T any, K comparable](cfg Config, storeCfg StoreConfig) *IdentifiableStore[T, K] {
	s := &IdentifiableStore[T, K]{
		Store: NewStore[T](cfg, storeCfg),
	}
	if generator, ok := any(keys.UUIDv7Generator{}).(keys.Generator[K]); ok {
		s.generator = generator
	}
	return s
}

// WithConnection attaches a shared connection. Returns the store for
// chaining.
func (s *IdentifiableStore[T, K]) WithConnection(conn *Connection) *IdentifiableStore[T, K] {
	s.Store.WithConnection(conn)
	return s
}

// WithLogger sets the logger. Returns the store for chaining.
func (s *IdentifiableStore[T, K]) WithLogger(logger Logger) *IdentifiableStore[T, K] {
	s.Store.WithLogger(logger)
	return s
}

// WithObserver sets the operation observer. Returns the store for chaining.
func (s *IdentifiableStore[T, K]) WithObserver(observer observability.Observer) *IdentifiableStore[T, K] {
	s.Store.WithObserver(observer)
	return s
}

// WithConverter replaces the storage mapping. Returns the store for
// chaining.
func (s *IdentifiableStore[T, K]) WithConverter(converter Converter[T]) *IdentifiableStore[T, K] {
	s.Store.WithConverter(converter)
	return s
}

// WithSchemaDefinition installs the schema hook. Returns the store for
// chaining.
func (s *IdentifiableStore[T, K]) WithSchemaDefinition(define func(s *Store[T])) *IdentifiableStore[T, K] {
	s.Store.WithSchemaDefinition(define)
	return s
}

// WithGenerator replaces the id generator used for entities created without
// an id. A nil generator disables id assignment. Returns the store for
// chaining.
func (s *IdentifiableStore[T, K]) WithGenerator(generator keys.Generator[K]) *IdentifiableStore[T, K] {
	s.generator = generator
	return s
}

// GetOneByID retrieves the entity with the given id. Returns nil without
// error when no row matches.
func (s *IdentifiableStore[T, K]) GetOneByID(ctx context.Context, id K) (*T, error) {
	query := "SELECT * FROM " + s.QuotedTableName() + " WHERE `id`=?"
	rowMaps, err := s.queryRowMaps(ctx, "get_one_by_id", query, []interface{}{id})
	if err != nil {
		return nil, err
	}
	if len(rowMaps) == 0 {
		s.logDebug(ctx, "nothing found by id", map[string]interface{}{
			"table": s.storeCfg.Table,
			"id":    id,
		})
		return nil, nil
	}

	item, err := s.converter.ToPublic(rowMaps[0])
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	s.logDebug(ctx, "retrieved item by id", map[string]interface{}{
		"table": s.storeCfg.Table,
		"id":    id,
	})
	return &item, nil
}

// GetListByIDs retrieves the entities whose ids appear in ids. Missing ids
// are skipped; the result order follows the database, not ids.
func (s *IdentifiableStore[T, K]) GetListByIDs(ctx context.Context, ids []K) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE `id` IN (%s)",
		s.QuotedTableName(), GenerateParameters(len(ids)))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rowMaps, err := s.queryRowMaps(ctx, "get_list_by_ids", query, args)
	if err != nil {
		return nil, err
	}
	items, err := s.toPublicList(ctx, rowMaps)
	if err != nil {
		return nil, err
	}
	s.logDebug(ctx, "retrieved items by ids", map[string]interface{}{
		"table": s.storeCfg.Table,
		"count": len(items),
	})
	return items, nil
}

// Create inserts the entity, assigning a generated id first when the entity
// carries none and a generator is installed. The stored entity is returned;
// the argument is never mutated.
func (s *IdentifiableStore[T, K]) Create(ctx context.Context, item T) (*T, error) {
	prepared, err := s.ensureID(item)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	return s.Store.Create(ctx, prepared)
}

// Set stores the entity by insert-or-overwrite on its id, assigning a
// generated id first when the entity carries none and a generator is
// installed. The row is re-read after the write, so the result reflects
// what the database persisted.
func (s *IdentifiableStore[T, K]) Set(ctx context.Context, item T) (*T, error) {
	prepared, err := s.ensureID(item)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	id, _, err := s.idOf(prepared)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}

	row, err := s.converter.FromPublic(prepared)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	columns := SortedColumns(row)
	values := ColumnValues(row, columns)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		s.QuotedTableName(), GenerateColumns(columns),
		GenerateParameters(len(columns)), GenerateSetClause(columns))
	args := append(values, values...)

	if _, err := s.execute(ctx, "set", query, args); err != nil {
		return nil, err
	}
	s.logDebug(ctx, "set item", map[string]interface{}{
		"table": s.storeCfg.Table,
		"id":    id,
	})
	return s.GetOneByID(ctx, id)
}

// Update overwrites the row matching the entity's id with the entity's full
// shape and returns the persisted result. Returns nil without error when
// the entity carries no id or no row matches.
func (s *IdentifiableStore[T, K]) Update(ctx context.Context, item T) (*T, error) {
	id, hasID, err := s.idOf(item)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	if !hasID {
		return nil, nil
	}

	row, err := s.converter.FromPublic(item)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	columns := SortedColumns(row)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE `id`=?",
		s.QuotedTableName(), GenerateSetClause(columns))
	args := append(ColumnValues(row, columns), id)

	if _, err := s.execute(ctx, "update", query, args); err != nil {
		return nil, err
	}
	s.logDebug(ctx, "updated item", map[string]interface{}{
		"table": s.storeCfg.Table,
		"id":    id,
	})
	return s.GetOneByID(ctx, id)
}

// UpdatePartially applies the given column values to the row with the given
// id and returns the persisted result. Returns nil without error when the
// id is the zero key or the update is empty.
func (s *IdentifiableStore[T, K]) UpdatePartially(ctx context.Context, id K, update map[string]interface{}) (*T, error) {
	var zero K
	if id == zero || len(update) == 0 {
		return nil, nil
	}

	columns := SortedColumns(update)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE `id`=?",
		s.QuotedTableName(), GenerateSetClause(columns))
	args := append(ColumnValues(update, columns), id)

	if _, err := s.execute(ctx, "update_partially", query, args); err != nil {
		return nil, err
	}
	s.logDebug(ctx, "partially updated item", map[string]interface{}{
		"table": s.storeCfg.Table,
		"id":    id,
	})
	return s.GetOneByID(ctx, id)
}

// DeleteByID deletes the row with the given id and returns the entity as it
// was before the delete. Returns nil without error when no row matches.
func (s *IdentifiableStore[T, K]) DeleteByID(ctx context.Context, id K) (*T, error) {
	old, err := s.GetOneByID(ctx, id)
	if err != nil {
		return nil, err
	}

	query := "DELETE FROM " + s.QuotedTableName() + " WHERE `id`=?"
	if _, err := s.execute(ctx, "delete_by_id", query, []interface{}{id}); err != nil {
		return nil, err
	}
	s.logDebug(ctx, "deleted item", map[string]interface{}{
		"table": s.storeCfg.Table,
		"id":    id,
	})
	return old, nil
}

// DeleteByIDs deletes all rows whose ids appear in ids.
func (s *IdentifiableStore[T, K]) DeleteByIDs(ctx context.Context, ids []K) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE `id` IN (%s)",
		s.QuotedTableName(), GenerateParameters(len(ids)))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	affected, err := s.execute(ctx, "delete_by_ids", query, args)
	if err != nil {
		return err
	}
	s.logDebug(ctx, "deleted items", map[string]interface{}{
		"table": s.storeCfg.Table,
		"count": affected,
	})
	return nil
}

// idOf extracts the entity's id through the canonical map conversion. The
// second result reports whether the entity carries a nonzero id.
func (s *IdentifiableStore[T, K]) idOf(item T) (K, bool, error) {
	var id K
	public, err := MapConverter[T]{}.FromPublic(item)
	if err != nil {
		return id, false, err
	}
	raw, ok := public["id"]
	if !ok || raw == nil {
		return id, false, nil
	}
	if err := remapValue(raw, &id); err != nil {
		return id, false, err
	}
	var zero K
	return id, id != zero, nil
}

// ensureID returns the entity itself when it already carries an id or no
// generator is installed, and a clone with a freshly generated id
// otherwise. Cloning goes through the canonical map conversion, so the
// caller's entity is never mutated.
func (s *IdentifiableStore[T, K]) ensureID(item T) (T, error) {
	if s.generator == nil {
		return item, nil
	}
	_, hasID, err := s.idOf(item)
	if err != nil || hasID {
		return item, err
	}

	public, err := MapConverter[T]{}.FromPublic(item)
	if err != nil {
		return item, err
	}
	public["id"] = s.generator.Next()
	return MapConverter[T]{}.ToPublic(public)
}
