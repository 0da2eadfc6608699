package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/persist/v1/data"
	"github.com/Aleph-Alpha/persist/v1/observability"
)

// Ownership states how a store acquired its connection.
type Ownership int

const (
	// SharedConnection marks a connection supplied from outside. The
	// store never opens or closes it; the supplier owns its lifecycle.
	SharedConnection Ownership = iota

	// OwnedConnection marks a connection the store created for itself.
	// The store opens it on Open and tears it down on Close.
	OwnedConnection
)

// Store is a generic SQL-generating store over entities of type T. It is
// the base of IdentifiableStore and JSONStore and carries the pieces they
// share: connection handling, schema bootstrap, converter-driven row
// mapping and filter-based reads and deletes.
//
// Filter, sort and projection arguments are raw SQL fragments interpolated
// verbatim into generated statements. They are trusted input; never build
// them from unsanitized user data.
type Store[T any] struct {
	cfg      Config
	storeCfg StoreConfig

	converter    Converter[T]
	defineSchema func(s *Store[T])
	logger       Logger
	observer     observability.Observer

	mu               sync.RWMutex
	conn             *Connection
	ownership        Ownership
	opened           bool
	schemaStatements []string
}

// NewStore creates a closed store. Without an explicit WithConnection the
// store creates and owns a private connection on Open.
func NewStore[T any](cfg Config, storeCfg StoreConfig) *Store[T] {
	cfg = cfg.withDefaults()
	if storeCfg.MaxPageSize <= 0 {
		storeCfg.MaxPageSize = cfg.Options.MaxPageSize
	}
	return &Store[T]{
		cfg:       cfg,
		storeCfg:  storeCfg,
		converter: MapConverter[T]{},
	}
}

// WithConnection attaches a shared connection. The store will not manage
// its lifecycle. Returns the store for chaining.
func (s *Store[T]) WithConnection(conn *Connection) *Store[T] {
	s.conn = conn
	s.ownership = SharedConnection
	return s
}

// WithLogger sets the logger. Returns the store for chaining.
func (s *Store[T]) WithLogger(logger Logger) *Store[T] {
	s.logger = logger
	return s
}

// WithConverter replaces the storage mapping. Returns the store for
// chaining.
func (s *Store[T]) WithConverter(converter Converter[T]) *Store[T] {
	s.converter = converter
	return s
}

// WithSchemaDefinition installs the schema hook. The hook runs on every
// Open against an empty statement list and declares the store's DDL through
// EnsureSchema and EnsureIndex. Returns the store for chaining.
func (s *Store[T]) WithSchemaDefinition(define func(s *Store[T])) *Store[T] {
	s.defineSchema = define
	return s
}

// EnsureSchema appends a DDL statement to the bootstrap list.
func (s *Store[T]) EnsureSchema(ddl string) {
	s.schemaStatements = append(s.schemaStatements, ddl)
}

// EnsureIndex appends a CREATE INDEX statement over the given columns to
// the bootstrap list.
func (s *Store[T]) EnsureIndex(name string, columns []string, unique bool) {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = QuoteIdentifier(column)
	}
	stmt := "CREATE "
	if unique {
		stmt += "UNIQUE "
	}
	stmt += "INDEX " + QuoteIdentifier(name) + " ON " + s.QuotedTableName() +
		" (" + strings.Join(quoted, ", ") + ")"
	s.EnsureSchema(stmt)
}

// ClearSchema drops all accumulated DDL statements.
func (s *Store[T]) ClearSchema() {
	s.schemaStatements = nil
}

// Open acquires a connection and bootstraps the schema. When no shared
// connection was attached the store creates and opens a private one. The
// schema hook runs on every Open, but its statements execute only when the
// configured table does not exist yet. A bootstrap failure leaves the store
// closed and tears a privately created connection back down; a shared
// connection is left untouched. Opening an open store is a no-op.
func (s *Store[T]) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}

	if s.conn == nil {
		s.conn = NewConnection(s.cfg).WithLogger(s.logger)
		s.ownership = OwnedConnection
	}
	if s.ownership == OwnedConnection {
		if err := s.conn.Open(ctx); err != nil {
			return err
		}
	}
	if !s.conn.IsOpen() {
		return NewConnectionError(ctx, KindConnectFailed, "mysql connection is not opened", nil)
	}

	s.schemaStatements = nil
	if s.defineSchema != nil {
		s.defineSchema(s)
	}
	if err := s.bootstrap(ctx, s.conn.DB()); err != nil {
		if s.ownership == OwnedConnection {
			_ = s.conn.Close(ctx)
			s.conn = nil
		}
		return err
	}

	s.opened = true
	s.logDebug(ctx, "opened mysql store", map[string]interface{}{
		"table":    s.storeCfg.Table,
		"database": s.conn.DatabaseName(),
	})
	return nil
}

// Close releases the store. An owned connection is torn down, a shared one
// is left untouched. Closing a closed store is a no-op; a store marked open
// without a connection reports an invalid state.
func (s *Store[T]) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return nil
	}
	if s.conn == nil {
		return NewInvalidStateError(ctx, KindNoConnection, "mysql connection is missing")
	}
	if s.ownership == OwnedConnection {
		if err := s.conn.Close(ctx); err != nil {
			return err
		}
	}

	s.opened = false
	s.logDebug(ctx, "closed mysql store", map[string]interface{}{
		"table": s.storeCfg.Table,
	})
	return nil
}

// IsOpen reports the store's own opened flag. It does not probe the
// connection, so a shared connection closed elsewhere leaves the flag
// stale until the next operation fails.
func (s *Store[T]) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opened
}

// Connection returns the attached connection, or nil before the first Open
// of a store without one.
func (s *Store[T]) Connection() *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Clear deletes all rows from the table.
func (s *Store[T]) Clear(ctx context.Context) error {
	if s.storeCfg.Table == "" {
		return NewConfigurationError(ctx, KindNoTable, "table name is not configured")
	}
	query := "DELETE FROM " + s.QuotedTableName()
	if _, err := s.execute(ctx, "clear", query, nil); err != nil {
		return err
	}
	s.logDebug(ctx, "cleared mysql table", map[string]interface{}{
		"table": s.storeCfg.Table,
	})
	return nil
}

// GetPageByFilter retrieves one page of entities matching the filter
// fragment, ordered by the sort fragment and narrowed to the projection
// fragment when given. A nil paging selects the first page with the
// configured maximum size. The page total is computed with a second COUNT
// query only when the paging asks for it; otherwise it is
// data.TotalNotComputed.
func (s *Store[T]) GetPageByFilter(ctx context.Context, filter string, paging *data.PagingParams, sort string, projection string) (*data.DataPage[T], error) {
	query := s.buildPageQuery(filter, paging, sort, projection)
	rowMaps, err := s.queryRowMaps(ctx, "get_page_by_filter", query, nil)
	if err != nil {
		return nil, err
	}
	items, err := s.toPublicList(ctx, rowMaps)
	if err != nil {
		return nil, err
	}
	s.logDebug(ctx, "retrieved page", map[string]interface{}{
		"table": s.storeCfg.Table,
		"count": len(items),
	})

	total := data.TotalNotComputed
	if paging.HasTotal() {
		if total, err = s.GetCountByFilter(ctx, filter); err != nil {
			return nil, err
		}
	}
	return data.NewDataPage(items, total), nil
}

// GetListByFilter retrieves all entities matching the filter fragment with
// no paging applied.
func (s *Store[T]) GetListByFilter(ctx context.Context, filter string, sort string, projection string) ([]T, error) {
	query := s.buildListQuery(filter, sort, projection)
	rowMaps, err := s.queryRowMaps(ctx, "get_list_by_filter", query, nil)
	if err != nil {
		return nil, err
	}
	items, err := s.toPublicList(ctx, rowMaps)
	if err != nil {
		return nil, err
	}
	s.logDebug(ctx, "retrieved list", map[string]interface{}{
		"table": s.storeCfg.Table,
		"count": len(items),
	})
	return items, nil
}

// GetCountByFilter counts the entities matching the filter fragment.
func (s *Store[T]) GetCountByFilter(ctx context.Context, filter string) (int64, error) {
	query := s.buildCountQuery(filter)
	count, err := s.queryCount(ctx, "get_count_by_filter", query)
	if err != nil {
		return 0, err
	}
	s.logDebug(ctx, "counted items", map[string]interface{}{
		"table": s.storeCfg.Table,
		"count": count,
	})
	return count, nil
}

// GetOneRandom retrieves one entity matching the filter fragment, selected
// uniformly by row offset. Returns nil without error when nothing matches.
// The count and the pick are separate queries, so a concurrent write can
// shift the offset between them.
func (s *Store[T]) GetOneRandom(ctx context.Context, filter string) (*T, error) {
	count, err := s.GetCountByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}

	query := s.buildRandomQuery(filter, rand.Int64N(count))
	rowMaps, err := s.queryRowMaps(ctx, "get_one_random", query, nil)
	if err != nil {
		return nil, err
	}
	if len(rowMaps) == 0 {
		return nil, nil
	}
	item, err := s.converter.ToPublic(rowMaps[0])
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	s.logDebug(ctx, "retrieved random item", map[string]interface{}{
		"table": s.storeCfg.Table,
	})
	return &item, nil
}

// Create inserts the entity and returns a copy of it. Uniqueness violations
// surface as gorm.ErrDuplicatedKey; see IsDuplicateKeyError.
func (s *Store[T]) Create(ctx context.Context, item T) (*T, error) {
	row, err := s.converter.FromPublic(item)
	if err != nil {
		return nil, withCorrelation(ctx, err)
	}
	columns := SortedColumns(row)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.QuotedTableName(), GenerateColumns(columns), GenerateParameters(len(columns)))
	if _, err := s.execute(ctx, "create", query, ColumnValues(row, columns)); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"table": s.storeCfg.Table}
	if id, ok := row["id"]; ok {
		fields["id"] = id
	}
	s.logDebug(ctx, "created item", fields)

	created := item
	return &created, nil
}

// DeleteByFilter deletes all entities matching the filter fragment. An
// empty filter deletes every row.
func (s *Store[T]) DeleteByFilter(ctx context.Context, filter string) error {
	query := "DELETE FROM " + s.QuotedTableName()
	if filter != "" {
		query += " WHERE " + filter
	}
	affected, err := s.execute(ctx, "delete_by_filter", query, nil)
	if err != nil {
		return err
	}
	s.logDebug(ctx, "deleted items", map[string]interface{}{
		"table": s.storeCfg.Table,
		"count": affected,
	})
	return nil
}

// QuotedTableName returns the backtick-quoted table name, schema-qualified
// when a schema is configured.
func (s *Store[T]) QuotedTableName() string {
	if s.storeCfg.Table == "" {
		return ""
	}
	if s.storeCfg.Schema != "" {
		return QuoteIdentifier(s.storeCfg.Schema) + "." + QuoteIdentifier(s.storeCfg.Table)
	}
	return QuoteIdentifier(s.storeCfg.Table)
}

func (s *Store[T]) buildPageQuery(filter string, paging *data.PagingParams, sort string, projection string) string {
	selection := projection
	if selection == "" {
		selection = "*"
	}
	query := "SELECT " + selection + " FROM " + s.QuotedTableName()
	if filter != "" {
		query += " WHERE " + filter
	}
	if sort != "" {
		query += " ORDER BY " + sort
	}
	query += " LIMIT " + strconv.FormatInt(paging.Limit(s.storeCfg.MaxPageSize), 10)
	if skip := paging.Offset(-1); skip >= 0 {
		query += " OFFSET " + strconv.FormatInt(skip, 10)
	}
	return query
}

func (s *Store[T]) buildListQuery(filter string, sort string, projection string) string {
	selection := projection
	if selection == "" {
		selection = "*"
	}
	query := "SELECT " + selection + " FROM " + s.QuotedTableName()
	if filter != "" {
		query += " WHERE " + filter
	}
	if sort != "" {
		query += " ORDER BY " + sort
	}
	return query
}

func (s *Store[T]) buildCountQuery(filter string) string {
	query := "SELECT COUNT(*) AS count FROM " + s.QuotedTableName()
	if filter != "" {
		query += " WHERE " + filter
	}
	return query
}

func (s *Store[T]) buildRandomQuery(filter string, offset int64) string {
	query := "SELECT * FROM " + s.QuotedTableName()
	if filter != "" {
		query += " WHERE " + filter
	}
	return query + " LIMIT 1 OFFSET " + strconv.FormatInt(offset, 10)
}

// bootstrap executes the accumulated DDL when the table does not exist yet.
// Existence is probed through information_schema, so two processes opening
// against a missing table can still race into duplicate DDL; idempotent
// statements such as CREATE TABLE IF NOT EXISTS sidestep that.
func (s *Store[T]) bootstrap(ctx context.Context, db *gorm.DB) error {
	if len(s.schemaStatements) == 0 || s.storeCfg.Table == "" {
		return nil
	}

	exists, err := tableExists(ctx, db, s.storeCfg.Schema, s.storeCfg.Table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	s.logDebug(ctx, "creating mysql table", map[string]interface{}{
		"table": s.storeCfg.Table,
	})
	start := time.Now()
	for _, ddl := range s.schemaStatements {
		if err := db.WithContext(ctx).Exec(ddl).Error; err != nil {
			s.observeOperation("bootstrap", time.Since(start), err, 0)
			return err
		}
	}
	s.observeOperation("bootstrap", time.Since(start), nil, int64(len(s.schemaStatements)))
	return nil
}

func tableExists(ctx context.Context, db *gorm.DB, schema string, table string) (bool, error) {
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	args := []interface{}{table}
	if schema != "" {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		args = []interface{}{schema, table}
	}
	var count int64
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// handle returns the GORM handle bound to ctx, or an invalid-state error
// when no live connection is attached.
func (s *Store[T]) handle(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil || !conn.IsOpen() {
		return nil, NewInvalidStateError(ctx, KindNotOpened, "mysql store is not opened")
	}
	return conn.DB().WithContext(ctx), nil
}

func (s *Store[T]) queryRowMaps(ctx context.Context, operation string, query string, args []interface{}) ([]map[string]interface{}, error) {
	start := time.Now()
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Raw(query, args...).Rows()
	if err != nil {
		s.observeOperation(operation, time.Since(start), err, 0)
		return nil, err
	}
	defer rows.Close()

	rowMaps, err := scanRowMaps(rows)
	s.observeOperation(operation, time.Since(start), err, int64(len(rowMaps)))
	if err != nil {
		return nil, err
	}
	return rowMaps, nil
}

func (s *Store[T]) queryCount(ctx context.Context, operation string, query string) (int64, error) {
	start := time.Now()
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	err = db.Raw(query).Scan(&count).Error
	s.observeOperation(operation, time.Since(start), err, 0)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store[T]) execute(ctx context.Context, operation string, query string, args []interface{}) (int64, error) {
	start := time.Now()
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	tx := db.Exec(query, args...)
	s.observeOperation(operation, time.Since(start), tx.Error, tx.RowsAffected)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

func (s *Store[T]) toPublicList(ctx context.Context, rowMaps []map[string]interface{}) ([]T, error) {
	items := make([]T, 0, len(rowMaps))
	for _, row := range rowMaps {
		item, err := s.converter.ToPublic(row)
		if err != nil {
			return nil, withCorrelation(ctx, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store[T]) logDebug(ctx context.Context, msg string, fields map[string]interface{}) {
	if s.logger == nil {
		return
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if id := observability.CorrelationID(ctx); id != "" {
		fields["correlation_id"] = id
	}
	s.logger.Debug(msg, nil, fields)
}

// scanRowMaps drains rows into column-keyed maps. Byte slices are copied
// into strings immediately; the driver reuses its buffers between calls to
// Next.
func scanRowMaps(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rowMaps := []map[string]interface{}{}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		for i := range values {
			values[i] = nil
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[column] = string(raw)
				continue
			}
			row[column] = values[i]
		}
		rowMaps = append(rowMaps, row)
	}
	return rowMaps, rows.Err()
}

// QuoteIdentifier wraps an identifier in backticks unless it already starts
// with one.
func QuoteIdentifier(value string) string {
	if value == "" || strings.HasPrefix(value, "`") {
		return value
	}
	return "`" + value + "`"
}

// SortedColumns returns the row's column names in sorted order. Generated
// statements iterate columns through this so that column lists, placeholder
// lists and bound values always line up.
func SortedColumns(row map[string]interface{}) []string {
	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// GenerateColumns renders a quoted, comma-separated column list.
func GenerateColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = QuoteIdentifier(column)
	}
	return strings.Join(quoted, ", ")
}

// GenerateParameters renders a comma-separated list of count placeholders.
func GenerateParameters(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat("?, ", count-1) + "?"
}

// GenerateSetClause renders a `column`=? assignment list.
func GenerateSetClause(columns []string) string {
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = QuoteIdentifier(column) + "=?"
	}
	return strings.Join(assignments, ", ")
}

// ColumnValues extracts the row's values in the given column order.
func ColumnValues(row map[string]interface{}, columns []string) []interface{} {
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		values[i] = row[column]
	}
	return values
}
