package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/persist/v1/data"
)

func newDummyStore(t *testing.T) *Store[convDummy] {
	t.Helper()
	return NewStore[convDummy](Config{}, StoreConfig{Table: "dummies"})
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`key`", QuoteIdentifier("key"))
	assert.Equal(t, "`already`", QuoteIdentifier("`already`"))
	assert.Equal(t, "", QuoteIdentifier(""))
}

func TestQuotedTableName(t *testing.T) {
	assert.Equal(t, "`dummies`", newDummyStore(t).QuotedTableName())

	qualified := NewStore[convDummy](Config{}, StoreConfig{Table: "dummies", Schema: "app"})
	assert.Equal(t, "`app`.`dummies`", qualified.QuotedTableName())

	unnamed := NewStore[convDummy](Config{}, StoreConfig{})
	assert.Equal(t, "", unnamed.QuotedTableName())
}

func TestSQLFragmentGenerators(t *testing.T) {
	row := map[string]interface{}{"key": "key1", "id": "1", "content": "content 1"}
	columns := SortedColumns(row)

	assert.Equal(t, []string{"content", "id", "key"}, columns)
	assert.Equal(t, "`content`, `id`, `key`", GenerateColumns(columns))
	assert.Equal(t, "?, ?, ?", GenerateParameters(3))
	assert.Equal(t, "?", GenerateParameters(1))
	assert.Equal(t, "", GenerateParameters(0))
	assert.Equal(t, "`content`=?, `id`=?, `key`=?", GenerateSetClause(columns))
	assert.Equal(t, []interface{}{"content 1", "1", "key1"}, ColumnValues(row, columns))
}

func TestBuildPageQueryDefaults(t *testing.T) {
	store := newDummyStore(t)

	query := store.buildPageQuery("", nil, "", "")
	assert.Equal(t, "SELECT * FROM `dummies` LIMIT 100", query)
}

func TestBuildPageQueryFull(t *testing.T) {
	store := newDummyStore(t)

	paging := data.NewPagingParams(10, 25, false)
	query := store.buildPageQuery("`key`='key1'", paging, "`key` DESC", "`id`, `key`")
	assert.Equal(t,
		"SELECT `id`, `key` FROM `dummies` WHERE `key`='key1' ORDER BY `key` DESC LIMIT 25 OFFSET 10",
		query)
}

func TestBuildPageQueryClampsTake(t *testing.T) {
	store := newDummyStore(t)

	query := store.buildPageQuery("", data.NewPagingParams(0, 1000, false), "", "")
	assert.Equal(t, "SELECT * FROM `dummies` LIMIT 100 OFFSET 0", query)

	smallStore := NewStore[convDummy](Config{}, StoreConfig{Table: "dummies", MaxPageSize: 10})
	query = smallStore.buildPageQuery("", data.NewPagingParams(0, 1000, false), "", "")
	assert.Equal(t, "SELECT * FROM `dummies` LIMIT 10 OFFSET 0", query)
}

func TestBuildPageQueryNegativeSkipOmitsOffset(t *testing.T) {
	store := newDummyStore(t)

	query := store.buildPageQuery("", data.NewPagingParams(-5, 20, false), "", "")
	assert.Equal(t, "SELECT * FROM `dummies` LIMIT 20", query)
}

func TestBuildListQuery(t *testing.T) {
	store := newDummyStore(t)

	assert.Equal(t, "SELECT * FROM `dummies`", store.buildListQuery("", "", ""))
	assert.Equal(t,
		"SELECT `id` FROM `dummies` WHERE `key`='key1' ORDER BY `id`",
		store.buildListQuery("`key`='key1'", "`id`", "`id`"))
}

func TestBuildCountQuery(t *testing.T) {
	store := newDummyStore(t)

	assert.Equal(t, "SELECT COUNT(*) AS count FROM `dummies`", store.buildCountQuery(""))
	assert.Equal(t,
		"SELECT COUNT(*) AS count FROM `dummies` WHERE `key`='key1'",
		store.buildCountQuery("`key`='key1'"))
}

func TestBuildRandomQuery(t *testing.T) {
	store := newDummyStore(t)

	assert.Equal(t, "SELECT * FROM `dummies` LIMIT 1 OFFSET 7", store.buildRandomQuery("", 7))
	assert.Equal(t,
		"SELECT * FROM `dummies` WHERE `key`='key1' LIMIT 1 OFFSET 0",
		store.buildRandomQuery("`key`='key1'", 0))
}

func TestEnsureSchemaAccumulates(t *testing.T) {
	store := newDummyStore(t)

	store.EnsureSchema("CREATE TABLE `dummies` (`id` VARCHAR(32) PRIMARY KEY)")
	store.EnsureIndex("ix_dummies_key", []string{"key"}, true)
	store.EnsureIndex("ix_dummies_key_content", []string{"key", "content"}, false)

	require.Len(t, store.schemaStatements, 3)
	assert.Equal(t,
		"CREATE UNIQUE INDEX `ix_dummies_key` ON `dummies` (`key`)",
		store.schemaStatements[1])
	assert.Equal(t,
		"CREATE INDEX `ix_dummies_key_content` ON `dummies` (`key`, `content`)",
		store.schemaStatements[2])

	store.ClearSchema()
	assert.Empty(t, store.schemaStatements)
}

func TestStoreCloseWhenNeverOpened(t *testing.T) {
	store := newDummyStore(t)
	assert.NoError(t, store.Close(context.Background()))
	assert.False(t, store.IsOpen())
}

func TestStoreCloseWithoutConnectionIsInvalidState(t *testing.T) {
	store := newDummyStore(t)
	store.opened = true

	err := store.Close(context.Background())
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))
	assert.Equal(t, KindNoConnection, ErrorKind(err))
}

func TestStoreClearWithoutTable(t *testing.T) {
	store := NewStore[convDummy](Config{}, StoreConfig{})

	err := store.Clear(context.Background())
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, KindNoTable, ErrorKind(err))
}

func TestStoreOperationsRequireOpenConnection(t *testing.T) {
	store := newDummyStore(t)

	_, err := store.GetPageByFilter(context.Background(), "", nil, "", "")
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))
	assert.Equal(t, KindNotOpened, ErrorKind(err))

	_, err = store.Create(context.Background(), convDummy{ID: "1"})
	assert.True(t, IsInvalidStateError(err))

	err = store.DeleteByFilter(context.Background(), "")
	assert.True(t, IsInvalidStateError(err))
}

func TestStoreWithConnectionIsShared(t *testing.T) {
	conn := NewConnection(Config{})
	store := newDummyStore(t).WithConnection(conn)

	assert.Same(t, conn, store.Connection())
	assert.Equal(t, SharedConnection, store.ownership)
}

func TestStoreChainableSetters(t *testing.T) {
	store := newDummyStore(t)

	assert.Same(t, store, store.WithLogger(nil))
	assert.Same(t, store, store.WithObserver(nil))
	assert.Same(t, store, store.WithConverter(MapConverter[convDummy]{}))
	assert.Same(t, store, store.WithSchemaDefinition(nil))
}
