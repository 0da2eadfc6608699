package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/persist/v1/keys"
)

type numericDummy struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

func newIdentifiableDummyStore(t *testing.T) *IdentifiableStore[convDummy, string] {
	t.Helper()
	return NewIdentifiableStore[convDummy, string](Config{}, StoreConfig{Table: "dummies"})
}

func TestDefaultGeneratorForStringKeys(t *testing.T) {
	store := newIdentifiableDummyStore(t)
	require.NotNil(t, store.generator)

	id := store.generator.Next()
	assert.NotEmpty(t, id)
	assert.NotEqual(t, id, store.generator.Next())
}

func TestNoDefaultGeneratorForNumericKeys(t *testing.T) {
	store := NewIdentifiableStore[numericDummy, int64](Config{}, StoreConfig{Table: "counters"})
	assert.Nil(t, store.generator)
}

func TestEnsureIDAssignsGeneratedKey(t *testing.T) {
	store := newIdentifiableDummyStore(t).
		WithGenerator(keys.GeneratorFunc[string](func() string { return "generated-1" }))

	item := convDummy{Key: "key1", Content: "content 1"}
	prepared, err := store.ensureID(item)
	require.NoError(t, err)

	assert.Equal(t, "generated-1", prepared.ID)
	assert.Equal(t, "key1", prepared.Key)
	assert.Equal(t, "content 1", prepared.Content)

	// The caller's entity is cloned, never mutated.
	assert.Equal(t, "", item.ID)
}

func TestEnsureIDKeepsExistingKey(t *testing.T) {
	store := newIdentifiableDummyStore(t).
		WithGenerator(keys.GeneratorFunc[string](func() string { return "generated-1" }))

	prepared, err := store.ensureID(convDummy{ID: "fixed", Key: "key1"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", prepared.ID)
}

func TestEnsureIDWithoutGenerator(t *testing.T) {
	store := newIdentifiableDummyStore(t).WithGenerator(nil)

	prepared, err := store.ensureID(convDummy{Key: "key1"})
	require.NoError(t, err)
	assert.Equal(t, "", prepared.ID)
}

func TestIDOf(t *testing.T) {
	store := newIdentifiableDummyStore(t)

	id, hasID, err := store.idOf(convDummy{ID: "abc"})
	require.NoError(t, err)
	assert.True(t, hasID)
	assert.Equal(t, "abc", id)

	_, hasID, err = store.idOf(convDummy{Key: "key1"})
	require.NoError(t, err)
	assert.False(t, hasID)
}

func TestIDOfNumericKeys(t *testing.T) {
	store := NewIdentifiableStore[numericDummy, int64](Config{}, StoreConfig{Table: "counters"})

	id, hasID, err := store.idOf(numericDummy{ID: 41, Label: "answer minus one"})
	require.NoError(t, err)
	assert.True(t, hasID)
	assert.Equal(t, int64(41), id)

	_, hasID, err = store.idOf(numericDummy{Label: "unsaved"})
	require.NoError(t, err)
	assert.False(t, hasID)
}

func TestUpdateWithoutIDReturnsNothing(t *testing.T) {
	store := newIdentifiableDummyStore(t)

	result, err := store.Update(context.Background(), convDummy{Key: "key1"})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestUpdatePartiallyGuards(t *testing.T) {
	store := newIdentifiableDummyStore(t)

	result, err := store.UpdatePartially(context.Background(), "", map[string]interface{}{"content": "x"})
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = store.UpdatePartially(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = store.UpdatePartially(context.Background(), "1", map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetListByIDsEmpty(t *testing.T) {
	store := newIdentifiableDummyStore(t)

	items, err := store.GetListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteByIDsEmpty(t *testing.T) {
	store := newIdentifiableDummyStore(t)
	assert.NoError(t, store.DeleteByIDs(context.Background(), nil))
}

func TestIdentifiableChainableSetters(t *testing.T) {
	store := newIdentifiableDummyStore(t)
	conn := NewConnection(Config{})

	assert.Same(t, store, store.WithConnection(conn))
	assert.Same(t, store, store.WithLogger(nil))
	assert.Same(t, store, store.WithObserver(nil))
	assert.Same(t, store, store.WithConverter(MapConverter[convDummy]{}))
	assert.Same(t, store, store.WithSchemaDefinition(nil))
	assert.Same(t, store, store.WithGenerator(nil))
	assert.Same(t, conn, store.Connection())
}
