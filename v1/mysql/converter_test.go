package mysql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type convDummy struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Content string `json:"content"`
}

type convCounter struct {
	ID    string  `json:"id"`
	Count int64   `json:"count"`
	Ratio float64 `json:"ratio"`
}

func TestMapConverterRoundTrip(t *testing.T) {
	item := convDummy{ID: "1", Key: "key1", Content: "content 1"}

	row, err := MapConverter[convDummy]{}.FromPublic(item)
	require.NoError(t, err)
	assert.Equal(t, "1", row["id"])
	assert.Equal(t, "key1", row["key"])
	assert.Equal(t, "content 1", row["content"])

	back, err := MapConverter[convDummy]{}.ToPublic(row)
	require.NoError(t, err)
	assert.Equal(t, item, back)
}

func TestMapConverterPreservesLargeIntegers(t *testing.T) {
	item := convCounter{ID: "1", Count: 1 << 60, Ratio: 0.5}

	row, err := MapConverter[convCounter]{}.FromPublic(item)
	require.NoError(t, err)
	require.IsType(t, json.Number(""), row["count"])

	back, err := MapConverter[convCounter]{}.ToPublic(row)
	require.NoError(t, err)
	assert.Equal(t, item, back)
}

func TestMapConverterRejectsNonObjectEntity(t *testing.T) {
	_, err := MapConverter[int]{}.FromPublic(42)
	assert.True(t, IsSchemaError(err))
}

func TestMapConverterStringifiesBinary(t *testing.T) {
	row := map[string]interface{}{
		"id":      "1",
		"key":     []byte("key1"),
		"content": []byte("content 1"),
	}

	item, err := MapConverter[convDummy]{}.ToPublic(row)
	require.NoError(t, err)
	assert.Equal(t, convDummy{ID: "1", Key: "key1", Content: "content 1"}, item)
}

func TestMapConverterDriverIntegers(t *testing.T) {
	// The driver reports integer columns as int64.
	row := map[string]interface{}{"id": "1", "count": int64(7), "ratio": 0.25}

	item, err := MapConverter[convCounter]{}.ToPublic(row)
	require.NoError(t, err)
	assert.Equal(t, convCounter{ID: "1", Count: 7, Ratio: 0.25}, item)
}

func TestDocumentConverterFromPublic(t *testing.T) {
	item := convDummy{ID: "1", Key: "key1", Content: "content 1"}

	row, err := DocumentConverter[convDummy]{}.FromPublic(item)
	require.NoError(t, err)
	assert.Equal(t, "1", row["id"])

	encoded, ok := row["data"].(string)
	require.True(t, ok)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(encoded), &doc))
	assert.Equal(t, "1", doc["id"])
	assert.Equal(t, "key1", doc["key"])
	assert.Equal(t, "content 1", doc["content"])
}

func TestDocumentConverterRoundTrip(t *testing.T) {
	item := convDummy{ID: "1", Key: "key1", Content: "content 1"}

	row, err := DocumentConverter[convDummy]{}.FromPublic(item)
	require.NoError(t, err)

	back, err := DocumentConverter[convDummy]{}.ToPublic(row)
	require.NoError(t, err)
	assert.Equal(t, item, back)
}

func TestDocumentConverterAcceptsBinaryData(t *testing.T) {
	row := map[string]interface{}{
		"id":   "1",
		"data": []byte(`{"id":"1","key":"key1","content":"content 1"}`),
	}

	item, err := DocumentConverter[convDummy]{}.ToPublic(row)
	require.NoError(t, err)
	assert.Equal(t, convDummy{ID: "1", Key: "key1", Content: "content 1"}, item)
}

func TestDocumentConverterRejectsMissingData(t *testing.T) {
	_, err := DocumentConverter[convDummy]{}.ToPublic(map[string]interface{}{"id": "1"})
	assert.True(t, IsSchemaError(err))
}

func TestDocumentConverterRejectsMalformedData(t *testing.T) {
	_, err := DocumentConverter[convDummy]{}.ToPublic(map[string]interface{}{
		"id":   "1",
		"data": "{not json",
	})
	assert.True(t, IsSchemaError(err))
}

func TestRemapValue(t *testing.T) {
	var id string
	require.NoError(t, remapValue("abc", &id))
	assert.Equal(t, "abc", id)

	var numeric int64
	require.NoError(t, remapValue(json.Number("123"), &numeric))
	assert.Equal(t, int64(123), numeric)

	var mismatch int64
	assert.Error(t, remapValue("abc", &mismatch))
}
