package mysql

import (
	"bytes"
	"encoding/json"
)

// Converter translates between the public shape of an entity and the
// column-keyed row map a store reads and writes. Stores default to
// MapConverter; JSON document stores install DocumentConverter.
type Converter[T any] interface {
	// ToPublic builds an entity from a row map. Numeric row values may
	// arrive as int64, float64 or json.Number depending on the driver.
	ToPublic(row map[string]interface{}) (T, error)

	// FromPublic flattens an entity into a row map keyed by column name.
	FromPublic(item T) (map[string]interface{}, error)
}

// MapConverter is the identity storage mapping: every exposed field of the
// entity becomes a column of the same name. It doubles as the canonical
// public-shape mapping used for id extraction and entity cloning, so
// entities must round-trip through their JSON encoding. Entities that do
// not encode to a JSON object yield a schema error.
type MapConverter[T any] struct{}

// FromPublic implements Converter.
func (MapConverter[T]) FromPublic(item T) (map[string]interface{}, error) {
	encoded, err := json.Marshal(item)
	if err != nil {
		return nil, newSchemaError("entity does not support map conversion", err)
	}
	row, err := decodeObject(encoded)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ToPublic implements Converter.
func (MapConverter[T]) ToPublic(row map[string]interface{}) (T, error) {
	var item T
	encoded, err := json.Marshal(stringifyBinary(row))
	if err != nil {
		return item, newSchemaError("row does not support map conversion", err)
	}
	if err := json.Unmarshal(encoded, &item); err != nil {
		return item, newSchemaError("row does not match entity shape", err)
	}
	return item, nil
}

// DocumentConverter is the storage mapping of JSON document stores: the
// full public shape of the entity, id included, is encoded into a single
// data column, with the id lifted out into its own column for keyed access.
type DocumentConverter[T any] struct{}

// FromPublic implements Converter.
func (DocumentConverter[T]) FromPublic(item T) (map[string]interface{}, error) {
	doc, err := MapConverter[T]{}.FromPublic(item)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, newSchemaError("entity does not support document conversion", err)
	}
	return map[string]interface{}{
		"id":   doc["id"],
		"data": string(encoded),
	}, nil
}

// ToPublic implements Converter.
func (DocumentConverter[T]) ToPublic(row map[string]interface{}) (T, error) {
	var item T

	var encoded []byte
	switch data := row["data"].(type) {
	case string:
		encoded = []byte(data)
	case []byte:
		encoded = data
	default:
		return item, newSchemaError("document row has no data column", nil)
	}

	doc, err := decodeObject(encoded)
	if err != nil {
		return item, err
	}
	return MapConverter[T]{}.ToPublic(doc)
}

// decodeObject decodes a JSON object into a map, preserving numeric
// precision with json.Number.
func decodeObject(encoded []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var object map[string]interface{}
	if err := decoder.Decode(&object); err != nil {
		return nil, newSchemaError("value does not decode to an object", err)
	}
	return object, nil
}

// stringifyBinary returns a copy of the row with []byte values converted to
// strings. The driver reports text and JSON columns as byte slices; left
// alone they would encode to base64 instead of text.
func stringifyBinary(row map[string]interface{}) map[string]interface{} {
	converted := make(map[string]interface{}, len(row))
	for column, value := range row {
		if raw, ok := value.([]byte); ok {
			converted[column] = string(raw)
			continue
		}
		converted[column] = value
	}
	return converted
}

// remapValue re-encodes a dynamically typed value into dest, typically a
// typed id. Numeric values survive the trip via json.Number.
func remapValue(value interface{}, dest interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return newSchemaError("value does not support conversion", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return newSchemaError("value does not match target type", err)
	}
	return nil
}
