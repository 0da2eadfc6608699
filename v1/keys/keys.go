// Package keys provides unique key generation for identifiable records.
//
// Stores that create records without a caller-supplied id delegate key
// generation to a Generator. The default generator yields UUID version 7
// values: collision-resistant, time-ordered, and therefore roughly sortable
// by creation time when compared as strings.
//
// Test suites can substitute a deterministic generator via GeneratorFunc:
//
//	next := 0
//	gen := keys.GeneratorFunc[string](func() string {
//		next++
//		return fmt.Sprintf("key-%03d", next)
//	})
package keys

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Generator produces unique keys of type K for newly created records.
//
// Implementations must be safe for concurrent use: a single generator is
// typically shared by every store instance in a process.
type Generator[K any] interface {
	// Next returns a new key. Keys must never repeat within the lifetime
	// of the backing table.
	Next() K
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc[K any] func() K

// Next calls the wrapped function.
func (f GeneratorFunc[K]) Next() K {
	return f()
}

// UUIDv7Generator produces UUID version 7 string keys.
//
// Version 7 embeds a millisecond timestamp in the most significant bits, so
// keys generated later compare lexicographically greater than earlier ones.
// The zero value is ready to use.
type UUIDv7Generator struct{}

// Next returns a new UUIDv7 as 32 hexadecimal characters without dashes.
// The compact form fits the stores' default VARCHAR(32) id columns. If the
// system entropy source fails, it falls back to a random version 4 UUID
// rather than returning an empty key.
func (UUIDv7Generator) Next() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return hex.EncodeToString(id[:])
}
