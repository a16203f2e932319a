package cache

import (
	"bytes"
	"encoding/gob"
)

// Encode serializes a cache value with gob. Callers decide what they store:
// the reader layer stores (body, metadata) pairs, the generator layer
// stores content snapshots.
func Encode[T any](value T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a cache value. A decode failure is a cache miss for
// callers; the on-disk format is not a stability surface.
func Decode[T any](data []byte) (T, bool) {
	var value T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&value); err != nil {
		var zero T
		return zero, false
	}
	return value, true
}
