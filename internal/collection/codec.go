package collection

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

var nullPayload = []byte("null")

// Encode serialises items as one JSON array, preserving order.
func Encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("collection: encode: %w", err)
	}
	return payload, nil
}

// Decode parses a payload written by Encode. The second return value is false
// when the payload is empty or JSON null, meaning the caller should fall back
// to its seed.
func Decode[T any](payload []byte) ([]T, bool, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullPayload) {
		return nil, false, nil
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false, fmt.Errorf("collection: decode: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

// ETag fingerprints a payload.
func ETag(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
