// Package msgpack provides MessagePack encoding/decoding for state snapshots.
package msgpack

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Decode deserializes MessagePack data into a Go value.
// The v parameter should be a pointer to the target structure.
//
// Example:
//
//	type Envelope struct {
//	    Version int      `msgpack:"v"`
//	    Columns []string `msgpack:"columns,omitempty"`
//	}
//
//	var env Envelope
//	err := msgpack.Decode(data, &env)
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}

	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	return nil
}

// Encode serializes a Go value into MessagePack format.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	return data, nil
}
