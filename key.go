// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import (
	"crypto/subtle"
	"encoding/hex"
)

// Key represents a derived key as a caller-owned byte buffer.
type Key []byte

// EmptyKey represents the zero-length Key.
var EmptyKey = Key{}

// NewKey returns a zero-filled Key sized for the extractor's configuration.
func NewKey(c Config) Key {
	return make(Key, c.KeyBytes())
}

// String returns the hexadecimal representation of the Key.
// It implements the fmt.Stringer interface.
func (k Key) String() string {
	return hex.EncodeToString(k)
}

// Equal reports whether k and other hold the same bytes. For operands of
// equal length the comparison is constant-time; operands of different
// lengths compare unequal without their contents being inspected.
func (k Key) Equal(other Key) bool {
	return subtle.ConstantTimeCompare(k, other) == 1
}

// IsZero reports whether the Key is non-empty and every byte of it is
// zero, the state Rep leaves the buffer in after a failed reproduction.
// An empty Key is not zero.
func (k Key) IsZero() bool {
	var acc byte
	for _, b := range k {
		acc |= b
	}
	return len(k) > 0 && acc == 0
}

// MarshalText implements the encoding.TextMarshaler interface by encoding
// the Key as lowercase hexadecimal.
func (k Key) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(k)))
	hex.Encode(out, k)
	return out, nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface by
// decoding a hexadecimal representation into the Key.
func (k *Key) UnmarshalText(text []byte) error {
	out := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(out, text); err != nil {
		return err
	}
	*k = out
	return nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface by
// returning a copy of the raw key bytes.
func (k Key) MarshalBinary() ([]byte, error) {
	out := make([]byte, len(k))
	copy(out, k)
	return out, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface by
// copying the raw bytes into the Key.
func (k *Key) UnmarshalBinary(data []byte) error {
	out := make([]byte, len(data))
	copy(out, data)
	*k = out
	return nil
}
