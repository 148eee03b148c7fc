// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/sha3"
)

// PRF is the keyed pseudorandom function used to compress the pre-key into
// the final key and to derive the robustness token. It is the only
// pluggable primitive in the construction.
type PRF interface {
	// MAC computes the keyed tag over msg, truncated or extended to n
	// bytes. Extension beyond the native output chains the tag back
	// through the PRF under the same key, so the first native-length
	// prefix always equals the plain tag.
	MAC(key, msg []byte, n int) []byte
}

// hmacPRF implements PRF over HMAC with a configurable hash.
type hmacPRF struct {
	h func() hash.Hash
}

// HMACSHA256 returns the reference PRF, HMAC-SHA256 with 256-bit native
// output.
func HMACSHA256() PRF {
	return hmacPRF{h: sha256.New}
}

// HMACSHA3256 returns an HMAC-SHA3-256 PRF. Interchangeable with the
// reference primitive as long as Gen and Rep agree on the variant.
func HMACSHA3256() PRF {
	return hmacPRF{h: sha3.New256}
}

// MAC implements PRF.
func (p hmacPRF) MAC(key, msg []byte, n int) []byte {
	out := make([]byte, n)
	m := hmac.New(p.h, key)
	m.Write(msg)
	sum := m.Sum(nil)
	filled := copy(out, sum)
	for filled < n {
		m = hmac.New(p.h, key)
		m.Write(sum)
		sum = m.Sum(nil)
		filled += copy(out[filled:], sum)
	}
	return out
}
