// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// FuzzGenerate fuzzes the index generator over seeds, sizes and ranges,
// checking the well-formedness invariants: every index in [0, high), no
// duplicates without replacement, and bitwise determinism on replay.
func FuzzGenerate(f *testing.F) {
	f.Add(uint64(42), 10, uint32(10), false)
	f.Add(uint64(7), 1000, uint32(4), true)
	f.Add(uint64(1), 257, uint32(257), false)
	f.Fuzz(func(t *testing.T, seed uint64, size int, high uint32, replacement bool) {
		if seed == 0 {
			t.Skip() // zero is the minting sentinel; determinism needs a fixed seed
		}
		if size < 1 || size > 1<<12 || high < 1 || high > 1<<16 {
			t.Skip() // keep ranges sane; invalid shapes are covered by the error tests
		}
		if !replacement && high < uint32(size) {
			t.Skip()
		}

		is := assert.New(t)

		out := make([]uint32, size)
		s := seed
		_, err := Generate(&s, out, 0, high, replacement)
		is.NoError(err)
		is.Equal(seed, s)

		seen := make(map[uint32]bool, size)
		for _, v := range out {
			is.Less(v, high)
			if !replacement {
				is.False(seen[v], "duplicate index %d without replacement", v)
				seen[v] = true
			}
		}

		replay := make([]uint32, size)
		s = seed
		_, err = Generate(&s, replay, 0, high, replacement)
		is.NoError(err)
		is.Equal(out, replay)
	})
}

// FuzzBitBuffer fuzzes linear bit writes, checking that a write changes
// exactly the addressed bit.
func FuzzBitBuffer(f *testing.F) {
	f.Add(uint16(0), byte(1))
	f.Add(uint16(4095), byte(0))
	f.Fuzz(func(t *testing.T, pos uint16, v byte) {
		const bits = 4096
		if pos >= bits {
			t.Skip()
		}

		is := assert.New(t)

		b := make(BitBuffer, BytesForBits(bits))
		b.SetBit(int(pos), v&1)
		for i := 0; i < bits; i++ {
			if i == int(pos) {
				is.Equal(v&1, b.Bit(i))
			} else {
				is.Equal(byte(0), b.Bit(i))
			}
		}
	})
}
