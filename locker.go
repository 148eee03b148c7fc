// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

// Lock binds each pool bit into the vault. For pool bit i and lock j, the
// vault cell V[i,j] is P[i] XOR-ed with xoration source bits selected by
// srcIdx, which is consumed linearly; the total consumed is
// len(pool bits) * locks * xoration, matching the length of a source index
// set produced without replacement. Because no source bit appears twice
// across the whole stream, no source bit is shared between lock cells.
//
// The vault is stored row-major (i major, j minor) and must be sized for
// poolBits*locks bits. Buffers are caller-owned and caller-sized; Lock
// performs no allocation and holds no state.
func Lock(source BitBuffer, srcIdx []uint32, pool BitBuffer, poolBits, locks, xoration int, vault BitBuffer) {
	ijk := 0
	for i := 0; i < poolBits; i++ {
		b := pool.Bit(i)
		for j := 0; j < locks; j++ {
			t := b
			for k := 0; k < xoration; k++ {
				t ^= source.Bit(int(srcIdx[ijk]))
				ijk++
			}
			vault.SetBit(i*locks+j, t)
		}
	}
}

// Unlock recovers pre-key bits from the vault by majority vote. keyIdx
// selects which pool bits become pre-key bits; len(keyIdx) pre-key bits are
// written into keyPre. For pre-key bit i, every lock cell of pool bit
// keyIdx[i] is re-XORed with its xoration source bits from the current
// reading; srcIdx is interpreted as a 3D array with strides
// (locks*xoration, xoration).
//
// A cell decodes to the pool bit when an even number of its referenced
// source bits flipped since enrollment, and to its complement when an odd
// number flipped. The pre-key bit is 1 only when the count of
// 1-cells strictly exceeds locks/2; with an even lock count a tie decodes
// to 0. That tie-break is part of the construction and must not change.
func Unlock(source BitBuffer, srcIdx []uint32, vault BitBuffer, keyPre BitBuffer, keyIdx []uint32, locks, xoration int) {
	mid := locks / 2
	di := locks * xoration

	for i := range keyIdx {
		i0 := int(keyIdx[i])
		c := 0
		for j := 0; j < locks; j++ {
			b := vault.Bit(i0*locks + j)
			for k := 0; k < xoration; k++ {
				b ^= source.Bit(int(srcIdx[i0*di+j*xoration+k]))
			}
			if b != 0 {
				c++
			}
		}
		if c > mid {
			keyPre.SetBit(i, 1)
		} else {
			keyPre.SetBit(i, 0)
		}
	}
}
