// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBitBuffer_BitLSBFirst verifies the addressing contract: bit i lives
// in byte i>>3 at position i&7, LSB-first within each byte.
func TestBitBuffer_BitLSBFirst(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := BitBuffer{0x01, 0x80}

	is.Equal(byte(1), b.Bit(0), "bit 0 is the LSB of byte 0")
	is.Equal(byte(0), b.Bit(7), "bit 7 is the MSB of byte 0")
	is.Equal(byte(0), b.Bit(8), "bit 8 is the LSB of byte 1")
	is.Equal(byte(1), b.Bit(15), "bit 15 is the MSB of byte 1")
}

// TestBitBuffer_SetBitPreservesOthers verifies that SetBit writes exactly
// one bit and leaves every other bit untouched.
func TestBitBuffer_SetBitPreservesOthers(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := make(BitBuffer, 2)

	b.SetBit(3, 1)
	is.Equal(BitBuffer{0x08, 0x00}, b)

	b.SetBit(12, 1)
	is.Equal(BitBuffer{0x08, 0x10}, b)

	b.SetBit(3, 0)
	is.Equal(BitBuffer{0x00, 0x10}, b)

	// Clearing an already-clear bit is a no-op.
	b.SetBit(0, 0)
	is.Equal(BitBuffer{0x00, 0x10}, b)
}

// TestBitBuffer_ToggleBit verifies that ToggleBit flips a single bit in
// place.
func TestBitBuffer_ToggleBit(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := make(BitBuffer, 1)

	b.ToggleBit(5)
	is.Equal(byte(1), b.Bit(5))

	b.ToggleBit(5)
	is.Equal(byte(0), b.Bit(5))
}

// TestBitBuffer_LinearGridAddressing verifies that a logical 2D grid laid
// out with linear index i*jj+j round-trips through Bit/SetBit.
func TestBitBuffer_LinearGridAddressing(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	const rows, cols = 5, 7
	b := make(BitBuffer, BytesForBits(rows*cols))

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.SetBit(i*cols+j, byte((i+j)&1))
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			is.Equal(byte((i+j)&1), b.Bit(i*cols+j), "cell (%d,%d)", i, j)
		}
	}
}

// TestBytesForBits verifies the ceiling division used to size all bit
// buffers, including the unaligned vault case.
func TestBytesForBits(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Equal(0, BytesForBits(0))
	is.Equal(1, BytesForBits(1))
	is.Equal(1, BytesForBits(8))
	is.Equal(2, BytesForBits(9))
	is.Equal(10, BytesForBits(80))
	is.Equal(8004, BytesForBits(64032))
}

// TestBitsForBytes verifies the inverse sizing helper.
func TestBitsForBytes(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Equal(0, BitsForBytes(0))
	is.Equal(64032, BitsForBytes(8004))

	b := make(BitBuffer, 4)
	is.Equal(32, b.BitLen())
}
