// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import (
	"bytes"
	"testing"

	ctrdrbg "github.com/sixafter/aes-ctr-drbg"
	prng "github.com/sixafter/prng-chacha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRandomFill verifies that RandomFill fills the whole buffer and that
// distinct fills differ.
func TestRandomFill(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	a := make([]byte, 256)
	b := make([]byte, 256)

	is.NoError(RandomFill(prng.Reader, a))
	is.NoError(RandomFill(prng.Reader, b))

	is.NotEqual(bytes.Repeat([]byte{0}, 256), a, "fill must not leave the buffer zeroed")
	is.NotEqual(a, b, "independent fills must differ")
}

// TestRandomFill_CTRDRBG verifies the fill against the alternate DRBG
// source.
func TestRandomFill_CTRDRBG(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	reader, err := ctrdrbg.NewReader(ctrdrbg.WithPersonalization([]byte("xlock-noise-test")))
	require.NoError(t, err)

	b := make([]byte, 64)
	is.NoError(RandomFill(reader, b))
	is.NotEqual(make([]byte, 64), b)
}

// TestRandomFill_NilReader verifies the nil-reader sentinel.
func TestRandomFill_NilReader(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.ErrorIs(RandomFill(nil, make([]byte, 8)), ErrNilRandReader)
}

// TestFlipBits_ZeroProbability verifies that e_abs = 0 copies the buffer
// unchanged.
func TestFlipBits_ZeroProbability(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := make([]byte, 128)
	require.NoError(t, RandomFill(prng.Reader, b))

	out := make([]byte, 128)
	is.NoError(FlipBits(prng.Reader, out, b, 0))
	is.Equal(b, out)
}

// TestFlipBits_Rate verifies the realized flip rate lands near e_abs. With
// 64032 bits at 0.15 the binomial concentration makes the 0.13..0.17
// window essentially certain.
func TestFlipBits_Rate(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := make([]byte, DefaultSourceBytes)
	require.NoError(t, RandomFill(prng.Reader, b))

	out := make([]byte, DefaultSourceBytes)
	require.NoError(t, FlipBits(prng.Reader, out, b, 0.15))

	flipped := 0
	for i := range b {
		d := b[i] ^ out[i]
		for j := 0; j < 8; j++ {
			flipped += int((d >> j) & 1)
		}
	}
	rate := float64(flipped) / float64(BitsForBytes(len(b)))
	is.InDelta(0.15, rate, 0.02, "realized flip rate should track e_abs")
}

// TestFlipBits_Aliasing verifies in-place perturbation: out and b may be
// the same buffer.
func TestFlipBits_Aliasing(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := make([]byte, 64)
	require.NoError(t, RandomFill(prng.Reader, b))
	orig := append([]byte(nil), b...)

	is.NoError(FlipBits(prng.Reader, b, b, 0.5))
	is.NotEqual(orig, b, "at e_abs=0.5 an unchanged 512-bit buffer is implausible")
}

// TestFlipBits_Errors verifies the length and reader preconditions.
func TestFlipBits_Errors(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.ErrorIs(FlipBits(prng.Reader, make([]byte, 3), make([]byte, 4), 0.1), ErrBufferSize)
	is.ErrorIs(FlipBits(nil, make([]byte, 4), make([]byte, 4), 0.1), ErrNilRandReader)
}
