// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import (
	"encoding/binary"
	"io"
	"time"

	prng "github.com/sixafter/prng-chacha"
)

// Linear congruential constants (Knuth, MMIX). The generator keeps 64 bits
// of state and emits the top 32 bits of each step.
const (
	lcgMultiplier uint64 = 6364136223846793005
	lcgIncrement  uint64 = 1442695040888963407
)

// lcg is the deterministic PRNG behind index generation. Given the same
// seed it always emits the same sequence, which is what lets Gen and Rep
// rematerialize identical index sets from a stored seed.
type lcg uint64

// next advances the state and returns the next raw 32-bit value.
func (s *lcg) next() uint32 {
	*s = lcg(uint64(*s)*lcgMultiplier + lcgIncrement)
	return uint32(uint64(*s) >> 32)
}

// Generate fills out with uniform indices drawn from a deterministic PRNG
// seeded by *seed, and returns the elapsed generation time. The elapsed
// duration is diagnostic only.
//
// Each raw PRNG value r maps to (r + low) mod high. Note that low is added
// before the modulus, so the effective range is [0, high), not [low, high);
// this is the parameter contract, not an accident of implementation.
// Callers typically pass low = 0.
//
// With replacement, every sampled index is emitted as is. Without
// replacement, a bitset of seen indices over [0, high) is kept; on a
// collision the index advances linearly ((idx+1) mod high) until an unseen
// slot is found. The distribution is non-uniform at collisions but fully
// deterministic given the seed.
//
// Seed handling: a non-nil, non-zero *seed is used as supplied. Otherwise a
// fresh non-zero seed is minted from the package random source and, when
// seed is non-nil, written back so the caller can reproduce the sequence.
//
// Errors are reported synchronously and out is never partially written:
// ErrNilOutput for a nil out slice, ErrInvalidSize for an empty one,
// ErrInvalidRange when high <= low, and ErrRangeTooSmall when sampling
// without replacement from a range smaller than len(out).
func Generate(seed *uint64, out []uint32, low, high uint32, replacement bool) (time.Duration, error) {
	return GenerateWithReader(prng.Reader, seed, out, low, high, replacement)
}

// GenerateWithReader is Generate with an explicit random source for seed
// minting. The index stream itself is always produced by the deterministic
// PRNG; r is only consulted when a fresh seed has to be minted.
func GenerateWithReader(r io.Reader, seed *uint64, out []uint32, low, high uint32, replacement bool) (time.Duration, error) {
	if out == nil {
		return 0, ErrNilOutput
	}
	if len(out) < 1 {
		return 0, ErrInvalidSize
	}
	if high <= low {
		return 0, ErrInvalidRange
	}
	if !replacement && high-low < uint32(len(out)) {
		return 0, ErrRangeTooSmall
	}

	var seen BitBuffer
	if !replacement {
		seen = make(BitBuffer, BytesForBits(int(high)))
	}

	start := time.Now()

	s, err := resolveSeed(r, seed)
	if err != nil {
		return 0, err
	}
	state := lcg(s)

	for i := range out {
		idx := uint32((uint64(state.next()) + uint64(low)) % uint64(high))
		if !replacement {
			for seen.Bit(int(idx)) != 0 {
				idx = (idx + 1) % high
			}
			seen.SetBit(int(idx), 1)
		}
		out[i] = idx
	}

	return time.Since(start), nil
}

// resolveSeed returns the seed to use: the caller's value when non-nil and
// non-zero, otherwise a fresh non-zero value minted from r. A minted value
// is written back through seed when possible so the caller can persist it.
func resolveSeed(r io.Reader, seed *uint64) (uint64, error) {
	if seed != nil && *seed != 0 {
		return *seed, nil
	}
	s, err := mintSeed(r)
	if err != nil {
		return 0, err
	}
	if seed != nil {
		*seed = s
	}
	return s, nil
}

// mintSeed draws a fresh 64-bit seed from r. Zero is the "please generate"
// sentinel throughout the package, so a zero draw is retried.
func mintSeed(r io.Reader) (uint64, error) {
	if r == nil {
		return 0, ErrNilRandReader
	}
	var buf [8]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		if s := binary.LittleEndian.Uint64(buf[:]); s != 0 {
			return s, nil
		}
	}
}
