// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package xlock

import "io"

// RandomFill fills b with fresh random bytes from r. Enroll uses it for
// the source and pool; it is exported because test rigs that stand in for
// a physical source need the same fill.
func RandomFill(r io.Reader, b []byte) error {
	if r == nil {
		return ErrNilRandReader
	}
	_, err := io.ReadFull(r, b)
	return err
}

// FlipBits writes into out a copy of b in which each bit is flipped
// independently with probability eAbs, simulating a noisy reread of a
// physical source. The flip decision draws one random byte per bit and
// flips when the byte falls below floor(256*eAbs), so the realized
// probability is quantized to 1/256 steps. out and b must have the same
// length; they may alias.
func FlipBits(r io.Reader, out, b []byte, eAbs float64) error {
	if r == nil {
		return ErrNilRandReader
	}
	if len(out) != len(b) {
		return ErrBufferSize
	}

	thres := int(256 * eAbs)
	var buf [8]byte
	for i := range b {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		var t byte
		for j := 0; j < 8; j++ {
			if int(buf[j]) < thres {
				t |= 1 << j
			}
		}
		out[i] = b[i] ^ t
	}
	return nil
}
