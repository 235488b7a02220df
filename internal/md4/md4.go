// Package md4 implements the MD4 message digest algorithm as defined in
// RFC 1320. It is used here purely as a non-cryptographic block
// fingerprint for the rsync matching algorithm, as called for by the
// librsync legacy signature format; it is not suitable for any purpose
// requiring collision resistance against an adversary.
//
// In addition to the scalar single-block digest, this package exposes a
// four-blocks-in-parallel evaluator (Sum4) for the hot path of hashing many
// independent reference blocks. The parallel evaluator is selected at
// runtime based on detected CPU features and is guaranteed to produce
// digests bit-identical to the scalar path (see md4_simd.go).
package md4

import "encoding/binary"

// Size is the length in bytes of an MD4 digest.
const Size = 16

// BlockSize is the MD4 block size in bytes.
const BlockSize = 64

// initial digest state, per RFC 1320 §3.3.
var initState = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}

// Sum computes the MD4 digest of data in a single call, handling the RFC
// 1320 padding internally, using a fixed two-block buffer for the padded
// tail.
func Sum(data []byte) [Size]byte {
	state := initState

	n := len(data)
	full := n - n%BlockSize
	for i := 0; i < full; i += BlockSize {
		block(&state, (*[BlockSize]byte)(data[i : i+BlockSize]))
	}

	// Padding: a single 0x80 byte, zeros, then the 64-bit little-endian
	// bit length, padded so the total length is a multiple of BlockSize.
	var tail [BlockSize * 2]byte
	rem := copy(tail[:], data[full:])
	tail[rem] = 0x80
	rem++

	padTo := BlockSize
	if rem > BlockSize-8 {
		padTo = BlockSize * 2
	}
	binary.LittleEndian.PutUint64(tail[padTo-8:padTo], uint64(n)*8)

	block(&state, (*[BlockSize]byte)(tail[:BlockSize]))
	if padTo > BlockSize {
		block(&state, (*[BlockSize]byte)(tail[BlockSize:BlockSize*2]))
	}

	var out [Size]byte
	for i, s := range state {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], s)
	}
	return out
}

// words unpacks a 64-byte block into sixteen little-endian 32-bit words.
func words(block *[BlockSize]byte) [16]uint32 {
	var x [16]uint32
	for i := range x {
		x[i] = binary.LittleEndian.Uint32(block[i*4 : i*4+4])
	}
	return x
}

func leftRotate(x uint32, n uint) uint32 {
	return (x << n) | (x >> (32 - n))
}

// block applies the MD4 compression function for a single 64-byte block to
// state, per RFC 1320 §3.4.
func block(state *[4]uint32, msg *[BlockSize]byte) {
	x := words(msg)
	a, b, c, d := state[0], state[1], state[2], state[3]

	// Round 1: F(x,y,z) = (x & y) | (^x & z).
	round1 := func(a, b, c, d, k uint32, s uint) uint32 {
		f := (b & c) | (^b & d)
		return leftRotate(a+f+x[k], s)
	}
	a = round1(a, b, c, d, 0, 3)
	d = round1(d, a, b, c, 1, 7)
	c = round1(c, d, a, b, 2, 11)
	b = round1(b, c, d, a, 3, 19)
	a = round1(a, b, c, d, 4, 3)
	d = round1(d, a, b, c, 5, 7)
	c = round1(c, d, a, b, 6, 11)
	b = round1(b, c, d, a, 7, 19)
	a = round1(a, b, c, d, 8, 3)
	d = round1(d, a, b, c, 9, 7)
	c = round1(c, d, a, b, 10, 11)
	b = round1(b, c, d, a, 11, 19)
	a = round1(a, b, c, d, 12, 3)
	d = round1(d, a, b, c, 13, 7)
	c = round1(c, d, a, b, 14, 11)
	b = round1(b, c, d, a, 15, 19)

	// Round 2: G(x,y,z) = (x & y) | (x & z) | (y & z); constant 0x5a827999.
	round2 := func(a, b, c, d, k uint32, s uint) uint32 {
		g := (b & c) | (b & d) | (c & d)
		return leftRotate(a+g+x[k]+0x5a827999, s)
	}
	a = round2(a, b, c, d, 0, 3)
	d = round2(d, a, b, c, 4, 5)
	c = round2(c, d, a, b, 8, 9)
	b = round2(b, c, d, a, 12, 13)
	a = round2(a, b, c, d, 1, 3)
	d = round2(d, a, b, c, 5, 5)
	c = round2(c, d, a, b, 9, 9)
	b = round2(b, c, d, a, 13, 13)
	a = round2(a, b, c, d, 2, 3)
	d = round2(d, a, b, c, 6, 5)
	c = round2(c, d, a, b, 10, 9)
	b = round2(b, c, d, a, 14, 13)
	a = round2(a, b, c, d, 3, 3)
	d = round2(d, a, b, c, 7, 5)
	c = round2(c, d, a, b, 11, 9)
	b = round2(b, c, d, a, 15, 13)

	// Round 3: H(x,y,z) = x ^ y ^ z; constant 0x6ed9eba1.
	round3 := func(a, b, c, d, k uint32, s uint) uint32 {
		h := b ^ c ^ d
		return leftRotate(a+h+x[k]+0x6ed9eba1, s)
	}
	a = round3(a, b, c, d, 0, 3)
	d = round3(d, a, b, c, 8, 9)
	c = round3(c, d, a, b, 4, 11)
	b = round3(b, c, d, a, 12, 15)
	a = round3(a, b, c, d, 2, 3)
	d = round3(d, a, b, c, 10, 9)
	c = round3(c, d, a, b, 6, 11)
	b = round3(b, c, d, a, 14, 15)
	a = round3(a, b, c, d, 1, 3)
	d = round3(d, a, b, c, 9, 9)
	c = round3(c, d, a, b, 5, 11)
	b = round3(b, c, d, a, 13, 15)
	a = round3(a, b, c, d, 3, 3)
	d = round3(d, a, b, c, 11, 9)
	c = round3(c, d, a, b, 7, 11)
	b = round3(b, c, d, a, 15, 15)

	state[0] += a
	state[1] += b
	state[2] += c
	state[3] += d
}
