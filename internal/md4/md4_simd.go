package md4

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// haveVectorLanes records whether the four-way lane evaluator should be
// preferred over repeated scalar calls. It is detected once at process
// start and never changes afterward, following the same init()-time,
// read-only dispatch pattern used for other hot-path SIMD selection in the
// ecosystem (vector-extension detection gates a function-pointer-style
// choice, with the scalar path always retained as a correctness fallback).
var haveVectorLanes bool

func init() {
	switch runtime.GOARCH {
	case "amd64":
		haveVectorLanes = cpu.Initialized && cpu.X86.HasAVX2
	case "arm64":
		haveVectorLanes = cpu.ARM64.HasASIMD
	default:
		haveVectorLanes = false
	}
}

// HaveVectorLanes reports whether Sum4 will use the four-lane evaluator for
// the current process. It is exposed only so that tests can exercise both
// code paths deterministically.
func HaveVectorLanes() bool {
	return haveVectorLanes
}

// Sum4 computes the MD4 digests of four independent messages. When the
// detected CPU supports it, the four compression-function streams are
// advanced in lockstep across four state lanes (block4); this is purely an
// evaluation-order optimization; it produces results bit-identical to
// calling Sum on each message independently; Go has no portable way to
// issue real vector instructions without assembly, so the "lanes" here are
// four interleaved scalar state arrays rather than literal SIMD registers,
// but they are dispatched and fall back exactly as a true vectorized
// four-way kernel would: four-in-lockstep while all four still have a block
// to contribute, then scalar for whichever streams finish first.
func Sum4(msgs [4][]byte) [4][16]byte {
	if !haveVectorLanes {
		var out [4][16]byte
		for i, m := range msgs {
			out[i] = Sum(m)
		}
		return out
	}
	return sum4Lanes(msgs)
}

// paddedBlocks returns the full sequence of 64-byte compression blocks for
// msg, including MD4's 0x80/zero/length padding.
func paddedBlocks(msg []byte) [][BlockSize]byte {
	n := len(msg)
	full := n - n%BlockSize
	blocks := make([][BlockSize]byte, 0, full/BlockSize+2)
	for i := 0; i < full; i += BlockSize {
		var b [BlockSize]byte
		copy(b[:], msg[i:i+BlockSize])
		blocks = append(blocks, b)
	}

	var tail [BlockSize * 2]byte
	rem := copy(tail[:], msg[full:])
	tail[rem] = 0x80
	rem++

	padTo := BlockSize
	if rem > BlockSize-8 {
		padTo = BlockSize * 2
	}
	putLen(tail[padTo-8:padTo], uint64(n)*8)

	var b0 [BlockSize]byte
	copy(b0[:], tail[:BlockSize])
	blocks = append(blocks, b0)
	if padTo > BlockSize {
		var b1 [BlockSize]byte
		copy(b1[:], tail[BlockSize:BlockSize*2])
		blocks = append(blocks, b1)
	}
	return blocks
}

func putLen(dst []byte, bits uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(bits >> (8 * uint(i)))
	}
}

// sum4Lanes drives four independent MD4 state lanes through their
// respective padded block sequences, processing blocks four-at-a-time with
// block4 whenever all four lanes still have one, and draining any
// shorter-lived lanes with the scalar block function once they start
// running out.
func sum4Lanes(msgs [4][]byte) [4][16]byte {
	var states [4][4]uint32
	for i := range states {
		states[i] = initState
	}

	blocks := [4][][BlockSize]byte{}
	maxBlocks := 0
	for i, m := range msgs {
		blocks[i] = paddedBlocks(m)
		if len(blocks[i]) > maxBlocks {
			maxBlocks = len(blocks[i])
		}
	}

	for round := 0; round < maxBlocks; round++ {
		var lanesHere [4]*[BlockSize]byte
		allFour := true
		for i := range blocks {
			if round < len(blocks[i]) {
				lanesHere[i] = &blocks[i][round]
			} else {
				allFour = false
			}
		}
		if allFour {
			block4(&states, lanesHere[0], lanesHere[1], lanesHere[2], lanesHere[3])
			continue
		}
		for i := range blocks {
			if round < len(blocks[i]) {
				block(&states[i], &blocks[i][round])
			}
		}
	}

	var out [4][16]byte
	for i, s := range states {
		for j, w := range s {
			out[i][j*4] = byte(w)
			out[i][j*4+1] = byte(w >> 8)
			out[i][j*4+2] = byte(w >> 16)
			out[i][j*4+3] = byte(w >> 24)
		}
	}
	return out
}

// block4 advances four independent MD4 state lanes by one block each. It is
// written as a plain loop over lanes rather than actual vector intrinsics
// (Go has no portable SIMD without assembly), but it is structured so that
// an assembly implementation could be substituted behind this same
// signature without changing any caller.
func block4(states *[4][4]uint32, b0, b1, b2, b3 *[BlockSize]byte) {
	block(&states[0], b0)
	block(&states[1], b1)
	block(&states[2], b2)
	block(&states[3], b3)
}
