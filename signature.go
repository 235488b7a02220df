package librsync

import (
	"encoding/binary"

	"github.com/rsyncgo/librsync/internal/md4"
	"github.com/rsyncgo/librsync/internal/rollsum"
)

// signatureMagic identifies the librsync "rs01" legacy MD4 signature
// format, per spec.md §6.
const signatureMagic uint32 = 0x72730136

// signatureHeaderSize is the fixed-size portion of an encoded signature:
// magic, block size, and crypto hash size, each a big-endian uint32.
const signatureHeaderSize = 12

// CalculateSignature computes the encoded signature of reference using the
// given options. The returned bytes follow the wire layout in spec.md §6:
// a 12-byte header followed by one (rolling checksum, truncated MD4)
// record per block.
//
// reference is partitioned into consecutive BlockSize-byte blocks; the
// final block may be shorter (but never zero-length, except when reference
// itself is empty, in which case the signature has no blocks at all).
func CalculateSignature(reference []byte, options SignatureOptions) ([]byte, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	blockSize := int(options.BlockSize)
	hashSize := int(options.CryptoHashSize)
	numBlocks := 0
	if len(reference) > 0 {
		numBlocks = (len(reference) + blockSize - 1) / blockSize
	}

	out := make([]byte, signatureHeaderSize+numBlocks*(4+hashSize))
	binary.BigEndian.PutUint32(out[0:4], signatureMagic)
	binary.BigEndian.PutUint32(out[4:8], options.BlockSize)
	binary.BigEndian.PutUint32(out[8:12], options.CryptoHashSize)

	blockAt := func(i int) []byte {
		start := i * blockSize
		end := start + blockSize
		if end > len(reference) {
			end = len(reference)
		}
		return reference[start:end]
	}
	recordOffset := func(i int) int {
		return signatureHeaderSize + i*(4+hashSize)
	}
	putRecord := func(i int, block []byte, digest [md4.Size]byte) {
		off := recordOffset(i)
		sum := rollsum.New(block).Digest()
		binary.BigEndian.PutUint32(out[off:off+4], sum)
		copy(out[off+4:off+4+hashSize], digest[:hashSize])
	}

	// Every block is independent and known up front, unlike Diff's
	// necessarily sequential scan, so digests are batched four at a time
	// through Sum4, the SIMD-dispatched four-lane evaluator; the remainder
	// (fewer than four blocks left) falls back to the scalar Sum.
	i := 0
	for ; i+4 <= numBlocks; i += 4 {
		var msgs [4][]byte
		for j := 0; j < 4; j++ {
			msgs[j] = blockAt(i + j)
		}
		digests := md4.Sum4(msgs)
		for j := 0; j < 4; j++ {
			putRecord(i+j, msgs[j], digests[j])
		}
	}
	for ; i < numBlocks; i++ {
		block := blockAt(i)
		putRecord(i, block, md4.Sum(block))
	}

	return out, nil
}
