package librsync

import "encoding/binary"

// blockEntry is a single decoded signature record: the block's index within
// the reference, its rolling checksum, and its truncated MD4 prefix.
type blockEntry struct {
	index  uint64
	weak   uint32
	strong []byte
}

// IndexedSignature is a decoded signature augmented with a checksum-keyed
// lookup structure, suitable for driving Diff. Construct one with
// IndexSignature.
type IndexedSignature struct {
	// BlockSize is the block size used to build the signature.
	BlockSize uint32
	// CryptoHashSize is the truncated MD4 prefix length used to build the
	// signature.
	CryptoHashSize uint32
	// blockCount is the total number of blocks described by the signature.
	blockCount uint64
	// index maps a block's full rolling checksum to every block sharing
	// that checksum, in ascending block-index order (deterministic, though
	// the specific order carries no correctness meaning on its own).
	index map[uint32][]blockEntry
}

// IndexSignature parses encoded signature bytes and builds the checksum
// index needed to run Diff against it.
func IndexSignature(signature []byte) (*IndexedSignature, error) {
	if len(signature) < signatureHeaderSize {
		return nil, newSignatureParseError("truncated header")
	}

	magic := binary.BigEndian.Uint32(signature[0:4])
	if magic != signatureMagic {
		return nil, newSignatureParseError("unrecognized magic")
	}

	blockSize := binary.BigEndian.Uint32(signature[4:8])
	hashSize := binary.BigEndian.Uint32(signature[8:12])
	if hashSize == 0 || hashSize > 16 {
		return nil, newSignatureParseError("crypto hash size out of range")
	}

	recordSize := 4 + int(hashSize)
	body := signature[signatureHeaderSize:]
	if len(body)%recordSize != 0 {
		return nil, newSignatureParseError("body length is not a multiple of the record size")
	}
	numBlocks := len(body) / recordSize

	result := &IndexedSignature{
		BlockSize:      blockSize,
		CryptoHashSize: hashSize,
		blockCount:     uint64(numBlocks),
		index:          make(map[uint32][]blockEntry, numBlocks),
	}
	if numBlocks == 0 {
		return result, nil
	}
	if blockSize == 0 {
		return nil, newSignatureParseError("zero block size with non-zero block count")
	}

	for i := 0; i < numBlocks; i++ {
		recordStart := i * recordSize
		weak := binary.BigEndian.Uint32(body[recordStart : recordStart+4])
		strong := make([]byte, hashSize)
		copy(strong, body[recordStart+4:recordStart+recordSize])

		entry := blockEntry{index: uint64(i), weak: weak, strong: strong}
		result.index[weak] = append(result.index[weak], entry)
	}

	return result, nil
}

// candidatesFor returns the signature blocks sharing the given rolling
// checksum, in deterministic order.
func (s *IndexedSignature) candidatesFor(weak uint32) []blockEntry {
	return s.index[weak]
}

// isEmpty reports whether the signature describes zero blocks (i.e. the
// reference it was built from was empty).
func (s *IndexedSignature) isEmpty() bool {
	return s.blockCount == 0
}
