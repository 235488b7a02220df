package librsync

import (
	"math/rand"
	"testing"

	"github.com/rsyncgo/librsync/internal/rollsum"
)

// TestIndexSignatureRejectsTruncatedHeader verifies that fewer than 12
// header bytes is rejected.
func TestIndexSignatureRejectsTruncatedHeader(t *testing.T) {
	if _, err := IndexSignature([]byte{0x72, 0x73}); err == nil {
		t.Error("truncated header considered valid")
	}
}

// TestIndexSignatureRejectsBadMagic verifies that a signature with the wrong
// magic number is rejected.
func TestIndexSignatureRejectsBadMagic(t *testing.T) {
	sig, err := CalculateSignature(make([]byte, 100), DefaultSignatureOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sig[3] ^= 0xff
	if _, err := IndexSignature(sig); err == nil {
		t.Error("bad magic considered valid")
	}
}

// TestIndexSignatureRejectsMisalignedBody verifies that a body length which
// isn't a multiple of the record size is rejected.
func TestIndexSignatureRejectsMisalignedBody(t *testing.T) {
	sig, err := CalculateSignature(make([]byte, 100), DefaultSignatureOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := IndexSignature(sig[:len(sig)-1]); err == nil {
		t.Error("misaligned body considered valid")
	}
}

// TestIndexSignatureEmpty verifies that an empty reference's signature
// indexes as an empty index.
func TestIndexSignatureEmpty(t *testing.T) {
	sig, err := CalculateSignature(nil, DefaultSignatureOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	indexed, err := IndexSignature(sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !indexed.isEmpty() {
		t.Error("empty reference's signature did not index as empty")
	}
}

// TestIndexSignatureCandidatesFor verifies that every block in the
// reference is discoverable through candidatesFor via its own weak sum.
func TestIndexSignatureCandidatesFor(t *testing.T) {
	options := SignatureOptions{BlockSize: 16, CryptoHashSize: 8}
	reference := make([]byte, 16*10)
	rand.New(rand.NewSource(7)).Read(reference)

	sig, err := CalculateSignature(reference, options)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	indexed, err := IndexSignature(sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 10; i++ {
		block := reference[i*16 : (i+1)*16]
		weak := rollsum.New(block).Digest()
		candidates := indexed.candidatesFor(weak)
		found := false
		for _, c := range candidates {
			if c.index == uint64(i) {
				found = true
			}
		}
		if !found {
			t.Errorf("block %d not found among candidates for its own weak checksum", i)
		}
	}
}
