package librsync

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Apply reconstructs a target buffer given a reference and a librsync-legacy
// delta, per spec.md §4.6. outputLimit bounds the size of the reconstructed
// buffer; a crafted delta whose COPY/LITERAL commands would produce more
// output than that is rejected rather than allowed to exhaust memory.
func Apply(reference, delta []byte, outputLimit uint64) ([]byte, error) {
	var out bytes.Buffer
	if err := ApplyLimited(reference, delta, &out, outputLimit); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ApplyLimited is Apply with an explicit destination buffer, letting callers
// reuse a buffer across repeated applications.
func ApplyLimited(reference, delta []byte, out *bytes.Buffer, outputLimit uint64) error {
	if len(delta) < 4 {
		return newDeltaParseError("truncated header")
	}
	magic := binary.BigEndian.Uint32(delta[0:4])
	if magic != deltaMagic {
		return newDeltaParseError("unrecognized magic")
	}

	body := delta[4:]
	var written uint64
	sawEnd := false

	for len(body) > 0 {
		cmd, consumed, err := decodeCommand(body)
		if err != nil {
			return err
		}
		body = body[consumed:]

		if cmd.isEnd {
			sawEnd = true
			break
		}

		var n uint64
		switch {
		case cmd.isCopy:
			n = cmd.length
			end, overflowed := addOverflows(cmd.offset, cmd.length)
			if overflowed {
				return newApplyError(ApplyErrorOverflow, "copy offset+length overflows")
			}
			if end > uint64(len(reference)) {
				return newApplyError(ApplyErrorCopyOutOfBounds, "copy range exceeds reference length")
			}
		default:
			n = uint64(len(cmd.literal))
		}

		next, overflowed := addOverflows(written, n)
		if overflowed {
			return newApplyError(ApplyErrorOverflow, "output length overflows")
		}
		if next > outputLimit {
			return newApplyError(ApplyErrorOutputLimitExceeded, "delta would exceed the output limit")
		}
		written = next

		if cmd.isCopy {
			out.Write(reference[cmd.offset : cmd.offset+cmd.length])
		} else {
			out.Write(cmd.literal)
		}
	}

	if !sawEnd {
		return newDeltaParseError("missing END opcode")
	}
	if len(body) > 0 {
		return newDeltaParseError("trailing bytes after END")
	}

	return nil
}

// addOverflows returns a+b and whether that addition overflowed uint64.
func addOverflows(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, true
	}
	return a + b, false
}
