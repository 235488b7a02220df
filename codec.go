package librsync

import "encoding/binary"

// deltaMagic identifies the librsync legacy delta format, per spec.md §6.
const deltaMagic uint32 = 0x72730236

// Opcodes follow the librsync legacy mapping (spec.md §4.5):
//
//	0x00         END
//	0x01..0x40   short LITERAL, length == opcode value (1..64)
//	0x41..0x44   long LITERAL, followed by a big-endian length of
//	             1, 2, 4, or 8 bytes (opcode 0x41 -> 1 byte, ... 0x44 -> 8)
//	0x45..0x54   COPY, a 4x4 matrix over (offsetWidth, lengthWidth), each
//	             in {1, 2, 4, 8} bytes, offset width varying slower
const (
	opEnd             = 0x00
	opLiteralShortMin = 0x01
	opLiteralShortMax = 0x40
	opLiteralLongMin  = 0x41
	opLiteralLongMax  = 0x44
	opCopyMin         = 0x45
	opCopyMax         = 0x54
)

// widthIndex maps a byte width in {1, 2, 4, 8} to an index in {0, 1, 2, 3}.
func widthIndex(width int) int {
	switch width {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	default:
		return 3
	}
}

// indexWidth is the inverse of widthIndex.
func indexWidth(index int) int {
	return 1 << uint(index)
}

// minimalWidth returns the smallest width in {1, 2, 4, 8} that can hold v
// without truncation.
func minimalWidth(v uint64) int {
	switch {
	case v <= 0xff:
		return 1
	case v <= 0xffff:
		return 2
	case v <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// putUint encodes v in the given big-endian byte width (1, 2, 4, or 8).
func putUint(dst []byte, width int, v uint64) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(dst, uint32(v))
	default:
		binary.BigEndian.PutUint64(dst, v)
	}
}

// getUint decodes a big-endian value of the given byte width.
func getUint(src []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(src))
	case 4:
		return uint64(binary.BigEndian.Uint32(src))
	default:
		return binary.BigEndian.Uint64(src)
	}
}

// appendLiteral appends the minimal-width encoding of a LITERAL command
// carrying data to buf.
func appendLiteral(buf []byte, data []byte) []byte {
	n := len(data)
	if n == 0 {
		return buf
	}
	if n <= 64 {
		buf = append(buf, byte(opLiteralShortMin+n-1))
		return append(buf, data...)
	}
	width := minimalWidth(uint64(n))
	buf = append(buf, byte(opLiteralLongMin+widthIndex(width)))
	var lenBuf [8]byte
	putUint(lenBuf[:width], width, uint64(n))
	buf = append(buf, lenBuf[:width]...)
	return append(buf, data...)
}

// appendCopy appends the minimal-width encoding of a COPY command to buf.
func appendCopy(buf []byte, offset, length uint64) []byte {
	offsetWidth := minimalWidth(offset)
	lengthWidth := minimalWidth(length)
	opcode := opCopyMin + widthIndex(offsetWidth)*4 + widthIndex(lengthWidth)
	buf = append(buf, byte(opcode))

	var tmp [8]byte
	putUint(tmp[:offsetWidth], offsetWidth, offset)
	buf = append(buf, tmp[:offsetWidth]...)
	putUint(tmp[:lengthWidth], lengthWidth, length)
	buf = append(buf, tmp[:lengthWidth]...)
	return buf
}

// appendEnd appends the END opcode to buf.
func appendEnd(buf []byte) []byte {
	return append(buf, opEnd)
}

// decodedCommand is a single parsed delta command.
type decodedCommand struct {
	isEnd   bool
	literal []byte // non-nil for LITERAL (may be zero-length only if isEnd is false and this is unreachable in well-formed streams)
	isCopy  bool
	offset  uint64
	length  uint64
}

// decodeCommand parses a single command from the front of data, returning
// the command and the number of bytes it consumed. It rejects unknown
// opcodes and truncated commands, per spec.md §7.
func decodeCommand(data []byte) (decodedCommand, int, error) {
	if len(data) == 0 {
		return decodedCommand{}, 0, newDeltaParseError("truncated command stream")
	}
	opcode := data[0]

	switch {
	case opcode == opEnd:
		return decodedCommand{isEnd: true}, 1, nil

	case opcode >= opLiteralShortMin && opcode <= opLiteralShortMax:
		n := int(opcode-opLiteralShortMin) + 1
		if len(data)-1 < n {
			return decodedCommand{}, 0, newDeltaParseError("truncated literal payload")
		}
		return decodedCommand{literal: data[1 : 1+n]}, 1 + n, nil

	case opcode >= opLiteralLongMin && opcode <= opLiteralLongMax:
		width := indexWidth(int(opcode - opLiteralLongMin))
		if len(data)-1 < width {
			return decodedCommand{}, 0, newDeltaParseError("truncated literal length")
		}
		n := getUint(data[1:1+width], width)
		if uint64(len(data)-1-width) < n {
			return decodedCommand{}, 0, newDeltaParseError("truncated literal payload")
		}
		start := 1 + width
		return decodedCommand{literal: data[start : start+int(n)]}, start + int(n), nil

	case opcode >= opCopyMin && opcode <= opCopyMax:
		rel := int(opcode - opCopyMin)
		offsetWidth := indexWidth(rel / 4)
		lengthWidth := indexWidth(rel % 4)
		need := offsetWidth + lengthWidth
		if len(data)-1 < need {
			return decodedCommand{}, 0, newDeltaParseError("truncated copy command")
		}
		offset := getUint(data[1:1+offsetWidth], offsetWidth)
		length := getUint(data[1+offsetWidth:1+need], lengthWidth)
		return decodedCommand{isCopy: true, offset: offset, length: length}, 1 + need, nil

	default:
		return decodedCommand{}, 0, newDeltaParseError("unknown opcode")
	}
}
