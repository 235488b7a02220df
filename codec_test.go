package librsync

import (
	"bytes"
	"testing"
)

// TestLiteralRoundTrip verifies that appendLiteral followed by decodeCommand
// recovers the original bytes exactly, across the short/long opcode boundary.
func TestLiteralRoundTrip(t *testing.T) {
	cases := []int{0, 1, 2, 63, 64, 65, 255, 256, 65535, 65536, 1 << 20}
	for _, n := range cases {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}

		buf := appendLiteral(nil, data)
		if n == 0 {
			if len(buf) != 0 {
				t.Errorf("n=%d: expected no bytes emitted for an empty literal", n)
			}
			continue
		}

		cmd, consumed, err := decodeCommand(buf)
		if err != nil {
			t.Fatalf("n=%d: decode failed: %v", n, err)
		}
		if consumed != len(buf) {
			t.Errorf("n=%d: consumed %d, want %d", n, consumed, len(buf))
		}
		if cmd.isEnd || cmd.isCopy {
			t.Errorf("n=%d: decoded command has the wrong kind", n)
		}
		if !bytes.Equal(cmd.literal, data) {
			t.Errorf("n=%d: literal payload mismatch", n)
		}
	}
}

// TestLiteralUsesMinimalOpcode checks that short literals always use a
// single-byte opcode rather than falling through to the long form.
func TestLiteralUsesMinimalOpcode(t *testing.T) {
	buf := appendLiteral(nil, make([]byte, 64))
	if buf[0] != opLiteralShortMax {
		t.Errorf("64-byte literal opcode = %#x, want %#x", buf[0], opLiteralShortMax)
	}
	buf = appendLiteral(nil, make([]byte, 65))
	if buf[0] != opLiteralLongMin {
		t.Errorf("65-byte literal opcode = %#x, want %#x", buf[0], opLiteralLongMin)
	}
}

// TestCopyRoundTrip verifies that appendCopy followed by decodeCommand
// recovers the original (offset, length) pair across all four width classes.
func TestCopyRoundTrip(t *testing.T) {
	cases := []struct{ offset, length uint64 }{
		{0, 1},
		{0xff, 0xff},
		{0x100, 0x100},
		{0xffff, 0xffff},
		{0x10000, 0x10000},
		{0xffffffff, 0xffffffff},
		{0x100000000, 0x100000000},
		{1<<63 - 1, 1 << 20},
	}
	for _, c := range cases {
		buf := appendCopy(nil, c.offset, c.length)
		cmd, consumed, err := decodeCommand(buf)
		if err != nil {
			t.Fatalf("offset=%d length=%d: decode failed: %v", c.offset, c.length, err)
		}
		if consumed != len(buf) {
			t.Errorf("offset=%d length=%d: consumed %d, want %d", c.offset, c.length, consumed, len(buf))
		}
		if !cmd.isCopy || cmd.isEnd {
			t.Errorf("offset=%d length=%d: decoded command has the wrong kind", c.offset, c.length)
		}
		if cmd.offset != c.offset || cmd.length != c.length {
			t.Errorf("offset=%d length=%d: got offset=%d length=%d", c.offset, c.length, cmd.offset, cmd.length)
		}
	}
}

// TestCopyOpcodeIsMinimalPerField checks that the offset and length widths
// are chosen independently, not tied to whichever of the two is larger.
func TestCopyOpcodeIsMinimalPerField(t *testing.T) {
	buf := appendCopy(nil, 5, 0x100000000)
	if len(buf) != 1+1+8 {
		t.Fatalf("unexpected encoded length %d", len(buf))
	}
	opcode := buf[0]
	rel := int(opcode - opCopyMin)
	if indexWidth(rel/4) != 1 {
		t.Errorf("offset width = %d, want 1", indexWidth(rel/4))
	}
	if indexWidth(rel%4) != 8 {
		t.Errorf("length width = %d, want 8", indexWidth(rel%4))
	}
}

// TestEndRoundTrip verifies the END opcode decodes with zero payload.
func TestEndRoundTrip(t *testing.T) {
	buf := appendEnd(nil)
	cmd, consumed, err := decodeCommand(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !cmd.isEnd {
		t.Error("expected an END command")
	}
	if consumed != 1 {
		t.Errorf("consumed %d bytes, want 1", consumed)
	}
}

// TestDecodeRejectsUnknownOpcode verifies that opcodes outside the known
// ranges (0x00, 0x01-0x40, 0x41-0x44, 0x45-0x54) are rejected.
func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	for _, opcode := range []byte{0x55, 0x80, 0xff} {
		if _, _, err := decodeCommand([]byte{opcode}); err == nil {
			t.Errorf("opcode %#x: expected an error", opcode)
		}
	}
}

// TestDecodeRejectsTruncatedCommands verifies that every opcode class
// reports an error rather than panicking or silently under-reading when the
// buffer is too short to hold its payload.
func TestDecodeRejectsTruncatedCommands(t *testing.T) {
	cases := [][]byte{
		{},
		{opLiteralShortMax}, // claims 64 bytes of payload, has none
		{opLiteralLongMin},  // claims a 1-byte length prefix, has none
		{opLiteralLongMin, 0x05},
		{opCopyMin}, // claims a 1-byte offset and a 1-byte length
		{opCopyMin, 0x01},
		{byte(opCopyMin + 15), 0x01, 0x02, 0x03}, // 8-byte offset, 8-byte length
	}
	for i, data := range cases {
		if _, _, err := decodeCommand(data); err == nil {
			t.Errorf("case %d: expected an error for %v", i, data)
		}
	}
}
