// Package rollsum implements the rsync rolling checksum: a 32-bit Adler-style
// sum over a sliding window of bytes that can be updated in O(1) time as the
// window advances one byte at a time. It is detailed on page 55 of Andrew
// Tridgell's rsync thesis (https://www.samba.org/~tridge/phd_thesis.pdf).
package rollsum

// charOffset is added to every byte before it contributes to the checksum.
// It is fixed at 31 for compatibility with the librsync wire format; unlike
// the variant used internally by some rsync implementations, it cannot be
// tuned per call.
const charOffset = 31

// Checksum is a rolling checksum over a window of bytes. Its zero value is
// not meaningful; use New or Reset to establish a window.
type Checksum struct {
	a, b uint16
	n    uint16
}

// New computes a fresh checksum over data. The window length is len(data).
func New(data []byte) Checksum {
	var c Checksum
	c.Reset(data)
	return c
}

// Reset recomputes the checksum from scratch over a new window, discarding
// any previous state. This is an O(len(data)) operation.
func (c *Checksum) Reset(data []byte) {
	n := len(data)
	var a, b uint32

	i := 0
	for ; i+4 <= n; i += 4 {
		a += uint32(data[i]) + uint32(data[i+1]) + uint32(data[i+2]) + uint32(data[i+3])
		b += uint32(n-i)*uint32(data[i]) + uint32(n-i-1)*uint32(data[i+1]) +
			uint32(n-i-2)*uint32(data[i+2]) + uint32(n-i-3)*uint32(data[i+3])
	}
	for ; i < n; i++ {
		a += uint32(data[i])
		b += uint32(n-i) * uint32(data[i])
	}

	a += uint32(charOffset) * uint32(n)
	b += uint32(charOffset) * uint32(n*(n+1)/2)

	c.a = uint16(a)
	c.b = uint16(b)
	c.n = uint16(n)
}

// Roll slides the window forward by one byte: out leaves the front of the
// window and in joins the back. This is a constant-time operation regardless
// of window length.
func (c *Checksum) Roll(out, in byte) {
	a := c.a - uint16(out) + uint16(in)
	b := c.b - c.n*(uint16(out)+charOffset) + a
	c.a = a
	c.b = b
}

// Digest returns the packed 32-bit checksum value, (b << 16) | a, as used on
// the wire and in signature records.
func (c Checksum) Digest() uint32 {
	return uint32(c.b)<<16 | uint32(c.a)
}
