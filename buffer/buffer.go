// Package buffer implements the big-endian, cursor-addressed byte buffer
// every codec in this module reads from and writes to.
package buffer

import (
	"fmt"
	"strings"
)

// maxStringScan bounds ReadString. The original reader ignored its length
// argument entirely and scanned up to 0xff bytes looking for a NUL; this
// keeps that behavior rather than inventing a "correct" one, per the GCX
// string reader open question.
const maxStringScan = 0xff

// ErrShortBuffer is returned whenever a read would run past the end of the
// backing slice.
var ErrShortBuffer = fmt.Errorf("buffer: read past end of data")

// Buffer is a mutable byte sequence with a read/write cursor. All
// multi-byte values are big-endian. Reads that take an explicit offset are
// positioned reads and never move the cursor; reads with no offset argument
// advance the cursor by the number of bytes consumed.
type Buffer struct {
	data   []byte
	Offset int
}

// New wraps an existing byte slice for reading.
func New(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewWriter returns an empty buffer ready for appending.
func NewWriter() *Buffer {
	return &Buffer{data: make([]byte, 0, 64)}
}

// Bytes returns the buffer's backing slice.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining reports how many bytes are left to read from the cursor.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.Offset
}

func (b *Buffer) need(off, n int) error {
	if off < 0 || n < 0 || off+n > len(b.data) {
		return ErrShortBuffer
	}
	return nil
}

// ReadU8At returns the byte at off without moving the cursor.
func (b *Buffer) ReadU8At(off int) (byte, error) {
	if err := b.need(off, 1); err != nil {
		return 0, err
	}
	return b.data[off], nil
}

// ReadU8 returns the byte at the cursor and advances it by one.
func (b *Buffer) ReadU8() (byte, error) {
	v, err := b.ReadU8At(b.Offset)
	if err != nil {
		return 0, err
	}
	b.Offset++
	return v, nil
}

// ReadU16At returns the big-endian u16 at off without moving the cursor.
func (b *Buffer) ReadU16At(off int) (uint16, error) {
	if err := b.need(off, 2); err != nil {
		return 0, err
	}
	return uint16(b.data[off])<<8 | uint16(b.data[off+1]), nil
}

// ReadU16 returns the big-endian u16 at the cursor and advances it by two.
func (b *Buffer) ReadU16() (uint16, error) {
	v, err := b.ReadU16At(b.Offset)
	if err != nil {
		return 0, err
	}
	b.Offset += 2
	return v, nil
}

// ReadU32At returns the big-endian u32 at off without moving the cursor.
func (b *Buffer) ReadU32At(off int) (uint32, error) {
	if err := b.need(off, 4); err != nil {
		return 0, err
	}
	d := b.data[off : off+4]
	return uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3]), nil
}

// ReadU32 returns the big-endian u32 at the cursor and advances it by four.
func (b *Buffer) ReadU32() (uint32, error) {
	v, err := b.ReadU32At(b.Offset)
	if err != nil {
		return 0, err
	}
	b.Offset += 4
	return v, nil
}

// ReadHex reads n bytes and returns them as a lowercase hex string, two
// digits per byte, advancing the cursor by n.
func (b *Buffer) ReadHex(n int) (string, error) {
	if err := b.need(b.Offset, n); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(n * 2)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%02x", b.data[b.Offset+i])
	}
	b.Offset += n
	return sb.String(), nil
}

// ReadString reads bytes up to a NUL terminator (consuming the NUL), with
// every byte outside printable ASCII rendered as the four-character escape
// \xHH (uppercase hex). The scan never looks further than maxStringScan
// bytes ahead of the cursor.
func (b *Buffer) ReadString() (string, error) {
	var sb strings.Builder
	for i := 0; i < maxStringScan; i++ {
		c, err := b.ReadU8()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return sb.String(), nil
		}
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "\\x%02X", c)
		}
	}
	return sb.String(), nil
}

// WriteU8 appends a single byte.
func (b *Buffer) WriteU8(v byte) {
	b.data = append(b.data, v)
}

// WriteU16 appends a big-endian u16.
func (b *Buffer) WriteU16(v uint16) {
	b.data = append(b.data, byte(v>>8), byte(v))
}

// WriteU32 appends a big-endian u32.
func (b *Buffer) WriteU32(v uint32) {
	b.data = append(b.data, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteBytes appends raw bytes verbatim.
func (b *Buffer) WriteBytes(p []byte) {
	b.data = append(b.data, p...)
}

// WriteHex decodes a lowercase-or-uppercase hex string, two digits per
// byte, and appends the resulting bytes.
func (b *Buffer) WriteHex(s string) error {
	if len(s)%2 != 0 {
		return fmt.Errorf("buffer: odd-length hex string %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var v byte
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &v); err != nil {
			return fmt.Errorf("buffer: invalid hex string %q: %w", s, err)
		}
		out[i] = v
	}
	b.data = append(b.data, out...)
	return nil
}

// WriteString encodes value the way ReadString would have produced it —
// the literal sequence \xHH is decoded back to the one byte 0xHH, anything
// else is encoded byte for byte — and appends a trailing NUL.
func (b *Buffer) WriteString(value string) error {
	encoded, err := EncodeString(value)
	if err != nil {
		return err
	}
	b.data = append(b.data, encoded...)
	return nil
}

// EncodeString performs the string encoding WriteString appends, without a
// side effect on any buffer; used by callers that need the encoded length
// before deciding how to frame it (e.g. GCX STR nodes, which prefix the
// string with its own encoded length).
func EncodeString(value string) ([]byte, error) {
	out := make([]byte, 0, len(value)+1)
	i := 0
	for i < len(value) {
		if strings.HasPrefix(value[i:], `\x`) && i+4 <= len(value) {
			var v byte
			if _, err := fmt.Sscanf(value[i+2:i+4], "%02x", &v); err == nil {
				out = append(out, v)
				i += 4
				continue
			}
		}
		out = append(out, value[i])
		i++
	}
	out = append(out, 0)
	return out, nil
}
