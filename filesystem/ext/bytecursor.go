package ext

import (
	"encoding/binary"
	"fmt"
)

// byteCursor is a bounds-checked view over a borrowed byte buffer. Every
// decode site in this package goes through it so a short or malformed
// buffer fails the same way everywhere instead of panicking on a slice
// out-of-range.
type byteCursor struct {
	b []byte
}

func newByteCursor(b []byte) byteCursor {
	return byteCursor{b: b}
}

func (c byteCursor) checkBounds(off, length int) error {
	if off < 0 || length < 0 || off+length > len(c.b) {
		return fmt.Errorf("read [%d:%d) out of bounds of %d-byte buffer: %w", off, off+length, len(c.b), ErrMalformed)
	}
	return nil
}

// uint16 reads a little-endian u16 at the given byte offset.
func (c byteCursor) uint16(off int) (uint16, error) {
	if err := c.checkBounds(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.b[off : off+2]), nil
}

// uint32 reads a little-endian u32 at the given byte offset. It never
// sign-extends; the return type is unsigned throughout.
func (c byteCursor) uint32(off int) (uint32, error) {
	if err := c.checkBounds(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.b[off : off+4]), nil
}

// slice returns a sub-slice of the given length at the given offset.
func (c byteCursor) slice(off, length int) ([]byte, error) {
	if err := c.checkBounds(off, length); err != nil {
		return nil, err
	}
	return c.b[off : off+length], nil
}
