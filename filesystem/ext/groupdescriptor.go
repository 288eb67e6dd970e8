package ext

import "fmt"

// groupDescriptor locates the inode table, block bitmap, and inode bitmap
// for one block group. 64-bit high halves (offsets 0x20/0x24/0x28) are read
// when present but, per the format's own omission in widely deployed
// tooling, are not required for volumes that fit within 32 bits.
type groupDescriptor struct {
	blockBitmap uint64
	inodeBitmap uint64
	inodeTable  uint64
}

func groupDescriptorFromBytes(b []byte, is64Bit bool) (*groupDescriptor, error) {
	c := newByteCursor(b)

	blockBitmapLo, err := c.uint32(0x0)
	if err != nil {
		return nil, err
	}
	inodeBitmapLo, err := c.uint32(0x4)
	if err != nil {
		return nil, err
	}
	inodeTableLo, err := c.uint32(0x8)
	if err != nil {
		return nil, err
	}

	gd := &groupDescriptor{
		blockBitmap: uint64(blockBitmapLo),
		inodeBitmap: uint64(inodeBitmapLo),
		inodeTable:  uint64(inodeTableLo),
	}

	if is64Bit && len(b) >= 0x2c {
		hi, err := c.uint32(0x20)
		if err != nil {
			return nil, err
		}
		gd.blockBitmap |= uint64(hi) << 32

		hi, err = c.uint32(0x24)
		if err != nil {
			return nil, err
		}
		gd.inodeBitmap |= uint64(hi) << 32

		hi, err = c.uint32(0x28)
		if err != nil {
			return nil, err
		}
		gd.inodeTable |= uint64(hi) << 32
	}

	if gd.inodeTable == 0 {
		return nil, fmt.Errorf("group descriptor has inode_table == 0: %w", ErrMalformed)
	}

	return gd, nil
}
