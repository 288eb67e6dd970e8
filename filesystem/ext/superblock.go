package ext

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	superblockOffset    = 1024
	superblockSize      = 1024
	superblockSignature = 0xEF53

	// feature_incompat bit for 64-bit group descriptors (INCOMPAT_64BIT).
	featureIncompat64Bit = 0x80
)

// Superblock is the parsed volume header. It is a value snapshot: decoding
// it twice from an unchanging device yields structurally equal results.
type Superblock struct {
	BlockSize      uint32
	TotalBlocks    uint64
	TotalInodes    uint32
	ReservedBlocks uint64
	FreeBlocks     uint64
	FreeInodes     uint32
	FirstDataBlock uint32
	BlocksPerGroup uint32
	InodesPerGroup uint32

	State         uint16
	Errors        uint16
	MinorRevision uint16
	CreatorOS     uint32
	Revision      uint32

	FirstIno  uint32
	InodeSize uint16

	FeatureCompat   uint32
	FeatureIncompat uint32
	FeatureRoCompat uint32

	UUID       uuid.UUID
	VolumeName string

	GroupDescriptorSize uint16

	is64Bit bool
}

// superblockFromBytes decodes a Superblock from the 1024-byte buffer found
// at bytes [1024, 2048) of the device, regardless of block size.
func superblockFromBytes(b []byte) (*Superblock, error) {
	if len(b) != superblockSize {
		return nil, fmt.Errorf("superblock buffer is %d bytes, need %d: %w", len(b), superblockSize, ErrMalformed)
	}
	c := newByteCursor(b)

	signature, err := c.uint16(0x38)
	if err != nil {
		return nil, err
	}
	if signature != superblockSignature {
		return nil, fmt.Errorf("bad superblock signature %#x, want %#x: %w", signature, superblockSignature, ErrMalformed)
	}

	sb := &Superblock{}

	logBlockSize, err := c.uint32(0x18)
	if err != nil {
		return nil, err
	}
	if logBlockSize > 6 {
		return nil, fmt.Errorf("block size exponent %d exceeds maximum of 6: %w", logBlockSize, ErrUnsupported)
	}
	sb.BlockSize = 1024 << logBlockSize

	sb.TotalInodes, err = c.uint32(0x0)
	if err != nil {
		return nil, err
	}

	totalBlocksLo, err := c.uint32(0x4)
	if err != nil {
		return nil, err
	}
	reservedLo, err := c.uint32(0x8)
	if err != nil {
		return nil, err
	}
	freeBlocksLo, err := c.uint32(0xc)
	if err != nil {
		return nil, err
	}

	sb.FreeInodes, err = c.uint32(0x10)
	if err != nil {
		return nil, err
	}
	sb.FirstDataBlock, err = c.uint32(0x14)
	if err != nil {
		return nil, err
	}
	sb.BlocksPerGroup, err = c.uint32(0x20)
	if err != nil {
		return nil, err
	}
	sb.InodesPerGroup, err = c.uint32(0x28)
	if err != nil {
		return nil, err
	}

	state, err := c.uint16(0x3a)
	if err != nil {
		return nil, err
	}
	sb.State = state
	errs, err := c.uint16(0x3c)
	if err != nil {
		return nil, err
	}
	sb.Errors = errs
	sb.MinorRevision, err = c.uint16(0x3e)
	if err != nil {
		return nil, err
	}

	creatorOS, err := c.uint32(0x48)
	if err != nil {
		return nil, err
	}
	sb.CreatorOS = creatorOS
	sb.Revision, err = c.uint32(0x4c)
	if err != nil {
		return nil, err
	}

	sb.FirstIno = 11
	sb.InodeSize = 128
	if sb.Revision >= 1 {
		sb.FirstIno, err = c.uint32(0x54)
		if err != nil {
			return nil, err
		}
		sb.InodeSize, err = c.uint16(0x58)
		if err != nil {
			return nil, err
		}

		sb.FeatureCompat, err = c.uint32(0x5c)
		if err != nil {
			return nil, err
		}
		sb.FeatureIncompat, err = c.uint32(0x60)
		if err != nil {
			return nil, err
		}
		sb.FeatureRoCompat, err = c.uint32(0x64)
		if err != nil {
			return nil, err
		}
	}

	sb.is64Bit = sb.FeatureIncompat&featureIncompat64Bit != 0

	totalBlocks := uint64(totalBlocksLo)
	reservedBlocks := uint64(reservedLo)
	freeBlocks := uint64(freeBlocksLo)
	if sb.Revision >= 1 && sb.is64Bit {
		hi, err := c.uint32(0x150)
		if err != nil {
			return nil, err
		}
		totalBlocks |= uint64(hi) << 32

		hi, err = c.uint32(0x154)
		if err != nil {
			return nil, err
		}
		reservedBlocks |= uint64(hi) << 32

		hi, err = c.uint32(0x158)
		if err != nil {
			return nil, err
		}
		freeBlocks |= uint64(hi) << 32
	}
	sb.TotalBlocks = totalBlocks
	sb.ReservedBlocks = reservedBlocks
	sb.FreeBlocks = freeBlocks

	uuidBytes, err := c.slice(0x68, 16)
	if err != nil {
		return nil, err
	}
	volUUID, err := uuid.FromBytes(uuidBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding volume uuid: %w: %v", ErrMalformed, err)
	}
	sb.UUID = volUUID

	nameBytes, err := c.slice(0x78, 16)
	if err != nil {
		return nil, err
	}
	sb.VolumeName = strings.TrimRight(string(nameBytes), "\x00")

	sb.GroupDescriptorSize = 32
	if sb.is64Bit {
		gdSize, err := c.uint16(0xfe)
		if err != nil {
			return nil, err
		}
		if gdSize != 0 {
			sb.GroupDescriptorSize = gdSize
		}
	}

	switch sb.BlockSize {
	case 1024, 2048, 4096, 8192, 16384, 32768, 65536:
	default:
		return nil, fmt.Errorf("block size %d is not a supported power of two: %w", sb.BlockSize, ErrUnsupported)
	}
	if sb.BlocksPerGroup == 0 || sb.InodesPerGroup == 0 {
		return nil, fmt.Errorf("blocks_per_group and inodes_per_group must be nonzero: %w", ErrMalformed)
	}
	if sb.InodeSize < 128 {
		return nil, fmt.Errorf("inode size %d is below the minimum of 128: %w", sb.InodeSize, ErrMalformed)
	}
	if sb.BlockSize%uint32(sb.InodeSize) != 0 {
		return nil, fmt.Errorf("inode size %d does not evenly divide block size %d: %w", sb.InodeSize, sb.BlockSize, ErrMalformed)
	}

	return sb, nil
}

// groupDescriptorOffset is the byte offset of the block group descriptor
// table: the block immediately following the superblock's own block.
func (sb *Superblock) groupDescriptorOffset() int64 {
	return (int64(sb.FirstDataBlock) + 1) * int64(sb.BlockSize)
}

// groupCount is the number of block groups the volume is divided into.
func (sb *Superblock) groupCount() uint64 {
	count := sb.TotalBlocks / uint64(sb.BlocksPerGroup)
	if sb.TotalBlocks%uint64(sb.BlocksPerGroup) != 0 {
		count++
	}
	return count
}
