package ext

import (
	"fmt"
	"time"
)

const (
	modeTypeMask    = 0xF000
	modeTypeFIFO    = 0x1000
	modeTypeChar    = 0x2000
	modeTypeDir     = 0x4000
	modeTypeBlock   = 0x6000
	modeTypeRegular = 0x8000
	modeTypeSymlink = 0xA000
	modeTypeSocket  = 0xC000

	inodeFlagInlineData = 0x10000000
	inodeFlagExtents    = 0x00080000

	blockAreaSize = 60
)

// Inode is a decoded inode record. The 60-byte block pointer area is kept
// verbatim for interpretation by BlockStream, which knows how to read it
// under each of the three dispatch rules (inline data, extents, classic
// indirect tree).
type Inode struct {
	Mode  uint16
	UID   uint16
	GID   uint16
	Size  uint32
	Flags uint32

	LinkCount  uint16
	ModifyTime time.Time

	BlockArea [blockAreaSize]byte
}

// inodeFromBytes decodes an Inode from a fixed-size buffer of exactly
// inodeSize bytes, as found at index*inodeSize within the owning block
// group's inode table.
func inodeFromBytes(b []byte) (*Inode, error) {
	if len(b) < 0x64 {
		return nil, fmt.Errorf("inode buffer is %d bytes, need at least %d: %w", len(b), 0x64, ErrMalformed)
	}
	c := newByteCursor(b)

	mode, err := c.uint16(0x0)
	if err != nil {
		return nil, err
	}
	uid, err := c.uint16(0x2)
	if err != nil {
		return nil, err
	}
	size, err := c.uint32(0x4)
	if err != nil {
		return nil, err
	}
	mtime, err := c.uint32(0x10)
	if err != nil {
		return nil, err
	}
	gid, err := c.uint16(0x18)
	if err != nil {
		return nil, err
	}
	linksCount, err := c.uint16(0x1a)
	if err != nil {
		return nil, err
	}
	flags, err := c.uint32(0x20)
	if err != nil {
		return nil, err
	}
	blockArea, err := c.slice(0x28, blockAreaSize)
	if err != nil {
		return nil, err
	}

	in := &Inode{
		Mode:       mode,
		UID:        uid,
		GID:        gid,
		Size:       size,
		Flags:      flags,
		LinkCount:  linksCount,
		ModifyTime: time.Unix(int64(int32(mtime)), 0),
	}
	copy(in.BlockArea[:], blockArea)

	return in, nil
}

func (in *Inode) modeType() uint16 {
	return in.Mode & modeTypeMask
}

func (in *Inode) IsFIFO() bool        { return in.modeType() == modeTypeFIFO }
func (in *Inode) IsCharDevice() bool  { return in.modeType() == modeTypeChar }
func (in *Inode) IsDirectory() bool   { return in.modeType() == modeTypeDir }
func (in *Inode) IsBlockDevice() bool { return in.modeType() == modeTypeBlock }
func (in *Inode) IsRegular() bool     { return in.modeType() == modeTypeRegular }
func (in *Inode) IsSymlink() bool     { return in.modeType() == modeTypeSymlink }
func (in *Inode) IsSocket() bool      { return in.modeType() == modeTypeSocket }

func (in *Inode) hasInlineData() bool { return in.Flags&inodeFlagInlineData != 0 }
func (in *Inode) hasExtents() bool    { return in.Flags&inodeFlagExtents != 0 }
