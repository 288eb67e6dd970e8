package ext

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/extfs-go/extfs/testhelper"
)

// failingStorage is a backend.Storage whose ReadAt always fails, for
// exercising the ErrIO propagation path without a real device.
type failingStorage struct {
	testhelper.FileImpl
}

func (failingStorage) ReadAt(_ []byte, _ int64) (int, error) {
	return 0, errors.New("simulated device failure")
}

// testImage is an in-memory byte buffer standing in for a disk image,
// served to the package under test via testhelper.FileImpl. Tests build one
// with newTestImage and then poke individual blocks/bytes into place
// directly, mirroring how the real on-disk layout would look, since no
// mke2fs/debugfs tooling runs in this environment.
type testImage struct {
	blockSize uint32
	buf       []byte
}

func newTestImage(blockSize uint32, totalBlocks uint64) *testImage {
	return &testImage{
		blockSize: blockSize,
		buf:       make([]byte, blockSize*uint32(totalBlocks)),
	}
}

func (ti *testImage) storage() *testhelper.FileImpl {
	return &testhelper.FileImpl{
		Reader: func(b []byte, offset int64) (int, error) {
			return copy(b, ti.buf[offset:]), nil
		},
	}
}

// putBlock writes data at the start of block id blockID, zero-padded/left
// untouched for the remainder of the block.
func (ti *testImage) putBlock(blockID uint64, data []byte) {
	off := blockID * uint64(ti.blockSize)
	copy(ti.buf[off:], data)
}

func (ti *testImage) putBytes(offset int64, data []byte) {
	copy(ti.buf[offset:], data)
}

// testSuperblockParams bundles the fields exercised by the fixtures in this
// package's tests; anything not set here keeps the on-disk zero value,
// which is a legal (if minimal) superblock.
type testSuperblockParams struct {
	blockSize       uint32
	totalBlocks     uint32
	totalInodes     uint32
	blocksPerGroup  uint32
	inodesPerGroup  uint32
	firstDataBlock  uint32
	inodeSize       uint16
	revision        uint32
	featureIncompat uint32
}

// buildSuperblock renders a 1024-byte superblock buffer.
func buildSuperblock(p testSuperblockParams) []byte {
	b := make([]byte, superblockSize)

	var logBlockSize uint32
	for sz := uint32(1024); sz < p.blockSize; sz <<= 1 {
		logBlockSize++
	}

	binary.LittleEndian.PutUint32(b[0x0:], p.totalInodes)
	binary.LittleEndian.PutUint32(b[0x4:], p.totalBlocks)
	binary.LittleEndian.PutUint32(b[0x14:], p.firstDataBlock)
	binary.LittleEndian.PutUint32(b[0x18:], logBlockSize)
	binary.LittleEndian.PutUint32(b[0x20:], p.blocksPerGroup)
	binary.LittleEndian.PutUint32(b[0x28:], p.inodesPerGroup)
	binary.LittleEndian.PutUint16(b[0x38:], superblockSignature)
	binary.LittleEndian.PutUint32(b[0x4c:], p.revision)

	if p.revision >= 1 {
		binary.LittleEndian.PutUint32(b[0x54:], 11)
		inodeSize := p.inodeSize
		if inodeSize == 0 {
			inodeSize = 128
		}
		binary.LittleEndian.PutUint16(b[0x58:], inodeSize)
		binary.LittleEndian.PutUint32(b[0x60:], p.featureIncompat)
	}

	return b
}

func defaultTestSuperblock() testSuperblockParams {
	return testSuperblockParams{
		blockSize:      1024,
		totalBlocks:    200,
		totalInodes:    32,
		blocksPerGroup: 8192,
		inodesPerGroup: 32,
		firstDataBlock: 1,
		inodeSize:      128,
		revision:       1,
	}
}

// buildGroupDescriptor renders a 32-byte classic group descriptor.
func buildGroupDescriptor(blockBitmap, inodeBitmap, inodeTable uint32) []byte {
	b := make([]byte, 32)
	binary.LittleEndian.PutUint32(b[0x0:], blockBitmap)
	binary.LittleEndian.PutUint32(b[0x4:], inodeBitmap)
	binary.LittleEndian.PutUint32(b[0x8:], inodeTable)
	return b
}

type testInodeParams struct {
	mode      uint16
	size      uint32
	flags     uint32
	linkCount uint16
	mtime     uint32
	blockArea [60]byte
}

// buildInode renders an inode record of exactly inodeSize bytes, the
// volume's inode_size. inodeSize must be at least 0x64 to hold the fields
// this package reads (up to block_area, ending at 0x64).
func buildInode(inodeSize uint16, p testInodeParams) []byte {
	b := make([]byte, inodeSize)
	binary.LittleEndian.PutUint16(b[0x0:], p.mode)
	binary.LittleEndian.PutUint32(b[0x4:], p.size)
	binary.LittleEndian.PutUint32(b[0x10:], p.mtime)
	binary.LittleEndian.PutUint16(b[0x1a:], p.linkCount)
	binary.LittleEndian.PutUint32(b[0x20:], p.flags)
	copy(b[0x28:0x28+60], p.blockArea[:])
	return b
}

// buildDirEntry renders one variable-length directory record, padding
// record_size up to a multiple of 4 as a real directory block would (the
// last entry in a block typically absorbs the remaining space, but a fixed
// pad is simpler and still well-formed for these fixtures).
func buildDirEntry(inodeID uint32, fileType uint8, name string) []byte {
	minLen := 8 + len(name)
	recordSize := (minLen + 3) / 4 * 4
	b := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(b[0x0:], inodeID)
	binary.LittleEndian.PutUint16(b[0x4:], uint16(recordSize))
	b[0x6] = byte(len(name))
	b[0x7] = fileType
	copy(b[0x8:], name)
	return b
}

// hexDiff renders only the rows where a and b differ, hex plus ASCII, so
// a failed content comparison points at the mismatching offsets instead
// of dumping both buffers whole. Returns false when the slices are equal.
func hexDiff(a, b []byte, bytesPerRow int) (bool, string) {
	length := len(a)
	if len(b) > length {
		length = len(b)
	}

	var out strings.Builder
	different := false
	for start := 0; start < length; start += bytesPerRow {
		rowA := hexDiffRow(a, start, bytesPerRow)
		rowB := hexDiffRow(b, start, bytesPerRow)
		if bytes.Equal(rowA, rowB) {
			continue
		}
		different = true
		fmt.Fprintf(&out, "%08x got %s\n", start, hexDiffRender(rowA, bytesPerRow))
		fmt.Fprintf(&out, "%08x want%s\n", start, hexDiffRender(rowB, bytesPerRow))
	}
	return different, out.String()
}

func hexDiffRow(b []byte, start, bytesPerRow int) []byte {
	if start >= len(b) {
		return nil
	}
	end := start + bytesPerRow
	if end > len(b) {
		end = len(b)
	}
	return b[start:end]
}

func hexDiffRender(row []byte, bytesPerRow int) string {
	var sb strings.Builder
	for i := 0; i < bytesPerRow; i++ {
		if i < len(row) {
			fmt.Fprintf(&sb, " %02x", row[i])
		} else {
			sb.WriteString("   ")
		}
	}
	sb.WriteString("  ")
	for _, c := range row {
		if c < 32 || c > 126 {
			sb.WriteByte('.')
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// concatDirEntries lays out entries back to back, extending the final
// entry's record_size to consume the rest of blockSize bytes, exactly as a
// real directory block's last record does.
func concatDirEntries(blockSize uint32, entries ...[]byte) []byte {
	block := make([]byte, blockSize)
	offset := 0
	for i, e := range entries {
		if i == len(entries)-1 {
			extra := int(blockSize) - offset - len(e)
			newSize := len(e) + extra
			binary.LittleEndian.PutUint16(e[0x4:], uint16(newSize))
		}
		copy(block[offset:], e)
		if i == len(entries)-1 {
			offset = int(blockSize)
		} else {
			offset += len(e)
		}
	}
	return block
}
