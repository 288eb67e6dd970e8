// Package ext implements a read-only decoder for the on-disk layout of an
// ext2/ext3/ext4 volume: superblock, block-group descriptors, inodes, the
// classic direct/indirect block-pointer tree, directory records, and path
// resolution by linear directory search. It never writes to the backing
// storage, never caches, and is not safe for concurrent use against a
// single FileSystem: each block read advances no shared cursor of its own,
// but an iterator returned by Blocks or Files must not be advanced from
// more than one goroutine at a time.
package ext

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/extfs-go/extfs/backend"
)

const rootInode uint32 = 2

// NotFound is the sentinel Find returns, distinct from an error, when a
// path does not resolve to any inode. Inode id 0 is never valid on-disk,
// so it is safe to reuse as the not-found marker.
const NotFound uint32 = 0

// FileSystem is the public facade binding a parsed Superblock to a
// BlockDevice: lookup, blocks, files, and find are all on-demand reads
// against the underlying storage, no part of the volume is cached.
type FileSystem struct {
	device *blockDevice
	sb     *Superblock
	log    *logrus.Logger
}

// Option configures FileSystem construction.
type Option func(*FileSystem)

// WithLogger attaches a logger for Debug-level diagnostics. Diagnostics
// never affect control flow; a FileSystem opened without this option logs
// nowhere.
func WithLogger(l *logrus.Logger) Option {
	return func(fs *FileSystem) {
		if l != nil {
			fs.log = l
		}
	}
}

// Open parses storage's superblock and returns a FileSystem ready for
// lookup/blocks/files/find. The superblock lives at bytes [1024, 2048) of
// storage regardless of the volume's block size, so this is the only read
// Open itself performs; all group and inode reads happen on demand.
func Open(storage backend.Storage, opts ...Option) (*FileSystem, error) {
	buf := make([]byte, superblockSize)
	n, err := storage.ReadAt(buf, superblockOffset)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w: %v", ErrIO, err)
	}
	if n != len(buf) {
		return nil, fmt.Errorf("reading superblock: short read of %d of %d bytes: %w", n, len(buf), ErrIO)
	}

	sb, err := superblockFromBytes(buf)
	if err != nil {
		return nil, err
	}

	fs := &FileSystem{
		device: newBlockDevice(storage, sb.BlockSize),
		sb:     sb,
		log:    discardLogger,
	}
	for _, opt := range opts {
		opt(fs)
	}

	fs.log.WithFields(logrus.Fields{
		"block_size":             sb.BlockSize,
		"total_inodes":           sb.TotalInodes,
		"total_blocks":           sb.TotalBlocks,
		"group_count":            sb.groupCount(),
		"feature_incompat_64bit": sb.is64Bit,
	}).Debug("opened ext filesystem")

	return fs, nil
}

// OpenAt is Open for a volume that does not start at byte 0 of its
// backing source, as when the filesystem is one partition of a larger
// disk image or device: every read is windowed to [offset, offset+size)
// of storage.
func OpenAt(storage backend.Storage, offset, size int64, opts ...Option) (*FileSystem, error) {
	return Open(backend.Sub(storage, offset, size), opts...)
}

// Superblock returns the volume header parsed at Open.
func (fs *FileSystem) Superblock() *Superblock {
	return fs.sb
}

// groupDescriptor locates the inode table (and bitmaps) for a block group.
func (fs *FileSystem) groupDescriptor(groupID uint64) (*groupDescriptor, error) {
	if groupID > fs.sb.groupCount() {
		return nil, fmt.Errorf("block group %d exceeds derived group count %d: %w", groupID, fs.sb.groupCount(), ErrInvalidID)
	}

	off := fs.sb.groupDescriptorOffset() + int64(groupID)*int64(fs.sb.GroupDescriptorSize)
	buf := make([]byte, fs.sb.GroupDescriptorSize)
	if err := fs.device.readAt(buf, off); err != nil {
		return nil, err
	}
	return groupDescriptorFromBytes(buf, fs.sb.is64Bit)
}

// Lookup decodes the inode record identified by id. Valid ids range over
// [1, total_inodes]; anything else fails with ErrInvalidID.
func (fs *FileSystem) Lookup(id uint32) (*Inode, error) {
	if id == 0 || uint64(id) > uint64(fs.sb.TotalInodes) {
		return nil, fmt.Errorf("inode id %d out of range [1, %d]: %w", id, fs.sb.TotalInodes, ErrInvalidID)
	}

	groupID := uint64(id-1) / uint64(fs.sb.InodesPerGroup)
	index := uint64(id-1) % uint64(fs.sb.InodesPerGroup)

	gd, err := fs.groupDescriptor(groupID)
	if err != nil {
		return nil, err
	}

	off := int64(gd.inodeTable)*int64(fs.sb.BlockSize) + int64(index)*int64(fs.sb.InodeSize)
	buf := make([]byte, fs.sb.InodeSize)
	if err := fs.device.readAt(buf, off); err != nil {
		return nil, err
	}

	in, err := inodeFromBytes(buf)
	if err != nil {
		return nil, err
	}

	fs.log.WithFields(logrus.Fields{"inode": id, "group": groupID, "index": index}).Debug("decoded inode")
	if in.hasExtents() {
		fs.log.WithField("inode", id).Debug("inode uses extents, unsupported for block traversal")
	}

	return in, nil
}

// Blocks returns a lazy stream over in's data blocks. See BlockStream for
// the inline-data/extents/classic-indirect dispatch.
func (fs *FileSystem) Blocks(in *Inode) (*BlockStream, error) {
	return newBlockStream(fs.device, in)
}

// Files enumerates the directory entries of the directory inode id. Fails
// with ErrNotADirectory if id does not name a directory, and with
// ErrInvalidID under the same conditions as Lookup.
func (fs *FileSystem) Files(id uint32) (*DirectoryIterator, error) {
	in, err := fs.Lookup(id)
	if err != nil {
		return nil, err
	}
	if !in.IsDirectory() {
		return nil, fmt.Errorf("inode %d is not a directory: %w", id, ErrNotADirectory)
	}

	stream, err := fs.Blocks(in)
	if err != nil {
		return nil, err
	}
	return newDirectoryIterator(stream), nil
}

// Find resolves an absolute or root-relative slash-separated path to an
// inode id, walking directory entries from the root (inode 2). A
// leading "/" is optional; empty components from leading, trailing, or
// doubled slashes are skipped. It does not follow symlinks and does not
// itself check that intermediate components are directories: Files
// naturally fails with ErrNotADirectory if a non-directory is
// encountered mid-path, and that error propagates.
//
// A path with no matching component returns (NotFound, nil): nonexistence
// is not an error. Errors encountered while walking (malformed directory
// data, I/O failure, a non-directory component) propagate as the second
// return value.
func (fs *FileSystem) Find(path string) (uint32, error) {
	current := rootInode

	trimmed := strings.TrimPrefix(path, "/")
	for _, component := range strings.Split(trimmed, "/") {
		if component == "" {
			continue
		}

		it, err := fs.Files(current)
		if err != nil {
			return NotFound, err
		}

		found := false
		for it.Next() {
			entry := it.Entry()
			if entry.Name == component {
				current = entry.InodeID
				found = true
				break
			}
		}
		if err := it.Err(); err != nil {
			return NotFound, err
		}
		if !found {
			return NotFound, nil
		}
	}

	return current, nil
}

// ReadFile composes Find and Blocks into a single convenience read,
// trimming the final buffer to the inode's recorded size. The last block
// yielded by Blocks may extend past the file's true length, so the trim
// is what turns a block sequence into file content.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	id, err := fs.Find(path)
	if err != nil {
		return nil, err
	}
	if id == NotFound {
		return nil, fmt.Errorf("path %q does not resolve to any inode: %w", path, ErrInvalidID)
	}

	in, err := fs.Lookup(id)
	if err != nil {
		return nil, err
	}

	stream, err := fs.Blocks(in)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, in.Size)
	for stream.Next() {
		buf = append(buf, stream.Bytes()...)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	if uint32(len(buf)) > in.Size {
		buf = buf[:in.Size]
	}
	return buf, nil
}
