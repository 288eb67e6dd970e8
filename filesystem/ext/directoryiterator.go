package ext

import (
	"fmt"
	"unicode/utf8"
)

// Directory entry file-type tags, distinct from an inode's mode bits.
const (
	FileTypeUnknown  = 0
	FileTypeRegular  = 1
	FileTypeDir      = 2
	FileTypeCharDev  = 3
	FileTypeBlockDev = 4
	FileTypeFIFO     = 5
	FileTypeSocket   = 6
	FileTypeSymlink  = 7
)

// DirEntry is one decoded directory record.
type DirEntry struct {
	InodeID  uint32
	FileType uint8
	Name     string
}

// DirectoryIterator lazily decodes variable-length directory records from
// the blocks of a directory inode. Use like BlockStream: call Next() until
// it returns false, check Err(), read the current entry with Entry().
type DirectoryIterator struct {
	stream *BlockStream

	block  []byte
	offset int

	current DirEntry
	err     error
}

func newDirectoryIterator(stream *BlockStream) *DirectoryIterator {
	return &DirectoryIterator{stream: stream}
}

// Next advances to the next directory entry, skipping slots whose
// inode_id is 0 (deleted or never-used records). Returns false at the end
// of the directory or on error; distinguish the two with Err().
func (it *DirectoryIterator) Next() bool {
	if it.err != nil {
		return false
	}

	for {
		if it.block == nil || it.offset >= len(it.block) {
			if !it.stream.Next() {
				it.err = it.stream.Err()
				return false
			}
			it.block = it.stream.Bytes()
			it.offset = 0
		}

		c := newByteCursor(it.block)

		inodeID, err := c.uint32(it.offset)
		if err != nil {
			it.err = err
			return false
		}
		recordSize, err := c.uint16(it.offset + 4)
		if err != nil {
			it.err = err
			return false
		}
		if recordSize < 8 || recordSize%4 != 0 {
			it.err = fmt.Errorf("directory record_size %d at offset %d is invalid: %w", recordSize, it.offset, ErrMalformed)
			return false
		}
		if it.offset+int(recordSize) > len(it.block) {
			it.err = fmt.Errorf("directory record at offset %d (size %d) extends beyond block of %d bytes: %w", it.offset, recordSize, len(it.block), ErrMalformed)
			return false
		}

		if inodeID == 0 {
			it.offset += int(recordSize)
			continue
		}

		nameLenB, err := c.slice(it.offset+6, 1)
		if err != nil {
			it.err = err
			return false
		}
		nameLen := nameLenB[0]

		fileTypeB, err := c.slice(it.offset+7, 1)
		if err != nil {
			it.err = err
			return false
		}
		fileType := fileTypeB[0]

		if int(nameLen)+8 > int(recordSize) {
			it.err = fmt.Errorf("directory entry name_length %d does not fit record_size %d: %w", nameLen, recordSize, ErrMalformed)
			return false
		}

		nameBytes, err := c.slice(it.offset+8, int(nameLen))
		if err != nil {
			it.err = err
			return false
		}
		if !utf8.Valid(nameBytes) {
			it.err = fmt.Errorf("directory entry name at offset %d is not valid UTF-8: %w", it.offset, ErrMalformed)
			return false
		}

		it.current = DirEntry{
			InodeID:  inodeID,
			FileType: fileType,
			Name:     string(nameBytes),
		}
		it.offset += int(recordSize)
		return true
	}
}

// Entry returns the directory entry most recently yielded by Next.
func (it *DirectoryIterator) Entry() DirEntry {
	return it.current
}

// Err returns the error, if any, that stopped iteration.
func (it *DirectoryIterator) Err() error {
	return it.err
}
