package ext

import (
	"fmt"

	"github.com/extfs-go/extfs/backend"
)

// blockDevice is a positioned reader over the volume's backing byte source,
// addressed both by absolute byte offset and by block id. Block id 0 never
// appears as a data pointer in the classic format (it means "hole") and
// callers must not call block(0).
type blockDevice struct {
	storage   backend.Storage
	blockSize uint32
}

func newBlockDevice(storage backend.Storage, blockSize uint32) *blockDevice {
	return &blockDevice{storage: storage, blockSize: blockSize}
}

// readAt reads exactly len(buf) bytes at absolute byte offset off.
func (d *blockDevice) readAt(buf []byte, off int64) error {
	n, err := d.storage.ReadAt(buf, off)
	if err != nil {
		return fmt.Errorf("read %d bytes at offset %d: %w: %v", len(buf), off, ErrIO, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short read at offset %d: got %d of %d bytes: %w", off, n, len(buf), ErrIO)
	}
	return nil
}

// block reads exactly blockSize bytes at blockID*blockSize.
func (d *blockDevice) block(blockID uint64) ([]byte, error) {
	buf := make([]byte, d.blockSize)
	off := int64(blockID) * int64(d.blockSize)
	if err := d.readAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}
