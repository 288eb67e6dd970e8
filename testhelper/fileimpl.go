// Package testhelper provides stand-ins for backend.Storage used across
// this module's tests, so decoders can be exercised against synthetic byte
// buffers without touching the filesystem.
package testhelper

import (
	"fmt"
	"os"

	"github.com/extfs-go/extfs/backend"
)

type reader func(b []byte, offset int64) (int, error)

// FileImpl implements backend.Storage over a stubbed reader function, to
// let tests serve arbitrary byte layouts without a real disk image.
type FileImpl struct {
	Reader reader
}

var _ backend.Storage = (*FileImpl)(nil)

func (f *FileImpl) Stat() (os.FileInfo, error) {
	return nil, nil
}

func (f *FileImpl) Read(b []byte) (int, error) {
	return f.Reader(b, 0)
}

func (f *FileImpl) Close() error {
	return nil
}

// ReadAt reads at a particular offset.
func (f *FileImpl) ReadAt(b []byte, offset int64) (int, error) {
	return f.Reader(b, offset)
}

// Seek does not actually work; this helper is only exercised via ReadAt.
//
//nolint:unused,revive // to implement the interface
func (f *FileImpl) Seek(offset int64, whence int) (int64, error) {
	return 0, fmt.Errorf("FileImpl does not implement Seek()")
}

func (f *FileImpl) Sys() (*os.File, error) {
	return nil, backend.ErrNotSuitable
}
