package backend

import (
	"io"
	"io/fs"
	"os"
)

// SubStorage presents the byte range [offset, offset+size) of an
// underlying Storage as a Storage of its own. A volume rarely starts at
// byte 0 of a real disk: partition tables put it at a known offset, and
// windowing here keeps that offset out of every decoder call site.
// Only ReadAt and Seek are windowed: Read reads from the underlying
// cursor without clamping at the window's end, and Stat, Close and Sys
// pass straight through to the underlying Storage.
type SubStorage struct {
	underlying Storage
	offset     int64
	size       int64
}

// Sub windows u down to [offset, offset+size).
func Sub(u Storage, offset, size int64) Storage {
	return SubStorage{
		underlying: u,
		offset:     offset,
		size:       size,
	}
}

func (s SubStorage) Stat() (fs.FileInfo, error) {
	return s.underlying.Stat()
}

func (s SubStorage) Read(b []byte) (int, error) {
	return s.underlying.Read(b)
}

func (s SubStorage) Close() error {
	return s.underlying.Close()
}

// ReadAt reads at off within the window. A read starting at or past the
// window's end returns io.EOF; one straddling the end is truncated to the
// window and returns the short count with io.EOF, per the io.ReaderAt
// contract.
func (s SubStorage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.size {
		return 0, io.EOF
	}
	var truncated bool
	if remaining := s.size - off; int64(len(p)) > remaining {
		p, truncated = p[:remaining], true
	}
	n, err := s.underlying.ReadAt(p, s.offset+off)
	if err == nil && truncated {
		err = io.EOF
	}
	return n, err
}

func (s SubStorage) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		cur, err := s.underlying.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1, err
		}
		abs = cur - s.offset + offset
	case io.SeekEnd:
		abs = s.size + offset
	default:
		return -1, ErrNotSuitable
	}

	pos, err := s.underlying.Seek(s.offset+abs, io.SeekStart)
	if err != nil {
		return -1, err
	}
	return pos - s.offset, nil
}

func (s SubStorage) Sys() (*os.File, error) {
	return s.underlying.Sys()
}
