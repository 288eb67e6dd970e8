package backend_test

import (
	"errors"
	"io"
	"testing"

	"github.com/extfs-go/extfs/backend"
	"github.com/extfs-go/extfs/testhelper"
)

func subFixture() backend.Storage {
	base := []byte("0123456789abcdef")
	s := &testhelper.FileImpl{
		Reader: func(b []byte, offset int64) (int, error) {
			return copy(b, base[offset:]), nil
		},
	}
	// Window "456789ab".
	return backend.Sub(s, 4, 8)
}

func TestSubStorageShiftsReads(t *testing.T) {
	sub := subFixture()

	buf := make([]byte, 4)
	n, err := sub.ReadAt(buf, 2)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 4 || string(buf) != "6789" {
		t.Errorf("ReadAt(2) = %q (n=%d), want %q", buf[:n], n, "6789")
	}
}

func TestSubStorageClampsToWindow(t *testing.T) {
	sub := subFixture()

	buf := make([]byte, 8)
	n, err := sub.ReadAt(buf, 6)
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt straddling window end: err = %v, want io.EOF", err)
	}
	if n != 2 || string(buf[:n]) != "ab" {
		t.Errorf("ReadAt(6) = %q (n=%d), want %q", buf[:n], n, "ab")
	}

	if _, err := sub.ReadAt(buf, 8); !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt at window end: err = %v, want io.EOF", err)
	}
	if _, err := sub.ReadAt(buf, -1); !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt before window start: err = %v, want io.EOF", err)
	}
}
