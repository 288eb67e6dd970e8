//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package file

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/extfs-go/extfs/backend"
)

// blkgetsize64 is BLKGETSIZE64 from linux/fs.h: returns the size of a block
// device in bytes. Regular files don't support it; callers fall back to
// Stat().Size() in that case.
const blkgetsize64 = 0x80081272

// DeviceSize returns the size in bytes of the storage backing s. For a
// block device this asks the kernel directly via ioctl, since a device's
// stat size is frequently reported as zero. For a regular file it falls
// back to the filesystem's view of the size.
func DeviceSize(s backend.Storage) (int64, error) {
	info, err := s.Stat()
	if err != nil {
		return 0, err
	}

	if info.Mode()&os.ModeDevice == 0 {
		return info.Size(), nil
	}

	osFile, err := s.Sys()
	if err != nil {
		return 0, err
	}

	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, osFile.Fd(), blkgetsize64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, fmt.Errorf("BLKGETSIZE64 ioctl failed: %w", errno)
	}

	return int64(size), nil
}
