//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)
// +build !aix,!darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

package file

import "github.com/extfs-go/extfs/backend"

// DeviceSize falls back to the filesystem's reported size on platforms
// without a BLKGETSIZE64 ioctl. Block devices aren't addressable by path on
// these platforms in any case.
func DeviceSize(s backend.Storage) (int64, error) {
	info, err := s.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
