package ext

import "errors"

// The five error kinds every operation in this package can fail with. Call
// sites wrap one of these with fmt.Errorf("...: %w", ErrX) so callers use
// errors.Is against the sentinel rather than string-matching messages.
var (
	// ErrMalformed means the on-disk bytes violate the format: bad
	// superblock signature, a directory record_size that is too small or
	// misaligned, a non-UTF-8 name.
	ErrMalformed = errors.New("extfs: malformed on-disk structure")

	// ErrUnsupported means the bytes are well-formed but use a feature
	// this reader does not implement: a block-size exponent beyond 6, or
	// an inode with the EXTENTS flag set.
	ErrUnsupported = errors.New("extfs: unsupported feature")

	// ErrInvalidID means a caller-supplied identifier is out of range:
	// inode id 0 or beyond total_inodes, or a group id beyond the
	// derived group count.
	ErrInvalidID = errors.New("extfs: invalid identifier")

	// ErrNotADirectory means the caller asked to enumerate entries of an
	// inode that is not a directory.
	ErrNotADirectory = errors.New("extfs: not a directory")

	// ErrIO means the underlying byte source failed: a short read or a
	// read error from the backing device.
	ErrIO = errors.New("extfs: device read failed")
)
