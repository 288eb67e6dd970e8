package ext

import "fmt"

// pointerFrame is one pending level of the indirect block-pointer tree:
// a list of u32 pointers still to be consumed, and how many more levels
// of indirection remain before a pointer denotes a leaf data block.
//
// level 0 means the pointers in this frame ARE data block numbers.
// level N>0 means each pointer addresses a block holding more pointers,
// one level shallower.
type pointerFrame struct {
	pointers []uint32
	index    int
	level    int
}

// BlockStream lazily yields an inode's data blocks in file-logical order.
// It holds at most one pending frame per pointer-tree depth (direct,
// singly, doubly, triply indirect — four at most), so memory is bounded by
// tree depth rather than file size. Use like bufio.Scanner: call Next()
// until it returns false, then check Err(); Bytes() returns the current
// block between calls to Next().
type BlockStream struct {
	device *blockDevice

	inline    bool
	inlineBuf []byte
	done      bool

	stack []*pointerFrame

	current []byte
	err     error
}

// newBlockStream dispatches on the inode's flags: inline data yields the
// block area verbatim as a single buffer; extents are refused outright;
// otherwise the classic direct/indirect pointer tree is set up for lazy
// traversal.
func newBlockStream(device *blockDevice, in *Inode) (*BlockStream, error) {
	if in.hasInlineData() {
		buf := make([]byte, blockAreaSize)
		copy(buf, in.BlockArea[:])
		return &BlockStream{device: device, inline: true, inlineBuf: buf}, nil
	}

	if in.hasExtents() {
		return nil, fmt.Errorf("inode uses extent-based block addressing: %w", ErrUnsupported)
	}

	c := newByteCursor(in.BlockArea[:])
	direct := make([]uint32, 12)
	for i := 0; i < 12; i++ {
		v, err := c.uint32(i * 4)
		if err != nil {
			return nil, err
		}
		direct[i] = v
	}
	singly, err := c.uint32(48)
	if err != nil {
		return nil, err
	}
	doubly, err := c.uint32(52)
	if err != nil {
		return nil, err
	}
	triply, err := c.uint32(56)
	if err != nil {
		return nil, err
	}

	// Push in reverse processing order: the stack top is consumed
	// first, and direct pointers must be yielded before singly before
	// doubly before triply.
	stack := []*pointerFrame{
		{pointers: []uint32{triply}, level: 3},
		{pointers: []uint32{doubly}, level: 2},
		{pointers: []uint32{singly}, level: 1},
		{pointers: direct, level: 0},
	}

	return &BlockStream{device: device, stack: stack}, nil
}

// Next advances to the next data block, returning false when the sequence
// is exhausted or an error occurred (distinguish the two with Err()).
func (s *BlockStream) Next() bool {
	if s.err != nil {
		return false
	}

	if s.inline {
		if s.done {
			return false
		}
		s.current = s.inlineBuf
		s.done = true
		return true
	}

	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if top.index >= len(top.pointers) {
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}

		ptr := top.pointers[top.index]
		top.index++

		if ptr == 0 {
			// Sparse region: skip silently without descent.
			continue
		}

		if top.level == 0 {
			block, err := s.device.block(uint64(ptr))
			if err != nil {
				s.err = err
				return false
			}
			s.current = block
			return true
		}

		entries, err := s.readPointerBlock(ptr)
		if err != nil {
			s.err = err
			return false
		}
		s.stack = append(s.stack, &pointerFrame{pointers: entries, level: top.level - 1})
	}

	return false
}

// readPointerBlock reads a block and interprets it as block_size/4 u32
// pointer entries.
func (s *BlockStream) readPointerBlock(blockID uint32) ([]uint32, error) {
	block, err := s.device.block(uint64(blockID))
	if err != nil {
		return nil, err
	}
	c := newByteCursor(block)
	count := len(block) / 4
	entries := make([]uint32, count)
	for i := 0; i < count; i++ {
		v, err := c.uint32(i * 4)
		if err != nil {
			return nil, err
		}
		entries[i] = v
	}
	return entries, nil
}

// Bytes returns the block most recently yielded by Next.
func (s *BlockStream) Bytes() []byte {
	return s.current
}

// Err returns the error, if any, that stopped iteration.
func (s *BlockStream) Err() error {
	return s.err
}
