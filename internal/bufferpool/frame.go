package bufferpool

import "github.com/htdao/slotdb/internal/latch"

// NoPage is the sentinel PageId meaning "this frame holds no page".
const NoPage = -1

// loadingPage marks a frame that has been claimed for an in-flight disk
// load: reserved so no other pin can pick it as a free slot or a victim,
// but not yet a valid resident page.
const loadingPage = -2

// Frame is one entry of the buffer pool.
type Frame struct {
	PageID   int
	Memory   []byte
	Dirty    bool
	FixCount int
	LRUOrder uint64
	Latch    latch.RW
}

func (f *Frame) evictable() bool {
	return f.PageID != NoPage && f.PageID != loadingPage && f.FixCount == 0
}
