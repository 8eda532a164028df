package bufferpool

import "github.com/htdao/slotdb/pkg/clockx"

// clockReplacer adapts the standalone pkg/clockx second-chance clock
// into a Replacer. It is the one strategy that needs pin/unpin
// notifications directly: its reference bit is set on every access and
// only cleared on a sweep, rather than derived from the shared
// lru_order/read counters FIFO and LRU read. Offered alongside
// FIFO/LRU/LRU-K as a fourth strategy.
type clockReplacer struct {
	c *clockx.Clock
}

func newClockReplacer(capacity int) *clockReplacer {
	return &clockReplacer{c: clockx.New(capacity)}
}

func (s *clockReplacer) PickVictim(bp *BufferPool) (int, bool) {
	return s.c.Evict()
}

func (s *clockReplacer) OnPin(frameIdx int) {
	s.c.Touch(frameIdx)
	s.c.SetEvictable(frameIdx, false)
}

func (s *clockReplacer) OnUnpin(frameIdx int, stillPinned bool) {
	if !stillPinned {
		s.c.SetEvictable(frameIdx, true)
	}
}
