// Package latch provides the per-frame read/write lock used by the
// buffer pool to guard a frame's memory buffer during disk I/O. It is
// distinct from any transactional lock: it protects memory safety of
// one frame's bytes, not cross-transaction isolation.
package latch

import "sync"

// RW is a read-write latch. The zero value is ready to use.
type RW struct {
	mu sync.RWMutex
}

func (l *RW) RLock()   { l.mu.RLock() }
func (l *RW) RUnlock() { l.mu.RUnlock() }
func (l *RW) Lock()    { l.mu.Lock() }
func (l *RW) Unlock()  { l.mu.Unlock() }
