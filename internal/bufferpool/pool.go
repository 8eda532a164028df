// Package bufferpool implements the fixed-capacity page-frame cache at
// the center of this module: per-frame read/write latches, a pin/unpin
// lifecycle, dirty-bit write-back, and pluggable eviction.
package bufferpool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/htdao/slotdb/internal/pagefile"
)

var logDebugPrefix = "bufferpool: "

// PageHandle is the client-facing reference to a pinned frame. It is
// valid only between the PinPage call that produced it and the matching
// UnpinPage.
type PageHandle struct {
	PageNum int
	Data    []byte

	frameIdx int
}

// BufferPool is a fixed-size cache of page frames backed by one page
// file. Every counter and stamp is an owned field, not process-global
// state, so any number of independent pools may coexist in one process.
type BufferPool struct {
	mu   sync.Mutex
	cond *sync.Cond

	file     *pagefile.File
	frames   []*Frame
	strategy Replacer

	strategyKind StrategyKind
	stratParam   int

	lruCounter    uint64
	readFromDisk  uint64
	writtenToDisk uint64

	loading map[int]chan struct{}

	shuttingDown bool
	activeOps    int
	initialized  bool
}

// Init opens path (which must already exist) and allocates capacity
// frames using the given replacement strategy. stratParam is LRUK's k
// for StrategyKind LRUK, ignored otherwise.
func Init(path string, capacity int, kind StrategyKind, stratParam int) (*BufferPool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("bufferpool: capacity must be positive, got %d", capacity)
	}

	f, err := pagefile.Open(path)
	if err != nil {
		if err == pagefile.ErrFileNotFound {
			return nil, fmt.Errorf("%w: %s", ErrFileMissing, path)
		}
		return nil, err
	}

	strategy, err := newReplacer(kind, stratParam, capacity)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	frames := make([]*Frame, capacity)
	for i := range frames {
		frames[i] = &Frame{
			PageID: NoPage,
			Memory: make([]byte, pagefile.PageSize),
		}
	}

	bp := &BufferPool{
		file:         f,
		frames:       frames,
		strategy:     strategy,
		strategyKind: kind,
		stratParam:   stratParam,
		loading:      make(map[int]chan struct{}),
		initialized:  true,
	}
	bp.cond = sync.NewCond(&bp.mu)
	slog.Debug(logDebugPrefix+"initialized", "path", path, "capacity", capacity, "strategy", kind)
	return bp, nil
}

// beginOp registers one tick against the active-operation counter that
// Shutdown waits to drain. For PinPage the tick outlives the call itself
// and is only retired by the matching UnpinPage; every other caller
// retires its own tick via a deferred endOp.
func (bp *BufferPool) beginOp() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if !bp.initialized {
		return ErrNotInitialized
	}
	if bp.shuttingDown {
		return ErrShuttingDown
	}
	bp.activeOps++
	return nil
}

func (bp *BufferPool) endOp() {
	bp.mu.Lock()
	bp.activeOps--
	if bp.activeOps == 0 {
		bp.cond.Broadcast()
	}
	bp.mu.Unlock()
}

// PinPage binds a handle to a frame holding pageNum, loading it from
// disk (possibly evicting a victim first) if it is not already
// resident. The pin registers on the active-operation counter for its
// whole lifetime, not just the call itself: the matching UnpinPage is
// what retires it. This is what makes Shutdown observably block on a
// goroutine that pins a page and holds it past the Shutdown call.
func (bp *BufferPool) PinPage(pageNum int) (*PageHandle, error) {
	if pageNum < 0 {
		return nil, fmt.Errorf("bufferpool: invalid page number %d", pageNum)
	}
	if err := bp.beginOp(); err != nil {
		return nil, err
	}

	for {
		bp.mu.Lock()

		for i, f := range bp.frames {
			if f.PageID == pageNum {
				bp.lruCounter++
				f.LRUOrder = bp.lruCounter
				f.FixCount++
				bp.notifyPinLocked(i)
				bp.mu.Unlock()
				slog.Debug(logDebugPrefix+"pin hit", "page", pageNum, "frame", i, "fixCount", f.FixCount)
				return &PageHandle{PageNum: pageNum, Data: f.Memory, frameIdx: i}, nil
			}
		}

		if ch, inflight := bp.loading[pageNum]; inflight {
			bp.mu.Unlock()
			<-ch
			continue
		}

		targetIdx := -1
		for i, f := range bp.frames {
			if f.PageID == NoPage {
				targetIdx = i
				break
			}
		}

		victimOldPageID := NoPage
		victimWasDirty := false
		if targetIdx == -1 {
			idx, ok := bp.strategy.PickVictim(bp)
			if !ok {
				bp.mu.Unlock()
				bp.endOp()
				return nil, ErrPinFull
			}
			targetIdx = idx
			victimOldPageID = bp.frames[idx].PageID
			victimWasDirty = bp.frames[idx].Dirty
			slog.Debug(logDebugPrefix+"evicting", "frame", targetIdx, "victimPage", victimOldPageID, "dirty", victimWasDirty)
		}

		frame := bp.frames[targetIdx]
		frame.PageID = loadingPage
		ch := make(chan struct{})
		bp.loading[pageNum] = ch
		bp.mu.Unlock()

		err := bp.loadFrame(frame, pageNum, victimOldPageID, victimWasDirty)

		bp.mu.Lock()
		delete(bp.loading, pageNum)
		bp.mu.Unlock()
		close(ch)

		if err != nil {
			bp.endOp()
			return nil, err
		}

		bp.mu.Lock()
		frame.PageID = pageNum
		frame.Dirty = false
		frame.FixCount = 1
		bp.lruCounter++
		frame.LRUOrder = bp.lruCounter
		bp.notifyPinLocked(targetIdx)
		bp.mu.Unlock()

		return &PageHandle{PageNum: pageNum, Data: frame.Memory, frameIdx: targetIdx}, nil
	}
}

// loadFrame performs the disk I/O for a pin miss, holding only the
// frame's own latch, not the pool mutex, for the duration of the I/O:
// the latch guards memory during disk I/O only.
func (bp *BufferPool) loadFrame(frame *Frame, pageNum, victimOldPageID int, victimWasDirty bool) error {
	frame.Latch.Lock()
	defer frame.Latch.Unlock()

	if victimWasDirty {
		if err := bp.file.WriteBlock(victimOldPageID, frame.Memory); err != nil {
			bp.mu.Lock()
			frame.PageID = victimOldPageID
			frame.Dirty = true
			bp.mu.Unlock()
			return fmt.Errorf("bufferpool: flush victim page %d: %w", victimOldPageID, err)
		}
		bp.mu.Lock()
		bp.writtenToDisk++
		bp.mu.Unlock()
	}

	if err := bp.file.EnsureCapacity(pageNum + 1); err != nil {
		bp.mu.Lock()
		frame.PageID = NoPage
		bp.mu.Unlock()
		return fmt.Errorf("bufferpool: grow file for page %d: %w", pageNum, err)
	}

	if err := bp.file.ReadBlock(pageNum, frame.Memory); err != nil {
		bp.mu.Lock()
		frame.PageID = NoPage
		bp.mu.Unlock()
		return fmt.Errorf("bufferpool: read page %d: %w", pageNum, err)
	}
	bp.mu.Lock()
	bp.readFromDisk++
	bp.mu.Unlock()

	return nil
}

// notifyPinLocked runs the strategy's access-notification hook for a
// successful pin. Callers must hold bp.mu: AccessAware implementations
// like CLOCK mutate unsynchronized state and rely on the pool mutex for
// exclusion, not a lock of their own.
func (bp *BufferPool) notifyPinLocked(frameIdx int) {
	if aa, ok := bp.strategy.(AccessAware); ok {
		aa.OnPin(frameIdx)
	}
}

// UnpinPage decrements the fix count of the frame bound to handle.
func (bp *BufferPool) UnpinPage(h *PageHandle) error {
	if h == nil {
		return fmt.Errorf("bufferpool: nil handle")
	}
	bp.mu.Lock()
	if h.frameIdx < 0 || h.frameIdx >= len(bp.frames) {
		bp.mu.Unlock()
		return ErrNotResident
	}
	f := bp.frames[h.frameIdx]
	if f.PageID != h.PageNum {
		bp.mu.Unlock()
		return ErrNotResident
	}
	if f.FixCount == 0 {
		bp.mu.Unlock()
		return ErrNotPinned
	}
	f.FixCount--
	stillPinned := f.FixCount > 0
	if aa, ok := bp.strategy.(AccessAware); ok {
		aa.OnUnpin(h.frameIdx, stillPinned)
	}
	bp.mu.Unlock()

	bp.endOp()
	return nil
}

// MarkDirty sets the dirty bit on the frame bound to handle.
func (bp *BufferPool) MarkDirty(h *PageHandle) error {
	if h == nil {
		return fmt.Errorf("bufferpool: nil handle")
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if h.frameIdx < 0 || h.frameIdx >= len(bp.frames) {
		return ErrNotResident
	}
	f := bp.frames[h.frameIdx]
	if f.PageID != h.PageNum {
		return ErrNotResident
	}
	f.Dirty = true
	return nil
}

// ForcePage writes the frame's buffer to disk immediately and clears its
// dirty bit, regardless of whether it is still pinned.
func (bp *BufferPool) ForcePage(h *PageHandle) error {
	if err := bp.beginOp(); err != nil {
		return err
	}
	defer bp.endOp()

	if h == nil {
		return fmt.Errorf("bufferpool: nil handle")
	}
	bp.mu.Lock()
	if h.frameIdx < 0 || h.frameIdx >= len(bp.frames) {
		bp.mu.Unlock()
		return ErrNotResident
	}
	f := bp.frames[h.frameIdx]
	if f.PageID != h.PageNum {
		bp.mu.Unlock()
		return ErrNotResident
	}
	bp.mu.Unlock()

	f.Latch.Lock()
	err := bp.file.WriteBlock(h.PageNum, f.Memory)
	f.Latch.Unlock()
	if err != nil {
		return fmt.Errorf("bufferpool: force page %d: %w", h.PageNum, err)
	}

	bp.mu.Lock()
	f.Dirty = false
	bp.writtenToDisk++
	bp.mu.Unlock()
	return nil
}

type flushTarget struct {
	frame  *Frame
	pageID int
}

// ForceFlushPool writes every dirty, unpinned frame back to disk. It
// fails without writing anything if any frame is currently pinned.
func (bp *BufferPool) ForceFlushPool() error {
	if err := bp.beginOp(); err != nil {
		return err
	}
	defer bp.endOp()

	bp.mu.Lock()
	for _, f := range bp.frames {
		if f.FixCount != 0 {
			bp.mu.Unlock()
			return fmt.Errorf("%w: page %d", ErrFlushPinned, f.PageID)
		}
	}
	var targets []flushTarget
	for _, f := range bp.frames {
		if f.Dirty {
			targets = append(targets, flushTarget{f, f.PageID})
		}
	}
	bp.mu.Unlock()

	for _, t := range targets {
		t.frame.Latch.Lock()
		err := bp.file.WriteBlock(t.pageID, t.frame.Memory)
		t.frame.Latch.Unlock()
		if err != nil {
			return fmt.Errorf("bufferpool: flush page %d: %w", t.pageID, err)
		}
		bp.mu.Lock()
		t.frame.Dirty = false
		bp.writtenToDisk++
		bp.mu.Unlock()
	}
	slog.Debug(logDebugPrefix+"force flush complete", "flushed", len(targets))
	return nil
}

// Shutdown marks the pool as shutting down, waits for in-flight
// operations to finish, flushes dirty unpinned pages, and releases
// every frame.
func (bp *BufferPool) Shutdown() error {
	bp.mu.Lock()
	if !bp.initialized {
		bp.mu.Unlock()
		return ErrNotInitialized
	}
	bp.shuttingDown = true
	for bp.activeOps > 0 {
		bp.cond.Wait()
	}

	var targets []flushTarget
	for _, f := range bp.frames {
		if f.Dirty && f.FixCount == 0 {
			targets = append(targets, flushTarget{f, f.PageID})
		}
	}
	bp.mu.Unlock()

	for _, t := range targets {
		t.frame.Latch.Lock()
		err := bp.file.WriteBlock(t.pageID, t.frame.Memory)
		t.frame.Latch.Unlock()
		if err != nil {
			return fmt.Errorf("bufferpool: shutdown flush page %d: %w", t.pageID, err)
		}
		bp.mu.Lock()
		bp.writtenToDisk++
		bp.mu.Unlock()
	}

	bp.mu.Lock()
	bp.initialized = false
	for _, f := range bp.frames {
		f.PageID = NoPage
		f.Dirty = false
		f.FixCount = 0
		f.Memory = nil
	}
	bp.mu.Unlock()

	slog.Debug(logDebugPrefix+"shutdown complete", "flushed", len(targets))
	return bp.file.Close()
}

// GetFrameContents returns the page id resident in each frame (NoPage for
// an empty frame).
func (bp *BufferPool) GetFrameContents() []int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	out := make([]int, len(bp.frames))
	for i, f := range bp.frames {
		out[i] = f.PageID
	}
	return out
}

// GetDirtyFlags returns the dirty bit of each frame.
func (bp *BufferPool) GetDirtyFlags() []bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	out := make([]bool, len(bp.frames))
	for i, f := range bp.frames {
		out[i] = f.Dirty
	}
	return out
}

// GetFixCounts returns the fix count of each frame.
func (bp *BufferPool) GetFixCounts() []int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	out := make([]int, len(bp.frames))
	for i, f := range bp.frames {
		out[i] = f.FixCount
	}
	return out
}

// GetNumReadIO returns the number of pages read from disk since Init.
func (bp *BufferPool) GetNumReadIO() uint64 {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.readFromDisk
}

// GetNumWriteIO returns the number of pages written to disk since Init.
func (bp *BufferPool) GetNumWriteIO() uint64 {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.writtenToDisk
}

// Capacity returns the number of frames in the pool.
func (bp *BufferPool) Capacity() int {
	return len(bp.frames)
}
