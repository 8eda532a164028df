// Package table implements the record manager: table
// create/open/close/delete, record insert/delete/update/get by rid, and
// the bookkeeping that ties the page directory and slotted-page formats
// together over a buffer pool.
package table

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/htdao/slotdb/internal/bufferpool"
	"github.com/htdao/slotdb/internal/pagedir"
	"github.com/htdao/slotdb/internal/pagefile"
	"github.com/htdao/slotdb/internal/schema"
	"github.com/htdao/slotdb/internal/slotted"
)

var logDebugPrefix = "table: "

// Table is an open, schema-bound record store.
type Table struct {
	mu sync.Mutex

	path            string
	pool            *bufferpool.BufferPool
	schema          *schema.Schema
	dir             []pagedir.Entry
	numPages        int32
	numPageDP       int32
	maxEntriesPerDP int
	recordSize      int
}

// Stats is a read-only diagnostic snapshot, useful for monitoring and
// tests but not required for correctness.
type Stats struct {
	NumPages        int
	NumPageDirPages int
	NumTuples       int
	FreePages       int
}

// CreateTable writes a fresh schema page and an initial (empty) page
// directory page, then opens the table over a new buffer pool.
func CreateTable(path string, sch *schema.Schema, capacity int, kind bufferpool.StrategyKind, stratParam int) (*Table, error) {
	f, err := pagefile.Create(path)
	if err != nil {
		if err == pagefile.ErrAlreadyExists {
			return nil, ErrTableExists
		}
		return nil, err
	}

	if err := f.EnsureCapacity(2); err != nil {
		f.CloseLogged()
		return nil, err
	}

	page0 := make([]byte, pagefile.PageSize)
	if err := sch.Encode(page0); err != nil {
		f.CloseLogged()
		return nil, err
	}
	if err := f.WriteBlock(0, page0); err != nil {
		f.CloseLogged()
		return nil, err
	}

	dirPage := make([]byte, pagefile.PageSize)
	pagedir.EncodeHeader(dirPage, 0, 1)
	if err := f.WriteBlock(1, dirPage); err != nil {
		f.CloseLogged()
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, err
	}

	return openTable(path, capacity, kind, stratParam)
}

// OpenTable loads an existing table file's schema and directory into
// memory and opens a buffer pool over it.
func OpenTable(path string, capacity int, kind bufferpool.StrategyKind, stratParam int) (*Table, error) {
	return openTable(path, capacity, kind, stratParam)
}

func openTable(path string, capacity int, kind bufferpool.StrategyKind, stratParam int) (*Table, error) {
	pool, err := bufferpool.Init(path, capacity, kind, stratParam)
	if err != nil {
		return nil, err
	}

	h0, err := pool.PinPage(0)
	if err != nil {
		_ = pool.Shutdown()
		return nil, err
	}
	sch, err := schema.Decode(h0.Data)
	if uerr := pool.UnpinPage(h0); uerr != nil && err == nil {
		err = uerr
	}
	if err != nil {
		_ = pool.Shutdown()
		return nil, fmt.Errorf("table: decode schema page: %w", err)
	}

	maxPerDP := pagedir.MaxEntriesPerPage(pagefile.PageSize)

	h1, err := pool.PinPage(pagedir.DirPhysicalPage(1, maxPerDP))
	if err != nil {
		_ = pool.Shutdown()
		return nil, err
	}
	numPages, numPageDP := pagedir.DecodeHeader(h1.Data)
	if err := pool.UnpinPage(h1); err != nil {
		_ = pool.Shutdown()
		return nil, err
	}

	dir := make([]pagedir.Entry, 0, numPages)
	loaded := int32(0)
	for ord := int32(1); ord <= numPageDP && loaded < numPages; ord++ {
		phys := pagedir.DirPhysicalPage(int(ord), maxPerDP)
		h, err := pool.PinPage(phys)
		if err != nil {
			_ = pool.Shutdown()
			return nil, err
		}
		for slot := 0; slot < maxPerDP && loaded < numPages; slot++ {
			dir = append(dir, pagedir.ReadEntry(h.Data, slot))
			loaded++
		}
		if err := pool.UnpinPage(h); err != nil {
			_ = pool.Shutdown()
			return nil, err
		}
	}

	t := &Table{
		path:            path,
		pool:            pool,
		schema:          sch,
		dir:             dir,
		numPages:        numPages,
		numPageDP:       numPageDP,
		maxEntriesPerDP: maxPerDP,
		recordSize:      sch.RecordSize(),
	}
	slog.Debug(logDebugPrefix+"opened", "path", path, "numPages", numPages, "numPageDP", numPageDP)
	return t, nil
}

// Close flushes and releases the underlying buffer pool. Every directory
// and data mutation is already written through the pool as it happens,
// so close needs no extra directory write-back.
func (t *Table) Close() error {
	return t.pool.Shutdown()
}

// DeleteTable removes a table's backing file. The table must already be
// closed.
func DeleteTable(path string) error {
	return pagefile.Destroy(path)
}

// Schema returns the table's attribute layout.
func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// RecordSize returns the fixed payload width of one record in this table.
func (t *Table) RecordSize() int {
	return t.recordSize
}

func (t *Table) writeDirEntryLocked(logicalIdx int, e pagedir.Entry) error {
	t.dir[logicalIdx] = e
	ordinal := logicalIdx/t.maxEntriesPerDP + 1
	slot := logicalIdx % t.maxEntriesPerDP
	phys := pagedir.DirPhysicalPage(ordinal, t.maxEntriesPerDP)

	h, err := t.pool.PinPage(phys)
	if err != nil {
		return err
	}
	pagedir.WriteEntry(h.Data, slot, e)
	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.UnpinPage(h)
		return err
	}
	return t.pool.UnpinPage(h)
}

func (t *Table) writeAllDirHeadersLocked() error {
	for ord := int32(1); ord <= t.numPageDP; ord++ {
		phys := pagedir.DirPhysicalPage(int(ord), t.maxEntriesPerDP)
		h, err := t.pool.PinPage(phys)
		if err != nil {
			return err
		}
		pagedir.EncodeHeader(h.Data, t.numPages, t.numPageDP)
		if err := t.pool.MarkDirty(h); err != nil {
			_ = t.pool.UnpinPage(h)
			return err
		}
		if err := t.pool.UnpinPage(h); err != nil {
			return err
		}
	}
	return nil
}

// growDirectoryIfNeededLocked allocates a new, zeroed directory page
// when the data page about to be allocated would not fit in the
// directory pages currently on disk.
func (t *Table) growDirectoryIfNeededLocked() error {
	if int(t.numPages) < t.maxEntriesPerDP*int(t.numPageDP) {
		return nil
	}

	newOrdinal := t.numPageDP + 1
	phys := pagedir.DirPhysicalPage(int(newOrdinal), t.maxEntriesPerDP)

	h, err := t.pool.PinPage(phys)
	if err != nil {
		return err
	}
	t.numPageDP = newOrdinal
	pagedir.EncodeHeader(h.Data, t.numPages, t.numPageDP)
	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.UnpinPage(h)
		return err
	}
	if err := t.pool.UnpinPage(h); err != nil {
		return err
	}
	return t.writeAllDirHeadersLocked()
}

func (t *Table) findFreeDataPageLocked() (int, bool) {
	for i, e := range t.dir {
		if e.HasFreeSlot {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) allocateDataPageLocked() (int, error) {
	logicalIdx := int(t.numPages)
	phys := pagedir.DataPhysicalPage(logicalIdx, t.maxEntriesPerDP)

	h, err := t.pool.PinPage(phys)
	if err != nil {
		return -1, err
	}
	if err := t.pool.UnpinPage(h); err != nil {
		return -1, err
	}

	entry := pagedir.Entry{
		PageID:      int32(phys),
		HasFreeSlot: true,
		FreeSpace:   int32(pagefile.PageSize),
		RecordCount: 0,
	}
	t.dir = append(t.dir, entry)
	t.numPages++

	if err := t.writeDirEntryLocked(logicalIdx, entry); err != nil {
		return -1, err
	}
	if err := t.writeAllDirHeadersLocked(); err != nil {
		return -1, err
	}
	return logicalIdx, nil
}

// InsertRecord assigns r an id and copies its payload into a data page
// slot, growing the directory and/or data-page set as needed. Every
// mutation goes through the buffer pool; nothing writes through a raw
// file handle.
func (t *Table) InsertRecord(r *schema.Record) error {
	if len(r.Data) != t.recordSize {
		return ErrRecordSizeMismatch
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.growDirectoryIfNeededLocked(); err != nil {
		return err
	}

	logicalIdx, ok := t.findFreeDataPageLocked()
	if !ok {
		idx, err := t.allocateDataPageLocked()
		if err != nil {
			return err
		}
		logicalIdx = idx
	}

	entry := t.dir[logicalIdx]
	phys := pagedir.DataPhysicalPage(logicalIdx, t.maxEntriesPerDP)

	h, err := t.pool.PinPage(phys)
	if err != nil {
		return err
	}

	slot := -1
	for s := 0; s < int(entry.RecordCount); s++ {
		if slotted.ReadEntry(h.Data, s).IsFree {
			slot = s
			break
		}
	}
	if slot == -1 {
		slot = int(entry.RecordCount)
		entry.RecordCount++
	}

	recOff := slotted.RecordOffset(pagefile.PageSize, int(entry.RecordCount), t.recordSize)
	slotted.WriteEntry(h.Data, slot, slotted.Entry{Offset: int32(recOff), IsFree: false})
	copy(h.Data[recOff:recOff+t.recordSize], r.Data)

	entry.FreeSpace -= int32(t.recordSize + slotted.EntrySize)
	entry.HasFreeSlot = int(entry.FreeSpace) >= t.recordSize+slotted.EntrySize

	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.UnpinPage(h)
		return err
	}
	if err := t.pool.UnpinPage(h); err != nil {
		return err
	}

	if err := t.writeDirEntryLocked(logicalIdx, entry); err != nil {
		return err
	}
	r.ID = schema.Rid{Page: logicalIdx, Slot: slot}
	slog.Debug(logDebugPrefix+"inserted", "page", logicalIdx, "slot", slot)
	return nil
}

// DeleteRecord frees rid's slot and returns its space to the page's
// free-space accounting.
func (t *Table) DeleteRecord(rid schema.Rid) error {
	if rid.Page < 0 || rid.Slot < 0 {
		return ErrInvalidRid
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if rid.Page >= len(t.dir) {
		return ErrInvalidRid
	}
	entry := t.dir[rid.Page]
	phys := pagedir.DataPhysicalPage(rid.Page, t.maxEntriesPerDP)

	h, err := t.pool.PinPage(phys)
	if err != nil {
		return err
	}

	if rid.Slot >= int(entry.RecordCount) {
		_ = t.pool.UnpinPage(h)
		return ErrRecordNotFound
	}
	se := slotted.ReadEntry(h.Data, rid.Slot)
	if se.IsFree {
		_ = t.pool.UnpinPage(h)
		return ErrRecordNotFound
	}

	se.IsFree = true
	slotted.WriteEntry(h.Data, rid.Slot, se)

	entry.FreeSpace += int32(slotted.ReclaimedSpace(se, rid.Slot))
	entry.HasFreeSlot = true

	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.UnpinPage(h)
		return err
	}
	if err := t.pool.UnpinPage(h); err != nil {
		return err
	}

	return t.writeDirEntryLocked(rid.Page, entry)
}

// UpdateRecord overwrites r.ID's slot in place when it still fits, or
// falls back to delete-then-insert, which assigns r a new id. Records
// in a table are fixed-width, so in-place updates never change the
// slot's space usage; the in-place path writes the directory entry back
// without adjusting free_space.
func (t *Table) UpdateRecord(r *schema.Record) error {
	if len(r.Data) != t.recordSize {
		return ErrRecordSizeMismatch
	}
	rid := r.ID
	if rid.Page < 0 || rid.Slot < 0 {
		return ErrInvalidRid
	}

	t.mu.Lock()
	if rid.Page >= len(t.dir) {
		t.mu.Unlock()
		return ErrInvalidRid
	}
	entry := t.dir[rid.Page]
	phys := pagedir.DataPhysicalPage(rid.Page, t.maxEntriesPerDP)

	h, err := t.pool.PinPage(phys)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	if rid.Slot >= int(entry.RecordCount) {
		_ = t.pool.UnpinPage(h)
		t.mu.Unlock()
		return ErrRecordNotFound
	}
	se := slotted.ReadEntry(h.Data, rid.Slot)
	if se.IsFree {
		_ = t.pool.UnpinPage(h)
		t.mu.Unlock()
		return ErrRecordNotFound
	}

	if slotted.FitsInPlace(int(entry.FreeSpace), se, rid.Slot, t.recordSize) {
		copy(h.Data[int(se.Offset):int(se.Offset)+t.recordSize], r.Data)

		if err := t.pool.MarkDirty(h); err != nil {
			_ = t.pool.UnpinPage(h)
			t.mu.Unlock()
			return err
		}
		if err := t.pool.UnpinPage(h); err != nil {
			t.mu.Unlock()
			return err
		}
		err := t.writeDirEntryLocked(rid.Page, entry)
		t.mu.Unlock()
		return err
	}

	if err := t.pool.UnpinPage(h); err != nil {
		t.mu.Unlock()
		return err
	}
	t.mu.Unlock()

	if err := t.DeleteRecord(rid); err != nil {
		return err
	}
	return t.InsertRecord(r)
}

// GetRecord copies rid's payload into a fresh record.
func (t *Table) GetRecord(rid schema.Rid) (*schema.Record, error) {
	if rid.Page < 0 || rid.Slot < 0 {
		return nil, ErrInvalidRid
	}

	t.mu.Lock()
	if rid.Page >= len(t.dir) {
		t.mu.Unlock()
		return nil, ErrInvalidRid
	}
	entry := t.dir[rid.Page]
	phys := pagedir.DataPhysicalPage(rid.Page, t.maxEntriesPerDP)
	t.mu.Unlock()

	h, err := t.pool.PinPage(phys)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.pool.UnpinPage(h) }()

	if rid.Slot >= int(entry.RecordCount) {
		return nil, ErrRecordNotFound
	}
	se := slotted.ReadEntry(h.Data, rid.Slot)
	if se.IsFree {
		return nil, ErrRecordNotFound
	}

	out := &schema.Record{ID: rid, Data: make([]byte, t.recordSize)}
	copy(out.Data, h.Data[int(se.Offset):int(se.Offset)+t.recordSize])
	return out, nil
}

// GetNumTuples counts live (non-freed) records across every data page,
// rather than summing record_count (which never decreases on delete) so
// that it tracks inserts minus deletes; see DESIGN.md.
func (t *Table) GetNumTuples() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for i, e := range t.dir {
		phys := pagedir.DataPhysicalPage(i, t.maxEntriesPerDP)
		h, err := t.pool.PinPage(phys)
		if err != nil {
			return 0, err
		}
		for s := 0; s < int(e.RecordCount); s++ {
			if !slotted.ReadEntry(h.Data, s).IsFree {
				total++
			}
		}
		if err := t.pool.UnpinPage(h); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Stats returns a read-only diagnostic snapshot.
func (t *Table) Stats() (Stats, error) {
	numTuples, err := t.GetNumTuples()
	if err != nil {
		return Stats{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	free := 0
	for _, e := range t.dir {
		if e.HasFreeSlot {
			free++
		}
	}
	return Stats{
		NumPages:        int(t.numPages),
		NumPageDirPages: int(t.numPageDP),
		NumTuples:       numTuples,
		FreePages:       free,
	}, nil
}
