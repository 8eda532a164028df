// Package slotted implements the slotted-page wire format inside a data
// page: a slot directory growing up from offset 0 and record payloads
// packed down from the top of the page.
package slotted

import "github.com/htdao/slotdb/internal/bx"

// EntrySize is the encoded width of one Entry: a 4-byte offset plus a
// 1-byte is-free flag.
const EntrySize = 5

// Entry is one slot directory entry.
type Entry struct {
	Offset int32
	IsFree bool
}

// ReadEntry reads the slot-th directory entry out of page.
func ReadEntry(page []byte, slot int) Entry {
	off := slot * EntrySize
	return Entry{
		Offset: bx.GetI32(page, off),
		IsFree: bx.GetBool(page, off+4),
	}
}

// WriteEntry writes e as the slot-th directory entry into page.
func WriteEntry(page []byte, slot int, e Entry) {
	off := slot * EntrySize
	bx.PutI32(page, off, e.Offset)
	bx.PutBool(page, off+4, e.IsFree)
}

// RecordOffset returns the byte offset of the newCount-th record
// inserted into a page (1-indexed): PAGE_SIZE - record_count * record_size.
func RecordOffset(pageSize, newCount, recordSize int) int {
	return pageSize - newCount*recordSize
}

// ReclaimedSpace returns the bytes returned to free_space when slot's
// entry e is freed: the record's payload plus the slot entry itself.
func ReclaimedSpace(e Entry, slot int) int {
	return int(e.Offset) - slot*EntrySize
}

// FitsInPlace reports whether a record of newSize fits at its existing
// slot without moving, given the page's current free_space and the
// slot's own reclaimable contribution.
func FitsInPlace(freeSpace int, e Entry, slot int, newSize int) bool {
	available := freeSpace + ReclaimedSpace(e, slot)
	return newSize <= available
}
