// Package pagedir implements the per-data-page metadata array and its
// on-disk directory-page encoding, plus the unified physical-page-index
// formula that interleaves directory pages among data pages without
// collision.
package pagedir

import "github.com/htdao/slotdb/internal/bx"

// EntrySize is the encoded width of one Entry.
const EntrySize = 13 // int32 page_id + bool has_free_slot + int32 free_space + int32 record_count

// HeaderSize is the width of the num_pages/num_page_dp header every
// directory page carries.
const HeaderSize = 8

// Entry is one page-directory entry.
type Entry struct {
	PageID      int32
	HasFreeSlot bool
	FreeSpace   int32
	RecordCount int32
}

// MaxEntriesPerPage returns how many Entry records fit in one directory
// page of the given size, after its header.
func MaxEntriesPerPage(pageSize int) int {
	return (pageSize - HeaderSize) / EntrySize
}

// EncodeHeader writes the num_pages/num_page_dp header into page.
func EncodeHeader(page []byte, numPages, numPageDP int32) {
	bx.PutI32(page, 0, numPages)
	bx.PutI32(page, 4, numPageDP)
}

// DecodeHeader reads the num_pages/num_page_dp header out of page.
func DecodeHeader(page []byte) (numPages, numPageDP int32) {
	return bx.GetI32(page, 0), bx.GetI32(page, 4)
}

// ReadEntry reads the idx-th entry (0-indexed within this directory
// page) after the header.
func ReadEntry(page []byte, idx int) Entry {
	off := HeaderSize + idx*EntrySize
	return Entry{
		PageID:      bx.GetI32(page, off),
		HasFreeSlot: bx.GetBool(page, off+4),
		FreeSpace:   bx.GetI32(page, off+5),
		RecordCount: bx.GetI32(page, off+9),
	}
}

// WriteEntry writes e as the idx-th entry after the header.
func WriteEntry(page []byte, idx int, e Entry) {
	off := HeaderSize + idx*EntrySize
	bx.PutI32(page, off, e.PageID)
	bx.PutBool(page, off+4, e.HasFreeSlot)
	bx.PutI32(page, off+5, e.FreeSpace)
	bx.PutI32(page, off+9, e.RecordCount)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// DataPhysicalPage computes the physical page index of the currentPage-th
// (0-indexed) logical data page, given how many entries fit per
// directory page: ceil((current_page+1)/max_entries_per_dp) + 1 +
// current_page. This is the single formula used everywhere a physical
// data-page index is computed, so directory pages interleaved among the
// data pages are accounted for consistently.
func DataPhysicalPage(currentPage, maxEntriesPerDP int) int {
	return ceilDiv(currentPage+1, maxEntriesPerDP) + 1 + currentPage
}

// DirPhysicalPage computes the physical page index of the dirOrdinal-th
// (1-indexed) directory page — dirOrdinal=1 is the one immediately after
// the schema page. Consistent with DataPhysicalPage: the two interleave
// without overlap.
func DirPhysicalPage(dirOrdinal, maxEntriesPerDP int) int {
	return (dirOrdinal-1)*maxEntriesPerDP + dirOrdinal
}
