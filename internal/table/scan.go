package table

import (
	"github.com/htdao/slotdb/internal/bufferpool"
	"github.com/htdao/slotdb/internal/pagedir"
	"github.com/htdao/slotdb/internal/predicate"
	"github.com/htdao/slotdb/internal/schema"
	"github.com/htdao/slotdb/internal/slotted"
)

// Scan holds sequential-scan state over a table's data pages. A nil
// expr matches every record.
type Scan struct {
	table *Table
	expr  predicate.EvalFunc

	currentPage int
	currentSlot int

	pinned     *bufferpool.PageHandle
	pinnedPage int
	done       bool
}

// StartScan begins a sequential scan positioned at the first data page.
// It pins nothing itself; the first call to Next pins that page.
func (t *Table) StartScan(expr predicate.EvalFunc) *Scan {
	return &Scan{table: t, expr: expr, pinnedPage: -1}
}

// Next decodes the next record matching the scan's predicate into out,
// whose Data must already be sized for the table's schema. Returns
// ErrNoMoreTuples once every data page is exhausted.
func (s *Scan) Next(out *schema.Record) error {
	if s.done {
		return ErrNoMoreTuples
	}

	t := s.table
	t.mu.Lock()
	numPages := int(t.numPages)
	maxPerDP := t.maxEntriesPerDP
	t.mu.Unlock()

	for s.currentPage < numPages {
		if s.pinnedPage != s.currentPage {
			if s.pinned != nil {
				_ = t.pool.UnpinPage(s.pinned)
				s.pinned = nil
			}
			phys := pagedir.DataPhysicalPage(s.currentPage, maxPerDP)
			h, err := t.pool.PinPage(phys)
			if err != nil {
				return err
			}
			s.pinned = h
			s.pinnedPage = s.currentPage
		}

		t.mu.Lock()
		entry := t.dir[s.currentPage]
		t.mu.Unlock()

		for slot := s.currentSlot; slot < int(entry.RecordCount); slot++ {
			se := slotted.ReadEntry(s.pinned.Data, slot)
			if se.IsFree {
				continue
			}

			copy(out.Data, s.pinned.Data[int(se.Offset):int(se.Offset)+t.recordSize])
			out.ID = schema.Rid{Page: s.currentPage, Slot: slot}

			matched := true
			if s.expr != nil {
				var err error
				matched, err = s.expr(out, t.schema)
				if err != nil {
					return err
				}
			}
			if matched {
				s.currentSlot = slot + 1
				return nil
			}
		}

		s.currentSlot = 0
		s.currentPage++
	}

	return s.finish()
}

func (s *Scan) finish() error {
	s.done = true
	if s.pinned != nil {
		err := s.table.pool.UnpinPage(s.pinned)
		s.pinned = nil
		if err != nil {
			return err
		}
	}
	return ErrNoMoreTuples
}

// Close unpins any still-pinned page and retires the scan. Safe to call
// more than once or on an already-exhausted scan.
func (s *Scan) Close() error {
	if s.pinned == nil {
		return nil
	}
	err := s.table.pool.UnpinPage(s.pinned)
	s.pinned = nil
	return err
}
