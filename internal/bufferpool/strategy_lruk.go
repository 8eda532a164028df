package bufferpool

import "sort"

// lruKReplacer implements the LRU-K strategy: sort lru_order values
// ascending and pick the k-th smallest, restricted to evictable frames.
// If k exceeds the number of evictable frames, it clamps to the last
// one in that order (the most recently used evictable frame) rather
// than failing; see DESIGN.md.
type lruKReplacer struct {
	k int
}

func (s *lruKReplacer) PickVictim(bp *BufferPool) (int, bool) {
	type candidate struct {
		idx   int
		order uint64
	}
	var cands []candidate
	for i, f := range bp.frames {
		if !f.evictable() {
			continue
		}
		cands = append(cands, candidate{i, f.LRUOrder})
	}
	if len(cands) == 0 {
		return -1, false
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].order < cands[b].order })

	k := s.k
	if k > len(cands) {
		k = len(cands)
	}
	return cands[k-1].idx, true
}
