package bufferpool

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htdao/slotdb/internal/pagefile"
)

func TestFIFOReplacer_EvictsInLoadOrder(t *testing.T) {
	bp := newTestPool(t, 2, 3, FIFO, 0)

	h0, err := bp.PinPage(0)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h0))

	h1, err := bp.PinPage(1)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h1))

	// Both frames full and unpinned; page 0 was read first so it's evicted first.
	h2, err := bp.PinPage(2)
	require.NoError(t, err)

	contents := bp.GetFrameContents()
	require.NotContains(t, contents, 0)
	require.Contains(t, contents, 2)
	require.NoError(t, bp.UnpinPage(h2))
}

func TestLRUReplacer_EvictsLeastRecentlyUsed(t *testing.T) {
	bp := newTestPool(t, 2, 3, LRU, 0)

	h0, err := bp.PinPage(0)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h0))

	h1, err := bp.PinPage(1)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h1))

	// Touch page 0 again, making page 1 the least recently used.
	h0b, err := bp.PinPage(0)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h0b))

	h2, err := bp.PinPage(2)
	require.NoError(t, err)

	contents := bp.GetFrameContents()
	require.NotContains(t, contents, 1)
	require.Contains(t, contents, 0)
	require.Contains(t, contents, 2)
	require.NoError(t, bp.UnpinPage(h2))
}

func TestLRUReplacer_SkipsPinnedFrames(t *testing.T) {
	bp := newTestPool(t, 2, 3, LRU, 0)

	h0, err := bp.PinPage(0)
	require.NoError(t, err)
	// h0 stays pinned until the end of the test.

	h1, err := bp.PinPage(1)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h1))

	h2, err := bp.PinPage(2)
	require.NoError(t, err)

	contents := bp.GetFrameContents()
	require.Contains(t, contents, 0, "pinned frame must never be chosen as a victim")
	require.NotContains(t, contents, 1)
	require.NoError(t, bp.UnpinPage(h2))
	require.NoError(t, bp.UnpinPage(h0))
}

func TestLRUKReplacer_EvictsKthLeastRecentlyUsed(t *testing.T) {
	bp := newTestPool(t, 3, 4, LRUK, 2)

	for _, pn := range []int{0, 1, 2} {
		h, err := bp.PinPage(pn)
		require.NoError(t, err)
		require.NoError(t, bp.UnpinPage(h))
	}
	// Access order by recency now: 0 (oldest), 1, 2 (newest).
	// k=2 means evict the 2nd-least-recently-used candidate -> page 1.

	h3, err := bp.PinPage(3)
	require.NoError(t, err)

	contents := bp.GetFrameContents()
	require.NotContains(t, contents, 1)
	require.Contains(t, contents, 0)
	require.Contains(t, contents, 2)
	require.Contains(t, contents, 3)
	require.NoError(t, bp.UnpinPage(h3))
}

func TestClockReplacer_EvictsToLoadPageIntoFullPool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	f, err := pagefile.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.EnsureCapacity(3))
	require.NoError(t, f.Close())

	bp, err := Init(path, 2, Clock, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bp.Shutdown() })

	h0, err := bp.PinPage(0)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h0))

	h1, err := bp.PinPage(1)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h1))

	h2, err := bp.PinPage(2)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(h2))

	contents := bp.GetFrameContents()
	require.Len(t, contents, 2)
	require.Contains(t, contents, 2)
}
