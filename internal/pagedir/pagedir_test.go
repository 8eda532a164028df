package pagedir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	page := make([]byte, 128)
	EncodeHeader(page, 5, 2)
	numPages, numPageDP := DecodeHeader(page)
	require.EqualValues(t, 5, numPages)
	require.EqualValues(t, 2, numPageDP)
}

func TestEntryRoundTrip(t *testing.T) {
	page := make([]byte, 128)
	e := Entry{PageID: 3, HasFreeSlot: true, FreeSpace: 64, RecordCount: 2}
	WriteEntry(page, 1, e)
	require.Equal(t, e, ReadEntry(page, 1))
}

func TestMaxEntriesPerPage(t *testing.T) {
	require.Equal(t, 9, MaxEntriesPerPage(128))
}

func TestDataAndDirPhysicalPagesDoNotOverlap(t *testing.T) {
	maxPerDP := 9

	seen := map[int]string{}
	for ord := 1; ord <= 3; ord++ {
		p := DirPhysicalPage(ord, maxPerDP)
		require.NotContains(t, seen, p, "dir page %d collides with %s", ord, seen[p])
		seen[p] = "dir"
	}
	for cur := 0; cur < 30; cur++ {
		p := DataPhysicalPage(cur, maxPerDP)
		require.NotContainsf(t, seen, p, "data page %d collides with %s", cur, seen[p])
		seen[p] = "data"
	}
}

func TestDataPhysicalPage_FirstPageAfterFirstDirPage(t *testing.T) {
	require.Equal(t, 1, DirPhysicalPage(1, 9))
	require.Equal(t, 2, DataPhysicalPage(0, 9))
	require.Equal(t, 10, DataPhysicalPage(8, 9))
	require.Equal(t, 11, DirPhysicalPage(2, 9))
	require.Equal(t, 12, DataPhysicalPage(9, 9))
}
