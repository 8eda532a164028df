package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htdao/slotdb/internal/bufferpool"
	"github.com/htdao/slotdb/internal/schema"
)

func smallSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New(
		[]string{"a", "b"},
		[]schema.AttrType{schema.Int, schema.String},
		[]int{0, 4},
		[]int{0},
	)
	require.NoError(t, err)
	return s
}

func newTestTable(t *testing.T, sch *schema.Schema, capacity int) *Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tbl")
	tbl, err := CreateTable(path, sch, capacity, bufferpool.FIFO, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func TestInsertAndGetRecord_RoundTrips(t *testing.T) {
	sch := smallSchema(t)
	tbl := newTestTable(t, sch, 4)

	r := schema.NewRecord(sch)
	require.NoError(t, sch.SetValue(r, 0, schema.IntValue(7)))
	require.NoError(t, sch.SetValue(r, 1, schema.StringValue("abcd")))

	require.NoError(t, tbl.InsertRecord(r))
	require.NotEqual(t, schema.InvalidRid, r.ID)

	got, err := tbl.GetRecord(r.ID)
	require.NoError(t, err)

	av, err := sch.GetValue(got, 0)
	require.NoError(t, err)
	require.Equal(t, int32(7), av.Int)

	bv, err := sch.GetValue(got, 1)
	require.NoError(t, err)
	require.Equal(t, "abcd", bv.String)
}

func TestDeleteRecord_ThenGetReturnsNotFound(t *testing.T) {
	sch := smallSchema(t)
	tbl := newTestTable(t, sch, 4)

	r := schema.NewRecord(sch)
	require.NoError(t, sch.SetValue(r, 0, schema.IntValue(1)))
	require.NoError(t, sch.SetValue(r, 1, schema.StringValue("x")))
	require.NoError(t, tbl.InsertRecord(r))

	require.NoError(t, tbl.DeleteRecord(r.ID))

	_, err := tbl.GetRecord(r.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateRecord_InPlace(t *testing.T) {
	sch := smallSchema(t)
	tbl := newTestTable(t, sch, 4)

	r := schema.NewRecord(sch)
	require.NoError(t, sch.SetValue(r, 0, schema.IntValue(1)))
	require.NoError(t, sch.SetValue(r, 1, schema.StringValue("aaaa")))
	require.NoError(t, tbl.InsertRecord(r))
	originalID := r.ID

	require.NoError(t, sch.SetValue(r, 1, schema.StringValue("bbbb")))
	require.NoError(t, tbl.UpdateRecord(r))
	require.Equal(t, originalID, r.ID, "fixed-width update must not move the rid")

	got, err := tbl.GetRecord(originalID)
	require.NoError(t, err)
	bv, err := sch.GetValue(got, 1)
	require.NoError(t, err)
	require.Equal(t, "bbbb", bv.String)
}

func TestGetNumTuples_TracksInsertsAndDeletes(t *testing.T) {
	sch := smallSchema(t)
	tbl := newTestTable(t, sch, 4)

	var ids []schema.Rid
	for i := 0; i < 3; i++ {
		r := schema.NewRecord(sch)
		require.NoError(t, sch.SetValue(r, 0, schema.IntValue(int32(i))))
		require.NoError(t, sch.SetValue(r, 1, schema.StringValue("zzzz")))
		require.NoError(t, tbl.InsertRecord(r))
		ids = append(ids, r.ID)
	}

	n, err := tbl.GetNumTuples()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.NoError(t, tbl.DeleteRecord(ids[0]))

	n, err = tbl.GetNumTuples()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestInsertRecord_WrongSize_ReturnsError(t *testing.T) {
	sch := smallSchema(t)
	tbl := newTestTable(t, sch, 4)

	r := &schema.Record{ID: schema.InvalidRid, Data: make([]byte, 1)}
	err := tbl.InsertRecord(r)
	require.ErrorIs(t, err, ErrRecordSizeMismatch)
}

func TestCreateTable_SchemaRoundTripsThroughOpen(t *testing.T) {
	sch := smallSchema(t)
	path := filepath.Join(t.TempDir(), "test.tbl")

	tbl, err := CreateTable(path, sch, 4, bufferpool.FIFO, 0)
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	reopened, err := OpenTable(path, 4, bufferpool.FIFO, 0)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got := reopened.Schema()
	require.Equal(t, sch.NumAttr, got.NumAttr)
	require.Equal(t, sch.AttrNames, got.AttrNames)
	require.Equal(t, sch.DataTypes, got.DataTypes)
	require.Equal(t, sch.TypeLength, got.TypeLength)
	require.Equal(t, sch.KeyAttrs, got.KeyAttrs)
}

func TestInsertRecord_GrowsPageDirectoryPastCapacity(t *testing.T) {
	// One attribute wide enough that exactly one record fits per data
	// page, so at maxEntriesPerDP=9 the 10th insert allocates the second
	// directory page and the 11th lands in it.
	sch, err := schema.New([]string{"payload"}, []schema.AttrType{schema.String}, []int{100}, nil)
	require.NoError(t, err)
	tbl := newTestTable(t, sch, 4)

	for i := 0; i < 11; i++ {
		r := schema.NewRecord(sch)
		require.NoError(t, sch.SetValue(r, 0, schema.StringValue("x")))
		require.NoError(t, tbl.InsertRecord(r))
	}

	stats, err := tbl.Stats()
	require.NoError(t, err)
	require.Equal(t, 11, stats.NumPages)
	require.Equal(t, 2, stats.NumPageDirPages)
	require.Equal(t, 11, stats.NumTuples)
}

func TestInsertRecord_CloseReopenAtDirectoryBoundary_ThenInsertAgain(t *testing.T) {
	// One record per data page, so inserting maxEntriesPerDP+1 (10) records
	// allocates a 10th data page exactly when the single directory page on
	// disk (capacity 9) is already full. The directory must grow to a
	// second page on that 10th insert, not one insert later, or the 10th
	// entry is written into a directory page the on-disk header doesn't
	// know about yet and is lost across a close/reopen.
	sch, err := schema.New([]string{"payload"}, []schema.AttrType{schema.String}, []int{100}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "test.tbl")
	tbl, err := CreateTable(path, sch, 4, bufferpool.FIFO, 0)
	require.NoError(t, err)

	var ids []schema.Rid
	for i := 0; i < 10; i++ {
		r := schema.NewRecord(sch)
		require.NoError(t, sch.SetValue(r, 0, schema.StringValue("x")))
		require.NoError(t, tbl.InsertRecord(r))
		ids = append(ids, r.ID)
	}
	require.NoError(t, tbl.Close())

	reopened, err := OpenTable(path, 4, bufferpool.FIFO, 0)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	stats, err := reopened.Stats()
	require.NoError(t, err)
	require.Equal(t, 10, stats.NumPages)
	require.Equal(t, 2, stats.NumPageDirPages)
	require.Equal(t, 10, stats.NumTuples)

	for _, id := range ids {
		_, err := reopened.GetRecord(id)
		require.NoError(t, err, "record inserted before close must survive reopen")
	}

	r := schema.NewRecord(sch)
	require.NoError(t, sch.SetValue(r, 0, schema.StringValue("y")))
	require.NoError(t, reopened.InsertRecord(r))

	stats, err = reopened.Stats()
	require.NoError(t, err)
	require.Equal(t, 11, stats.NumPages)
}
