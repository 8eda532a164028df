package pagefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreate_FailsIfAlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Create(path)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestOpen_MissingFile_ReturnsErrFileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.db")
	_, err := Open(path)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestEnsureCapacityAndReadWriteBlock_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, f.EnsureCapacity(2))
	require.Equal(t, 2, f.NumPages())

	buf := make([]byte, PageSize)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, f.WriteBlock(1, buf))

	out := make([]byte, PageSize)
	require.NoError(t, f.ReadBlock(1, out))
	require.Equal(t, buf, out)
}

func TestReadBlock_OutOfRange_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, f.EnsureCapacity(1))
	buf := make([]byte, PageSize)
	err = f.ReadBlock(5, buf)
	require.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestWriteBlock_BadBufferLength_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, f.EnsureCapacity(1))
	err = f.WriteBlock(0, make([]byte, PageSize-1))
	require.ErrorIs(t, err, ErrBadBufferLength)
}

func TestAppendEmpty_GrowsByOnePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	pn, err := f.AppendEmpty()
	require.NoError(t, err)
	require.Equal(t, 0, pn)
	require.Equal(t, 1, f.NumPages())

	pn, err = f.AppendEmpty()
	require.NoError(t, err)
	require.Equal(t, 1, pn)
	require.Equal(t, 2, f.NumPages())
}

func TestOpen_RejectsSizeNotMultipleOfPageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, os.WriteFile(path, make([]byte, PageSize+1), 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestDestroy_RemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Destroy(path))
	_, err = Open(path)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestClose_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}
