// Package pagefile implements the flat, zero-padded, fixed-page-size
// block device the rest of this module treats as a given: a single file
// addressed in PageSize blocks, with create/open/close/destroy and
// capacity-checked read/write. No segmenting, no multi-file tables.
package pagefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/htdao/slotdb/pkg/util"
)

// PageSize is the fixed block size for every page file in this module.
// It is a compile-time knob, not a per-file parameter.
const PageSize = 128

var (
	ErrFileNotFound    = errors.New("pagefile: file not found")
	ErrAlreadyExists   = errors.New("pagefile: file already exists")
	ErrPageOutOfRange  = errors.New("pagefile: read/write of non-existing page")
	ErrBadBufferLength = errors.New("pagefile: buffer length must equal PageSize")
	ErrClosed          = errors.New("pagefile: file is closed")
)

// File is a fixed-size-block file. All methods are safe for concurrent use.
type File struct {
	mu       sync.RWMutex
	path     string
	f        *os.File
	numPages int
	closed   bool
}

// Create creates a new, empty page file. It fails if the file already exists.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("pagefile: create %s: %w", path, err)
	}
	return &File{path: path, f: f}, nil
}

// Open opens an existing page file. It fails if the file is missing.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("pagefile: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("pagefile: stat %s: %w", path, err)
	}
	if info.Size()%PageSize != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("pagefile: %s size %d is not a multiple of PageSize", path, info.Size())
	}
	return &File{path: path, f: f, numPages: int(info.Size() / PageSize)}, nil
}

// Close closes the underlying file handle without deleting it.
func (pf *File) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.closed {
		return nil
	}
	pf.closed = true
	return pf.f.Close()
}

// CloseLogged closes the file and logs (rather than returns) any close
// error. For best-effort cleanup on a path that is already returning a
// different, more relevant error to its caller.
func (pf *File) CloseLogged() {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.closed {
		return
	}
	pf.closed = true
	util.CloseFileFunc(pf.f)
}

// Destroy removes the file at path from disk; a file that is already
// gone is not an error. It does not close any open File for that path.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("pagefile: destroy %s: %w", path, err)
	}
	return nil
}

// NumPages returns the current page count.
func (pf *File) NumPages() int {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.numPages
}

// ReadBlock reads page pageNum into buf, which must be exactly PageSize
// bytes. Reading a page at or beyond the current page count fails with
// ErrPageOutOfRange.
func (pf *File) ReadBlock(pageNum int, buf []byte) error {
	if len(buf) != PageSize {
		return ErrBadBufferLength
	}
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	if pf.closed {
		return ErrClosed
	}
	if pageNum < 0 || pageNum >= pf.numPages {
		return ErrPageOutOfRange
	}
	off := int64(pageNum) * PageSize
	n, err := pf.f.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("pagefile: read page %d: %w", pageNum, err)
	}
	for i := n; i < PageSize; i++ {
		buf[i] = 0
	}
	return nil
}

// WriteBlock writes buf (exactly PageSize bytes) to page pageNum. The page
// must already exist; callers grow the file with EnsureCapacity first.
func (pf *File) WriteBlock(pageNum int, buf []byte) error {
	if len(buf) != PageSize {
		return ErrBadBufferLength
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.closed {
		return ErrClosed
	}
	if pageNum < 0 || pageNum >= pf.numPages {
		return ErrPageOutOfRange
	}
	off := int64(pageNum) * PageSize
	n, err := pf.f.WriteAt(buf, off)
	if err != nil {
		return fmt.Errorf("pagefile: write page %d: %w", pageNum, err)
	}
	if n != PageSize {
		return io.ErrShortWrite
	}
	return nil
}

// EnsureCapacity grows the file with zero pages until it has at least n
// pages. It is a no-op if the file is already that large.
func (pf *File) EnsureCapacity(n int) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.closed {
		return ErrClosed
	}
	if n <= pf.numPages {
		return nil
	}
	if err := pf.f.Truncate(int64(n) * PageSize); err != nil {
		return fmt.Errorf("pagefile: grow to %d pages: %w", n, err)
	}
	pf.numPages = n
	return nil
}

// AppendEmpty grows the file by one zero page and returns its page number.
func (pf *File) AppendEmpty() (int, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.closed {
		return -1, ErrClosed
	}
	next := pf.numPages
	if err := pf.f.Truncate(int64(next+1) * PageSize); err != nil {
		return -1, fmt.Errorf("pagefile: grow to %d pages: %w", next+1, err)
	}
	pf.numPages = next + 1
	return next, nil
}
