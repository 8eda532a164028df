package bufferpool

import "errors"

var (
	// ErrFileMissing is returned by Init when the backing page file does
	// not already exist on disk.
	ErrFileMissing = errors.New("bufferpool: page file does not exist")

	// ErrNotInitialized is returned by operations on a pool that was
	// already shut down (or never initialized).
	ErrNotInitialized = errors.New("bufferpool: not initialized")

	// ErrShuttingDown is returned by PinPage once Shutdown has been
	// called, before it completes.
	ErrShuttingDown = errors.New("bufferpool: pool is shutting down")

	// ErrPinFull is returned when every frame is pinned and no victim
	// can be chosen.
	ErrPinFull = errors.New("bufferpool: pin failed, all frames pinned")

	// ErrNotResident is returned by Unpin/MarkDirty/ForcePage when the
	// handle's page is not (or no longer) resident in its frame.
	ErrNotResident = errors.New("bufferpool: page not resident")

	// ErrNotPinned is returned by Unpin when the frame's fix count is
	// already zero.
	ErrNotPinned = errors.New("bufferpool: page not pinned")

	// ErrFlushPinned is returned by ForceFlushPool when any frame is
	// still pinned.
	ErrFlushPinned = errors.New("bufferpool: cannot force-flush, a page is pinned")

	// ErrUnknownStrategy is returned by Init for an unrecognized
	// replacement strategy kind.
	ErrUnknownStrategy = errors.New("bufferpool: unknown replacement strategy")
)
