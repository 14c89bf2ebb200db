package dirserve

import (
	"context"
	"io"
)

// Store defines the interface for sandboxed access to the served tree.
// All paths are relative to the served root, forward-slash separated.
// Implementations must never read outside the served root, including through
// symlinks, and must handle concurrent requests safely (the served tree is
// read-mostly shared state; no store method may hold cross-request locks
// while blocked on filesystem I/O).
//
// All methods accept a context for cancellation and timeout control.
type Store interface {
	// Name returns the base name of the served root directory, used to name
	// archives of the root itself.
	Name() string

	// ResolveDir validates a client-supplied relative path and returns the
	// cleaned path of an existing directory ("." for the root).
	//
	// Returns:
	//   - ErrPathTraversal if the path escapes the served root
	//   - ErrNotFound if the path does not exist
	//   - ErrNotADirectory if the path exists but is not a directory
	ResolveDir(ctx context.Context, path string) (string, error)

	// Stat returns metadata for a single regular file.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// Open opens a regular file for reading. The caller owns the returned
	// handle and must close it.
	Open(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// List returns one directory level in byte-wise name order.
	List(ctx context.Context, path string) (Listing, error)

	// Walk traverses the subtree rooted at dir depth-first, directories
	// before their children, siblings in byte-wise name order, calling fn
	// for every entry including dir itself. Two walks of an unmodified tree
	// yield identical sequences. Unreadable entries are logged and skipped;
	// an error returned by fn aborts the walk and is returned unchanged.
	Walk(ctx context.Context, dir string, fn func(Entry) error) error

	// Write atomically stores content at path, creating intermediate
	// directories. Returns ErrExists if the target exists and overwrite is
	// false.
	Write(ctx context.Context, path string, content io.Reader, overwrite bool) (UploadResult, error)
}

// Encoder converts a sequence of entries into archive-formatted bytes.
// WriteEntry streams one entry's content through a bounded buffer before
// returning; Close emits the format trailer (tar zero blocks, zip central
// directory). Aborting an archive means simply not calling Close: the encoder
// never buffers entry content, so there is nothing else to release.
type Encoder interface {
	WriteEntry(Entry) error
	Close() error
}

// EncoderFactory constructs an Encoder for the given format writing to w.
type EncoderFactory func(f Format, w io.Writer) (Encoder, error)
