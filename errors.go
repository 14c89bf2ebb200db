package dirserve

import "errors"

var (
	// ErrNotFound is returned when the requested path does not exist
	ErrNotFound = errors.New("not found")
	// ErrNotADirectory is returned when an archive is requested for a non-directory
	ErrNotADirectory = errors.New("not a directory")
	// ErrPathTraversal is returned when a client path escapes the served root
	ErrPathTraversal = errors.New("path escapes served root")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrExists is returned when an upload targets an existing file and overwrite is disabled
	ErrExists = errors.New("already exists")
	// ErrEncode is returned when entry content becomes unreadable mid-stream.
	// Terminal for the request: bytes already flushed cannot be retracted, so
	// the connection is closed without a valid archive trailer.
	ErrEncode = errors.New("archive encoding failed")
)
