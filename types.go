package dirserve

import (
	"fmt"
	"io"
	"io/fs"
	"time"
)

// Format identifies an archive format. The set is closed: exactly tar and zip.
type Format string

const (
	FormatTar Format = "tar"
	FormatZip Format = "zip"
)

func (f Format) IsValid() bool {
	switch f {
	case FormatTar, FormatZip:
		return true
	default:
		return false
	}
}

// ParseFormat converts a client-supplied string into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown archive format %q (valid formats: tar, zip)", ErrInvalidInput, s)
	}
	return f, nil
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatZip {
		return "application/zip"
	}
	return "application/x-tar"
}

// Filename returns the suggested download filename for an archive of the
// subtree named base.
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// ArchiveRequest describes one archive generation. It is constructed per HTTP
// request, consumed once and never persisted.
type ArchiveRequest struct {
	// Path is the subtree to archive, relative to the served root.
	// Empty means the root itself.
	Path string
	// Format selects tar or zip output.
	Format Format
}

// EntryKind classifies a walked tree entry.
type EntryKind uint8

const (
	KindFile EntryKind = iota
	KindDir
	KindSymlink
)

// Entry is one file, directory or symlink record produced by a tree walk.
// Entries are immutable once yielded. The content accessor can be opened
// independently of traversal order; whoever opens it owns the handle and must
// close it on every exit path.
type Entry struct {
	// Path is the archive-relative path, forward-slash separated and prefixed
	// with the requested subtree's base name ("docs/a.txt").
	Path    string
	Kind    EntryKind
	Size    int64 // regular files only
	Mode    fs.FileMode
	ModTime time.Time
	// LinkTarget is the symlink target, set only for KindSymlink.
	LinkTarget string
	// Open yields the file content. Nil for directories and symlinks.
	Open func() (io.ReadCloser, error)
}

// FileInfo describes a single served file.
type FileInfo struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	ContentType string    `json:"content_type"`
}

// ListEntry is one row of a directory listing.
type ListEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Dir     bool      `json:"dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Listing is one directory level.
type Listing struct {
	Path    string      `json:"path"`
	Entries []ListEntry `json:"entries"`
}

// UploadResult reports a completed upload.
type UploadResult struct {
	Path         string `json:"path"`
	BytesWritten int64  `json:"bytes_written"`
	Etag         string `json:"etag"`
}
