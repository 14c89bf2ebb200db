// Package filesystem provides the os.Root-backed tree store for dirserve.
// The root sandbox guarantees every open and stat stays inside the served
// directory, so path containment is enforced at the syscall layer in addition
// to the lexical validation done up front.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dirserve/dirserve"
)

// Options holds traversal policy knobs.
type Options struct {
	// FollowSymlinks descends into symlinked directories (cycle-checked).
	// Off by default: unfollowed symlinks are recorded as symlink entries.
	FollowSymlinks bool
	// IncludeHidden includes dotfiles in listings and archives.
	IncludeHidden bool
}

// Store provides sandboxed access to one served directory.
type Store struct {
	root *os.Root
	// realPath is the symlink-resolved absolute served path, used to bound
	// followed symlink targets.
	realPath string
	name     string
	opts     Options
}

// NewStore opens dir as the served root. The directory must exist.
func NewStore(dir string, opts Options) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve served path: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve served path: %w", err)
	}

	root, err := os.OpenRoot(realPath)
	if err != nil {
		return nil, fmt.Errorf("open served root: %w", err)
	}

	name := filepath.Base(realPath)
	if name == string(filepath.Separator) || name == "." {
		name = "root"
	}

	return &Store{root: root, realPath: realPath, name: name, opts: opts}, nil
}

// Close releases the root handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// Name returns the base name of the served directory.
func (s *Store) Name() string {
	return s.name
}

// cleanPath lexically validates a client path and returns it cleaned
// ("." for the root). The os.Root sandbox catches anything that slips
// through, including symlink escapes.
func cleanPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ".", nil
	}

	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", dirserve.ErrPathTraversal, p)
	}
	if cleaned != p && cleaned != strings.TrimSuffix(p, "/") {
		return "", fmt.Errorf("%w: %q", dirserve.ErrInvalidInput, p)
	}

	return cleaned, nil
}

// rootEscapeMessage is the error text os.Root attaches to operations that
// resolve outside the root. The stdlib exports no sentinel for this
// condition, so the message is matched here and nowhere else.
const rootEscapeMessage = "escapes from parent"

// isRootEscape reports whether err is the sandbox refusing a path that
// resolves outside the served root. Root operations wrap the condition in an
// *fs.PathError, whose inner error carries the message.
func isRootEscape(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return strings.Contains(pathErr.Err.Error(), rootEscapeMessage)
	}
	return strings.Contains(err.Error(), rootEscapeMessage)
}

// classify maps os.Root errors onto the domain sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return dirserve.ErrNotFound
	case isRootEscape(err):
		return dirserve.ErrPathTraversal
	default:
		return err
	}
}

// ResolveDir validates a client-supplied relative path against the served
// root and confirms it names an existing directory.
func (s *Store) ResolveDir(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleaned, err := cleanPath(p)
	if err != nil {
		return "", err
	}

	info, err := s.root.Stat(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, classify(err))
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resolve %q: %w", p, dirserve.ErrNotADirectory)
	}

	return cleaned, nil
}

// Stat returns metadata for a regular file.
func (s *Store) Stat(ctx context.Context, p string) (dirserve.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return dirserve.FileInfo{}, err
	}

	cleaned, err := cleanPath(p)
	if err != nil {
		return dirserve.FileInfo{}, err
	}

	info, err := s.root.Stat(cleaned)
	if err != nil {
		return dirserve.FileInfo{}, fmt.Errorf("stat %q: %w", p, classify(err))
	}
	if !info.Mode().IsRegular() {
		return dirserve.FileInfo{}, fmt.Errorf("stat %q: %w: not a regular file", p, dirserve.ErrInvalidInput)
	}

	return dirserve.FileInfo{
		Path:        cleaned,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: detectContentType(cleaned),
	}, nil
}

// Open opens a file for reading. Returns dirserve.ErrNotFound if the file
// does not exist.
func (s *Store) Open(ctx context.Context, p string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(cleaned)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", p, classify(err))
	}

	return f, nil
}

// List returns one directory level in byte-wise name order.
func (s *Store) List(ctx context.Context, dir string) (dirserve.Listing, error) {
	if err := ctx.Err(); err != nil {
		return dirserve.Listing{}, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return dirserve.Listing{}, fmt.Errorf("list %q: %w", dir, classify(err))
	}

	listing := dirserve.Listing{Path: relPath(dir), Entries: []dirserve.ListEntry{}}
	for _, entry := range dirEntries {
		name := entry.Name()
		if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("skipping unreadable entry", "path", path.Join(dir, name), "err", err)
			continue
		}

		listing.Entries = append(listing.Entries, dirserve.ListEntry{
			Name:    name,
			Path:    path.Join(relPath(dir), name),
			Dir:     info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return listing, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to the given path using a temp file and
// rename. It creates intermediate directories as needed and returns an
// UploadResult containing the number of bytes written and a SHA256-based
// etag. The operation respects context cancellation.
func (s *Store) Write(ctx context.Context, p string, content io.Reader, overwrite bool) (dirserve.UploadResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return dirserve.UploadResult{}, ctxErr
	}

	cleaned, err := cleanPath(p)
	if err != nil {
		return dirserve.UploadResult{}, err
	}

	if !overwrite {
		if _, statErr := s.root.Stat(cleaned); statErr == nil {
			return dirserve.UploadResult{}, fmt.Errorf("write %q: %w", p, dirserve.ErrExists)
		}
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return dirserve.UploadResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	written, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return dirserve.UploadResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return dirserve.UploadResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := path.Dir(cleaned)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return dirserve.UploadResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, cleaned); renameErr != nil {
		return dirserve.UploadResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true

	return dirserve.UploadResult{
		Path:         cleaned,
		BytesWritten: written,
		Etag:         hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// relPath converts the store-internal "." root marker back to the empty
// client-facing path.
func relPath(dir string) string {
	if dir == "." {
		return ""
	}
	return dir
}

func detectContentType(p string) string {
	ext := path.Ext(p)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
