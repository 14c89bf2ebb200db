package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/dirserve/dirserve"
)

// Walk traverses the subtree rooted at dir depth-first and calls fn for each
// entry, the subtree's own directory entry first. Siblings appear in byte-wise
// name order (fs.ReadDir sorts), so two walks of an unmodified tree yield
// identical sequences and therefore byte-identical archives.
//
// Archive paths are prefixed with the subtree's base name: walking "docs"
// yields "docs", "docs/a.txt", "docs/sub", "docs/sub/b.txt". Walking "."
// uses the served directory's name as the prefix.
//
// Unreadable entries are logged and skipped; the walk continues and the
// archive stays valid but partial. An error returned by fn aborts the walk
// immediately and is returned unchanged, which is the cancellation path.
func (s *Store) Walk(ctx context.Context, dir string, fn func(dirserve.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := s.root.Stat(dir)
	if err != nil {
		return fmt.Errorf("walk %q: %w", dir, classify(err))
	}
	if !info.IsDir() {
		return fmt.Errorf("walk %q: %w", dir, dirserve.ErrNotADirectory)
	}

	base := path.Base(dir)
	if dir == "." {
		base = s.name
	}

	w := &walker{s: s, fn: fn}
	if err := w.fn(dirEntry(base, info)); err != nil {
		return err
	}
	return w.enterDir(ctx, dir, base)
}

// walker carries per-walk state. It is created at the start of one archive
// request and discarded at its end; nothing is shared across requests.
type walker struct {
	s  *Store
	fn func(dirserve.Entry) error
	// chain holds canonical paths of the directories on the current descent
	// path, innermost last. A directory whose canonical path is already on
	// the chain is an ancestor, so descending again would loop. Only
	// maintained when symlinks are followed; without following, a tree
	// cannot reach an ancestor.
	chain []string
}

// enterDir descends into dir, keeping the ancestor chain when symlinks are
// followed. A directory that loops back onto an ancestor is not re-entered;
// its own entry has already been emitted by the caller, only the re-descent
// is suppressed. Sibling aliases (two paths to the same directory that are
// not nested) are not cycles and both get walked.
func (w *walker) enterDir(ctx context.Context, dir, arc string) error {
	if !w.s.opts.FollowSymlinks {
		return w.walkDir(ctx, dir, arc)
	}

	real, err := w.s.realize(dir)
	if err != nil {
		slog.Warn("skipping unresolvable directory", "path", dir, "err", err)
		return nil
	}
	if w.onChain(real) {
		slog.Warn("directory cycle detected, skipping re-descent", "path", dir)
		return nil
	}

	w.chain = append(w.chain, real)
	err = w.walkDir(ctx, dir, arc)
	w.chain = w.chain[:len(w.chain)-1]
	return err
}

func (w *walker) onChain(real string) bool {
	for _, p := range w.chain {
		if p == real {
			return true
		}
	}
	return false
}

func (w *walker) walkDir(ctx context.Context, dir, arc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := fs.ReadDir(w.s.root.FS(), dir)
	if err != nil {
		slog.Warn("skipping unreadable directory", "path", dir, "err", err)
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		if !w.s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}

		entryPath := path.Join(dir, name)
		entryArc := arc + "/" + name

		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			if err := w.walkSymlink(ctx, entry, entryPath, entryArc); err != nil {
				return err
			}

		case entry.IsDir():
			info, err := entry.Info()
			if err != nil {
				slog.Warn("skipping unreadable entry", "path", entryPath, "err", err)
				continue
			}
			if err := w.fn(dirEntry(entryArc, info)); err != nil {
				return err
			}
			if err := w.enterDir(ctx, entryPath, entryArc); err != nil {
				return err
			}

		case entry.Type().IsRegular():
			info, err := entry.Info()
			if err != nil {
				slog.Warn("skipping unreadable entry", "path", entryPath, "err", err)
				continue
			}
			if err := w.emitFile(entryPath, entryArc, info); err != nil {
				return err
			}

		default:
			// Sockets, devices, pipes have no archive representation.
			slog.Debug("skipping special file", "path", entryPath)
		}
	}

	return nil
}

// walkSymlink handles a symlink entry. Without FollowSymlinks (the default)
// the link is recorded as a symlink entry with its target and never descended
// into. With FollowSymlinks, targets inside the served root are walked under
// the link's archive path; targets outside the root, broken links and links
// back onto an ancestor fall back to the symlink-entry representation so the
// two policies stay consistent entry-for-entry.
//
// A followed target is addressed by its canonical root-relative path from
// here on: the sandbox rejects traversal through absolute link targets even
// when they point inside the root, and the canonical path is symlink-free.
func (w *walker) walkSymlink(ctx context.Context, entry fs.DirEntry, entryPath, entryArc string) error {
	target, err := w.s.root.Readlink(entryPath)
	if err != nil {
		slog.Warn("skipping unreadable symlink", "path", entryPath, "err", err)
		return nil
	}

	if !w.s.opts.FollowSymlinks {
		return w.emitSymlink(entry, entryArc, target)
	}

	real, err := w.s.realize(entryPath)
	if err != nil {
		slog.Warn("skipping broken symlink", "path", entryPath, "err", err)
		return nil
	}
	if !contained(w.s.realPath, real) {
		slog.Warn("symlink target outside served root", "path", entryPath, "target", target)
		return w.emitSymlink(entry, entryArc, target)
	}

	rel := w.s.relativize(real)
	info, err := w.s.root.Stat(rel)
	if err != nil {
		slog.Warn("skipping unreadable symlink target", "path", entryPath, "err", err)
		return nil
	}

	if info.IsDir() {
		if w.onChain(real) {
			slog.Warn("symlink cycle detected, skipping re-descent", "path", entryPath)
			return w.emitSymlink(entry, entryArc, target)
		}
		if err := w.fn(dirEntry(entryArc, info)); err != nil {
			return err
		}
		return w.enterDir(ctx, rel, entryArc)
	}

	if info.Mode().IsRegular() {
		return w.emitFile(rel, entryArc, info)
	}
	return nil
}

func (w *walker) emitFile(entryPath, entryArc string, info fs.FileInfo) error {
	return w.fn(dirserve.Entry{
		Path:    entryArc,
		Kind:    dirserve.KindFile,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		// Opened through the root sandbox: a target substituted by a symlink
		// escape after the walk saw it still cannot leave the served root.
		Open: func() (io.ReadCloser, error) {
			f, err := w.s.root.Open(entryPath)
			if err != nil {
				return nil, classify(err)
			}
			return f, nil
		},
	})
}

func (w *walker) emitSymlink(entry fs.DirEntry, entryArc, target string) error {
	info, err := entry.Info()
	if err != nil {
		slog.Warn("skipping unreadable symlink", "path", entryArc, "err", err)
		return nil
	}
	return w.fn(dirserve.Entry{
		Path:       entryArc,
		Kind:       dirserve.KindSymlink,
		Mode:       info.Mode(),
		ModTime:    info.ModTime(),
		LinkTarget: target,
	})
}

func dirEntry(arc string, info fs.FileInfo) dirserve.Entry {
	return dirserve.Entry{
		Path:    arc,
		Kind:    dirserve.KindDir,
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
}

// realize resolves a store-relative path to its canonical absolute form.
func (s *Store) realize(rel string) (string, error) {
	return filepath.EvalSymlinks(filepath.Join(s.realPath, filepath.FromSlash(rel)))
}

// relativize maps a canonical absolute path known to be contained in the
// served root back to a root-relative slash path ("." for the root itself).
func (s *Store) relativize(real string) string {
	if real == s.realPath {
		return "."
	}
	return filepath.ToSlash(strings.TrimPrefix(real, s.realPath+string(filepath.Separator)))
}

func contained(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}
