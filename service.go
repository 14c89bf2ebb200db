package dirserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
)

// Service combines a tree store and archive encoders into the operations the
// HTTP layer consumes. One Service instance is shared by all requests; every
// archive generation gets its own walker position and encoder state, so
// requests never share open file handles.
type Service struct {
	store      Store
	newEncoder EncoderFactory
}

// NewService creates a Service backed by the given store and encoder factory.
func NewService(store Store, newEncoder EncoderFactory) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: store is required")
	}
	if newEncoder == nil {
		return nil, errors.New("new service: encoder factory is required")
	}
	return &Service{store: store, newEncoder: newEncoder}, nil
}

// Get opens a single file for download. The caller must close the returned
// reader.
func (s *Service) Get(ctx context.Context, p string) (FileInfo, io.ReadSeekCloser, error) {
	info, err := s.store.Stat(ctx, p)
	if err != nil {
		return FileInfo{}, nil, err
	}

	content, err := s.store.Open(ctx, p)
	if err != nil {
		return FileInfo{}, nil, err
	}

	return info, content, nil
}

// List returns one directory level for rendering a listing.
func (s *Service) List(ctx context.Context, p string) (Listing, error) {
	dir, err := s.store.ResolveDir(ctx, p)
	if err != nil {
		return Listing{}, err
	}
	return s.store.List(ctx, dir)
}

// Upload atomically stores content at path.
func (s *Service) Upload(ctx context.Context, p string, content io.Reader, overwrite bool) (UploadResult, error) {
	if !IsValidPath(p) {
		return UploadResult{}, fmt.Errorf("%w: invalid upload path %q", ErrInvalidInput, p)
	}
	return s.store.Write(ctx, p, content, overwrite)
}

// ArchiveName returns the download filename for an archive request
// ("<subtree>.tar" or "<subtree>.zip"; the served root's own name for the
// empty path).
func (s *Service) ArchiveName(req ArchiveRequest) string {
	base := path.Base(path.Clean("/" + req.Path))
	if base == "/" || base == "." {
		base = s.store.Name()
	}
	return req.Format.Filename(base)
}

// Archive streams the requested subtree into dst as a single archive.
//
// The pipeline is strictly one-way: resolve, then walk entry by entry, each
// entry encoded and written to dst before the next is read. dst is wrapped so
// that every chunk observes cancellation and is flushed to the client before
// the next chunk is produced; backpressure comes from the blocking Write on
// the underlying connection. On cancellation or a write failure the walk
// stops within one chunk, the current entry's handle is closed, and no
// trailer is written, so the client sees a truncated archive.
//
// An entry that cannot be opened is skipped (the archive stays valid but
// partial, with a logged warning). An entry whose content becomes unreadable
// after its header was emitted is ErrEncode and terminal.
func (s *Service) Archive(ctx context.Context, req ArchiveRequest, dst io.Writer) error {
	if !req.Format.IsValid() {
		return fmt.Errorf("%w: invalid archive format %q", ErrInvalidInput, req.Format)
	}

	dir, err := s.store.ResolveDir(ctx, req.Path)
	if err != nil {
		return err
	}

	enc, err := s.newEncoder(req.Format, &chunkWriter{ctx: ctx, w: dst})
	if err != nil {
		return fmt.Errorf("create %s encoder: %w", req.Format, err)
	}

	if err := s.store.Walk(ctx, dir, enc.WriteEntry); err != nil {
		// No Close: a trailer over a broken stream would falsely mark the
		// archive complete.
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Client disconnect or deadline; not a failure of ours.
			return ctxErr
		}
		slog.Error("archive aborted", "path", req.Path, "format", req.Format, "err", err)
		return err
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish %s archive: %w", req.Format, err)
	}
	return nil
}

// flusher is the subset of http.Flusher the pump needs. Declared locally so
// the core does not depend on net/http.
type flusher interface {
	Flush()
}

// chunkWriter is the stream pump boundary: it converts the encoder's push
// writes into cancellation-aware, immediately-flushed chunks. It checks the
// context before every write so a disconnected client stops the pipeline
// within one chunk, and flushes after every write so the encoder never runs
// ahead of what the client has accepted.
type chunkWriter struct {
	ctx context.Context
	w   io.Writer
}

func (cw *chunkWriter) Write(p []byte) (int, error) {
	if err := cw.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := cw.w.Write(p)
	if err != nil {
		return n, err
	}

	if f, ok := cw.w.(flusher); ok {
		f.Flush()
	}
	return n, nil
}
