package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/dirserve/dirserve"
	"github.com/dirserve/dirserve/credentials"
)

type Service interface {
	Get(ctx context.Context, path string) (dirserve.FileInfo, io.ReadSeekCloser, error)
	List(ctx context.Context, path string) (dirserve.Listing, error)
	Archive(ctx context.Context, req dirserve.ArchiveRequest, dst io.Writer) error
	ArchiveName(req dirserve.ArchiveRequest) string
	Upload(ctx context.Context, path string, content io.Reader, overwrite bool) (dirserve.UploadResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// ArchiveEnabled allows ?download=tar|zip on directories.
	ArchiveEnabled bool
	// UploadEnabled allows PUT requests.
	UploadEnabled bool
	// UploadOverwrite allows PUT to replace existing files.
	UploadOverwrite bool
	// Auth is the account store; nil means public access.
	Auth credentials.Store
	CORS CORSConfig
}

// Handler provides the HTTP surface: directory listings, file downloads,
// streamed archives and optional uploads.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured. Listing
// responses (HTML and JSON) are gzip-compressed when the client accepts it;
// archive and file bodies are never re-compressed.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(BasicAuthMiddleware(h.config.Auth))

	gzipListings, err := gziphandler.GzipHandlerWithOpts(
		gziphandler.ContentTypes([]string{"text/html", "application/json"}),
	)
	if err != nil {
		// Only reachable with invalid options, which are constants here.
		panic(fmt.Sprintf("configure gzip handler: %v", err))
	}
	r.Use(gzipListings)

	r.Get("/*", h.handleGet)
	if h.config.UploadEnabled {
		r.Put("/*", h.handlePut)
	}

	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p := strings.Trim(r.URL.Path, "/")

	if p != "" && !dirserve.IsValidPath(p) {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	if format := r.URL.Query().Get("download"); format != "" {
		h.handleArchive(w, r, p, format)
		return
	}

	listing, err := h.service.List(r.Context(), p)
	switch {
	case err == nil:
		h.renderListing(w, r, listing)
	case errors.Is(err, dirserve.ErrNotADirectory):
		h.serveFile(w, r, p)
	default:
		HandleError(w, err)
	}
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, p string) {
	info, content, err := h.service.Get(r.Context(), p)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	http.ServeContent(w, r, path.Base(p), info.ModTime, content)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request, p, format string) {
	if !h.config.ArchiveEnabled {
		WriteError(w, http.StatusNotFound, "archive_disabled", "Archive downloads are disabled")
		return
	}

	f, err := dirserve.ParseFormat(format)
	if err != nil {
		HandleError(w, err)
		return
	}

	req := dirserve.ArchiveRequest{Path: p, Format: f}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.service.ArchiveName(req)))

	// Track whether the response body has started: resolution errors before
	// the first chunk can still become a proper status code, anything after
	// that can only end as a truncated stream.
	cw := &countingWriter{w: w}
	if err := h.service.Archive(r.Context(), req, cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			HandleError(w, err)
			return
		}
		if errors.Is(err, context.Canceled) {
			slog.Debug("client disconnected during archive", "path", p, "bytes", cw.n)
			return
		}
		slog.Error("archive stream aborted", "path", p, "format", f, "bytes", cw.n, "err", err)
	}
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimPrefix(r.URL.Path, "/")

	if p == "" || !dirserve.IsValidPath(p) {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	result, err := h.service.Upload(r.Context(), p, r.Body, h.config.UploadOverwrite)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

// countingWriter records how many body bytes went out and forwards flushes
// so each archive chunk reaches the client before the next one is produced.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (cw *countingWriter) Flush() {
	if f, ok := cw.w.(http.Flusher); ok {
		f.Flush()
	}
}
