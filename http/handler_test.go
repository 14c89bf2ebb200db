package http_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirserve/dirserve"
	"github.com/dirserve/dirserve/archive"
	"github.com/dirserve/dirserve/credentials"
	"github.com/dirserve/dirserve/filesystem"
	dirservehttp "github.com/dirserve/dirserve/http"
)

func newTestHandler(t *testing.T, cfg dirservehttp.HandlerConfig) http.Handler {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "sub", "b.txt"), nil, 0o644))

	store, err := filesystem.NewStore(root, filesystem.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc, err := dirserve.NewService(store, archive.NewEncoder)
	require.NoError(t, err)

	return dirservehttp.NewHandler(&cfg, svc).Router()
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_ListingHTML(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{ArchiveEnabled: true})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "Index of /docs")
	assert.Contains(t, body, "a.txt")
	assert.Contains(t, body, "sub/")
	assert.Contains(t, body, "?download=tar")
	assert.Contains(t, body, "?download=zip")
}

func TestHandler_ListingHTML_ArchiveLinksHiddenWhenDisabled(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "?download=")
}

func TestHandler_ListingJSON(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	r := httptest.NewRequest(http.MethodGet, "/docs", nil)
	r.Header.Set("Accept", "application/json")
	w := do(h, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var listing dirserve.Listing
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
	assert.Equal(t, "docs", listing.Path)
	require.Len(t, listing.Entries, 2)
	assert.Equal(t, "a.txt", listing.Entries[0].Name)
	assert.Equal(t, "sub", listing.Entries[1].Name)
	assert.True(t, listing.Entries[1].Dir)
}

func TestHandler_FileDownload(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs/a.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "abc", w.Body.String())
}

func TestHandler_NotFound(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs/missing.txt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_PathTraversalRejected(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	r := httptest.NewRequest(http.MethodGet, "/docs", nil)
	r.URL.Path = "/../etc/passwd"
	w := do(h, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ArchiveTar(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{ArchiveEnabled: true})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs?download=tar", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-tar", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="docs.tar"`, w.Header().Get("Content-Disposition"))

	var names []string
	tr := tar.NewReader(w.Body)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	assert.Equal(t, []string{"docs/", "docs/a.txt", "docs/sub/", "docs/sub/b.txt"}, names)
}

func TestHandler_ArchiveZip(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{ArchiveEnabled: true})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs/sub?download=zip", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sub.zip"`, w.Header().Get("Content-Disposition"))

	raw := w.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "sub/", zr.File[0].Name)
	assert.Equal(t, "sub/b.txt", zr.File[1].Name)
}

func TestHandler_ArchiveDisabled(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs?download=tar", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "archive_disabled")
}

func TestHandler_ArchiveUnknownFormat(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{ArchiveEnabled: true})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs?download=rar", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ArchiveOfFileIsError(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{ArchiveEnabled: true})

	// Resolution fails before any body bytes, so a clean status goes out and
	// the attachment header is withdrawn.
	w := do(h, httptest.NewRequest(http.MethodGet, "/docs/a.txt?download=tar", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestHandler_Upload(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{UploadEnabled: true})

	w := do(h, httptest.NewRequest(http.MethodPut, "/incoming/new.txt", strings.NewReader("hello")))
	require.Equal(t, http.StatusOK, w.Code)

	var result dirserve.UploadResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "incoming/new.txt", result.Path)
	assert.Equal(t, int64(5), result.BytesWritten)
	assert.NotEmpty(t, result.Etag)

	// The uploaded file is immediately servable.
	w = do(h, httptest.NewRequest(http.MethodGet, "/incoming/new.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
}

func TestHandler_UploadConflict(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{UploadEnabled: true})

	w := do(h, httptest.NewRequest(http.MethodPut, "/docs/a.txt", strings.NewReader("new")))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_UploadOverwrite(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{UploadEnabled: true, UploadOverwrite: true})

	w := do(h, httptest.NewRequest(http.MethodPut, "/docs/a.txt", strings.NewReader("new")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_UploadDisabled(t *testing.T) {
	h := newTestHandler(t, dirservehttp.HandlerConfig{})

	w := do(h, httptest.NewRequest(http.MethodPut, "/incoming/new.txt", strings.NewReader("x")))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandler_BasicAuth(t *testing.T) {
	store, err := credentials.NewStore(credentials.AccountsConfig{Inline: []string{"alice:hunter2"}})
	require.NoError(t, err)

	h := newTestHandler(t, dirservehttp.HandlerConfig{Auth: store})

	w := do(h, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	r := httptest.NewRequest(http.MethodGet, "/docs", nil)
	r.SetBasicAuth("alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, do(h, r).Code)

	r = httptest.NewRequest(http.MethodGet, "/docs", nil)
	r.SetBasicAuth("alice", "hunter2")
	assert.Equal(t, http.StatusOK, do(h, r).Code)
}
