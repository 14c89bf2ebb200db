package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/flate"

	"github.com/dirserve/dirserve"
)

// zipEncoder streams deflate-compressed entries in single-pass mode: each
// local file header carries the descriptor-follows-content flag, CRC-32 and
// sizes are computed while streaming and emitted in the data descriptor, and
// the central directory accumulated per entry is written on Close. No
// seek-back, so output can go straight to the network.
type zipEncoder struct {
	zw  *zip.Writer
	buf []byte
}

func newZipEncoder(w io.Writer) *zipEncoder {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})
	return &zipEncoder{zw: zw, buf: make([]byte, copyBufSize)}
}

func (e *zipEncoder) WriteEntry(entry dirserve.Entry) error {
	switch entry.Kind {
	case dirserve.KindDir:
		hdr := &zip.FileHeader{
			Name:     entry.Path + "/",
			Method:   zip.Store,
			Modified: entry.ModTime,
		}
		hdr.SetMode(entry.Mode)
		if _, err := e.zw.CreateHeader(hdr); err != nil {
			return fmt.Errorf("%w: write header for %s: %v", dirserve.ErrEncode, entry.Path, err)
		}
		return nil

	case dirserve.KindSymlink:
		hdr := &zip.FileHeader{
			Name:     entry.Path,
			Method:   zip.Store,
			Modified: entry.ModTime,
		}
		hdr.SetMode(entry.Mode)
		w, err := e.zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("%w: write header for %s: %v", dirserve.ErrEncode, entry.Path, err)
		}
		if _, err := io.WriteString(w, entry.LinkTarget); err != nil {
			return fmt.Errorf("%w: write link target for %s: %v", dirserve.ErrEncode, entry.Path, err)
		}
		return nil
	}

	f, err := entry.Open()
	if err != nil {
		slog.Warn("skipping unreadable entry", "path", entry.Path, "err", err)
		return nil
	}
	defer func() { _ = f.Close() }()

	hdr := &zip.FileHeader{
		Name:     entry.Path,
		Method:   zip.Deflate,
		Modified: entry.ModTime,
	}
	hdr.SetMode(entry.Mode)

	w, err := e.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: write header for %s: %v", dirserve.ErrEncode, entry.Path, err)
	}

	if _, err := io.CopyBuffer(w, f, e.buf); err != nil {
		return fmt.Errorf("%w: copy %s: %v", dirserve.ErrEncode, entry.Path, err)
	}

	return nil
}

// Close writes the central directory and the end-of-central-directory record.
func (e *zipEncoder) Close() error {
	return e.zw.Close()
}
