package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"log/slog"

	"github.com/dirserve/dirserve"
)

// tarEncoder writes ustar-compatible headers with uncompressed content.
// archive/tar pads each file to the 512-byte block boundary and Close emits
// the two trailing zero blocks.
type tarEncoder struct {
	tw  *tar.Writer
	buf []byte
}

func newTarEncoder(w io.Writer) *tarEncoder {
	return &tarEncoder{tw: tar.NewWriter(w), buf: make([]byte, copyBufSize)}
}

func (e *tarEncoder) WriteEntry(entry dirserve.Entry) error {
	hdr := &tar.Header{
		Name:    entry.Path,
		Mode:    int64(entry.Mode.Perm()),
		ModTime: entry.ModTime,
	}

	switch entry.Kind {
	case dirserve.KindDir:
		hdr.Typeflag = tar.TypeDir
		hdr.Name += "/"
	case dirserve.KindSymlink:
		hdr.Typeflag = tar.TypeSymlink
		hdr.Linkname = entry.LinkTarget
	default:
		hdr.Typeflag = tar.TypeReg
		hdr.Size = entry.Size
	}

	if entry.Kind != dirserve.KindFile {
		if err := e.tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("%w: write header for %s: %v", dirserve.ErrEncode, entry.Path, err)
		}
		return nil
	}

	// Open before the header goes out: a vanished file can still be skipped
	// cleanly at this point.
	f, err := entry.Open()
	if err != nil {
		slog.Warn("skipping unreadable entry", "path", entry.Path, "err", err)
		return nil
	}
	defer func() { _ = f.Close() }()

	if err := e.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%w: write header for %s: %v", dirserve.ErrEncode, entry.Path, err)
	}

	// The header promised hdr.Size bytes. Anything else now means the file
	// changed underneath us and the stream cannot be repaired.
	n, err := io.CopyBuffer(e.tw, f, e.buf)
	if err != nil {
		return fmt.Errorf("%w: copy %s: %v", dirserve.ErrEncode, entry.Path, err)
	}
	if n != entry.Size {
		return fmt.Errorf("%w: %s changed size during read (%d of %d bytes)", dirserve.ErrEncode, entry.Path, n, entry.Size)
	}

	return nil
}

// Close flushes the final block padding and the two all-zero trailer blocks.
func (e *tarEncoder) Close() error {
	return e.tw.Close()
}
