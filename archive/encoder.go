// Package archive implements the streaming tar and zip encoders.
//
// Both encoders consume entries one at a time and write archive-formatted
// bytes straight through to the destination writer: file content passes
// through a fixed-size copy buffer, so peak memory is independent of file
// size. Zip central-directory bookkeeping grows with entry count only.
//
// A file that cannot be opened is skipped with a warning and the archive
// stays valid but partial. A file that becomes unreadable after its header
// was emitted is dirserve.ErrEncode: the flushed prefix cannot be retracted,
// so the caller must close the connection without a trailer.
package archive

import (
	"fmt"
	"io"

	"github.com/dirserve/dirserve"
)

// copyBufSize bounds the in-flight file content per archive generation.
const copyBufSize = 32 * 1024

// NewEncoder returns the encoder for the given format writing to w.
// It satisfies dirserve.EncoderFactory.
func NewEncoder(f dirserve.Format, w io.Writer) (dirserve.Encoder, error) {
	switch f {
	case dirserve.FormatTar:
		return newTarEncoder(w), nil
	case dirserve.FormatZip:
		return newZipEncoder(w), nil
	default:
		return nil, fmt.Errorf("%w: unknown archive format %q", dirserve.ErrInvalidInput, f)
	}
}
