package dirserve

import (
	"strings"
	"unicode/utf8"
)

// IsValidPath validates that a path string is acceptable as a relative path
// inside the served root. It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." segments (path traversal)
//   - does not contain "//" (empty segments) or "." segments
//   - does not contain backslashes (no OS-specific separators on the wire)
//   - is valid UTF-8
//   - does not contain null bytes or other control characters
//
// Unlike stricter object-store rules, spaces and most punctuation are allowed:
// these are real filenames on disk, not API keys.
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, `\`) || strings.Contains(p, "//") {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}
