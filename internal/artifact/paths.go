package artifact

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key returns the comparison form of a path: cleaned and NFC-normalized.
func Key(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}

// IsUnder reports whether path equals base or lives beneath it.
func IsUnder(path, base string) bool {
	path = Key(path)
	base = Key(base)
	if path == base {
		return true
	}
	if base == string(filepath.Separator) {
		return strings.HasPrefix(path, base)
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}

// Depth counts the path components of a cleaned absolute path.
func Depth(path string) int {
	path = filepath.Clean(path)
	if path == string(filepath.Separator) {
		return 0
	}
	return strings.Count(path, string(filepath.Separator))
}
