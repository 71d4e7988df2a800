package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"

	"copyartifacts/internal/artifact"
)

// Map returns the destination for filename found subpath below its source
// directory.
// With flatten the subpath is dropped and the file lands directly in destDir.
func Map(subpath, filename, destDir string, flatten bool) string {
	if flatten || subpath == "" || subpath == "." {
		return filepath.Join(destDir, filename)
	}
	return filepath.Join(destDir, subpath, filename)
}

// Subpath returns the directory components between sourceDir and filePath,
// or "" when the file sits directly in sourceDir.
func Subpath(sourceDir, filePath string) (string, error) {
	if !artifact.IsUnder(filePath, sourceDir) {
		return "", fmt.Errorf("%q is not under %q", filePath, sourceDir)
	}
	rel, err := filepath.Rel(filepath.Clean(sourceDir), filepath.Dir(filepath.Clean(filePath)))
	if err != nil || escapes(rel) {
		// The prefix may differ only in Unicode normalization.
		rel, err = filepath.Rel(artifact.Key(sourceDir), artifact.Key(filepath.Dir(filePath)))
		if err != nil {
			return "", err
		}
	}
	if rel == "." {
		return "", nil
	}
	if escapes(rel) {
		return "", fmt.Errorf("%q is not under %q", filePath, sourceDir)
	}
	return rel, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Rule maps files below one item's source directory into its destination.
type Rule struct {
	SourceDir string
	DestDir   string
	Flatten   bool
}

// NewRule builds a rule from an item's source and destination directories.
func NewRule(sourceDir, destDir string, flatten bool) Rule {
	return Rule{SourceDir: filepath.Clean(sourceDir), DestDir: filepath.Clean(destDir), Flatten: flatten}
}

// Apply maps filePath through the rule.
func (r Rule) Apply(filePath string) (string, error) {
	sub, err := Subpath(r.SourceDir, filePath)
	if err != nil {
		return "", err
	}
	return Map(sub, filepath.Base(filePath), r.DestDir, r.Flatten), nil
}

// Unique returns dest, or the first free "name-N.ext" variant when dest is
// already in used. The chosen path is added to used.
func Unique(dest string, used map[string]struct{}) string {
	if _, taken := used[dest]; !taken {
		used[dest] = struct{}{}
		return dest
	}
	dir := filepath.Dir(dest)
	name := filepath.Base(dest)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfiles such as ".nfo" have no stem; number the whole name.
		stem, ext = name, ""
	}
	for n := 2; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
}
