package artifact

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one imported album or singleton as reported by the host.
// It is immutable once built by NewRecord.
type Record struct {
	sourceDir string
	destDir   string
	consumed  map[string]struct{}
	singleton bool
}

// NewRecord validates and cleans the notification payload. Consumed paths that
// are relative are resolved against sourceDir.
func NewRecord(sourceDir, destDir string, consumed []string, singleton bool) (Record, error) {
	sourceDir = strings.TrimSpace(sourceDir)
	destDir = strings.TrimSpace(destDir)
	if sourceDir == "" {
		return Record{}, errors.New("source dir is required")
	}
	if destDir == "" {
		return Record{}, errors.New("dest dir is required")
	}
	if !filepath.IsAbs(sourceDir) {
		return Record{}, errors.New("source dir must be absolute")
	}
	if !filepath.IsAbs(destDir) {
		return Record{}, errors.New("dest dir must be absolute")
	}
	rec := Record{
		sourceDir: filepath.Clean(sourceDir),
		destDir:   filepath.Clean(destDir),
		consumed:  make(map[string]struct{}, len(consumed)),
		singleton: singleton,
	}
	for _, path := range consumed {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(rec.sourceDir, path)
		}
		rec.consumed[Key(path)] = struct{}{}
	}
	return rec, nil
}

// SourceDir returns the directory the item was imported from.
func (r Record) SourceDir() string { return r.sourceDir }

// DestDir returns the directory the importer placed the item's media in.
func (r Record) DestDir() string { return r.destDir }

// Singleton reports whether the record is a singleton import.
func (r Record) Singleton() bool { return r.singleton }

// Consumes reports whether path was imported as media by this record.
func (r Record) Consumes(path string) bool {
	_, ok := r.consumed[Key(path)]
	return ok
}

// ConsumedCount returns the number of media files the record consumed.
func (r Record) ConsumedCount() int { return len(r.consumed) }

// Consumed returns the consumed paths (as keys) in sorted order.
func (r Record) Consumed() []string {
	out := make([]string, 0, len(r.consumed))
	for path := range r.consumed {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
