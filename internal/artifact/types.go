package artifact

import (
	"fmt"
	"path/filepath"
)

// Artifact is a file found in a source tree that no record imported as media.
type Artifact struct {
	// Path is the absolute location of the file.
	Path string
	// SourceDir is the directory the artifact was found under.
	SourceDir string
	// Subpath holds the directory components between SourceDir and the file;
	// empty when the file sits directly in SourceDir.
	Subpath string
}

// Name returns the artifact's file name.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// Entry pairs an artifact with the destination it resolved to.
type Entry struct {
	Artifact Artifact
	Dest     string
	// Owner is the source dir of the record the artifact attached to.
	Owner string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s -> %s", e.Artifact.Path, e.Dest)
}

// Mode selects how an artifact reaches its destination.
type Mode string

const (
	ModeCopy     Mode = "copy"
	ModeMove     Mode = "move"
	ModeSymlink  Mode = "symlink"
	ModeHardlink Mode = "hardlink"
)

// ParseMode maps a configuration value to a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "", ModeCopy:
		return ModeCopy, nil
	case ModeMove, ModeSymlink, ModeHardlink:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("unsupported transfer mode %q", value)
	}
}

// Status is the result of transferring one entry.
type Status string

const (
	StatusTransferred Status = "transferred"
	StatusUnchanged   Status = "unchanged"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
)

// Outcome reports what happened to one plan entry.
type Outcome struct {
	Entry  Entry
	Status Status
	Kind   string
	Err    error
}

// Skip records an artifact the resolver declined to plan and why.
type Skip struct {
	Artifact   Artifact
	Kind       string
	Reason     string
	Candidates []string
}
