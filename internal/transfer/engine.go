package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/fileutil"
	"copyartifacts/internal/logging"
	"copyartifacts/internal/services"
)

const stage = "transfer"

// Options configures an Engine.
type Options struct {
	Mode artifact.Mode
	// DeleteOriginals removes the source after a verified move. When false a
	// move leaves the source in place.
	DeleteOriginals bool
	// Observer, when set, is called once per finished entry.
	Observer func(artifact.Outcome)
}

// Engine executes planned entries against the filesystem.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine constructs an Engine. An empty mode means copy.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if opts.Mode == "" {
		opts.Mode = artifact.ModeCopy
	}
	return &Engine{opts: opts, logger: logging.NewComponentLogger(logger, "transfer")}
}

// Mode returns the engine's transfer mode.
func (e *Engine) Mode() artifact.Mode { return e.opts.Mode }

// Execute performs every entry in order and reports one outcome per entry.
// A failed entry never stops the others. Once ctx is done the remaining
// entries are reported as canceled without touching the filesystem.
func (e *Engine) Execute(ctx context.Context, entries []artifact.Entry) []artifact.Outcome {
	logger := logging.WithContext(services.WithStage(ctx, stage), e.logger)
	outcomes := make([]artifact.Outcome, 0, len(entries))
	for _, entry := range entries {
		var outcome artifact.Outcome
		if err := ctx.Err(); err != nil {
			outcome = artifact.Outcome{
				Entry:  entry,
				Status: artifact.StatusCanceled,
				Kind:   services.KindCanceled,
				Err:    services.Wrap(services.ErrCanceled, stage, string(e.opts.Mode), entry.Artifact.Path, err),
			}
		} else {
			outcome = e.transfer(entry)
			e.log(logger, outcome)
		}
		outcomes = append(outcomes, outcome)
		if e.opts.Observer != nil {
			e.opts.Observer(outcome)
		}
	}
	return outcomes
}

func (e *Engine) transfer(entry artifact.Entry) artifact.Outcome {
	status, err := e.apply(entry.Artifact.Path, entry.Dest)
	outcome := artifact.Outcome{Entry: entry, Status: status, Err: err}
	if err != nil {
		outcome.Status = artifact.StatusFailed
		outcome.Kind = services.Kind(err)
	}
	return outcome
}

func (e *Engine) apply(src, dst string) (artifact.Status, error) {
	op := string(e.opts.Mode)

	dstInfo, dstErr := os.Lstat(dst)
	dstExists := dstErr == nil
	if dstErr != nil && !errors.Is(dstErr, fs.ErrNotExist) {
		return "", services.Wrap(services.ErrTransferIO, stage, op, "stat destination "+dst, dstErr)
	}
	if dstExists && dstInfo.IsDir() {
		return "", services.Wrap(services.ErrTransferConflict, stage, op, "destination is a directory: "+dst, nil)
	}

	srcInfo, srcErr := os.Stat(src)
	if srcErr != nil {
		if errors.Is(srcErr, fs.ErrNotExist) && dstExists {
			// Source already moved here by an earlier run.
			return artifact.StatusUnchanged, nil
		}
		return "", services.Wrap(services.ErrTransferIO, stage, op, "stat source "+src, srcErr)
	}
	if !srcInfo.Mode().IsRegular() {
		return "", services.Wrap(services.ErrTransferIO, stage, op, "not a regular file: "+src, nil)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransferIO, stage, op, "create destination directory", err)
	}

	switch {
	case e.opts.Mode == artifact.ModeSymlink || e.opts.Mode == artifact.ModeHardlink:
		return e.link(src, dst, dstExists)
	case dstExists && resolvesTo(dst, dstInfo, srcInfo):
		// The destination already is the source file; it is never removed.
		return artifact.StatusUnchanged, nil
	case e.opts.Mode == artifact.ModeMove:
		return e.move(src, dst, dstExists)
	default:
		return e.copy(src, dst, dstExists)
	}
}

// resolvesTo reports whether dst, following a symlink, is the same file as
// the source.
func resolvesTo(dst string, dstInfo, srcInfo os.FileInfo) bool {
	if dstInfo.Mode()&os.ModeSymlink != 0 {
		target, err := os.Stat(dst)
		if err != nil {
			return false
		}
		dstInfo = target
	}
	return os.SameFile(srcInfo, dstInfo)
}

func (e *Engine) copy(src, dst string, dstExists bool) (artifact.Status, error) {
	if dstExists {
		same, err := fileutil.SameContent(src, dst)
		if err != nil {
			return "", services.Wrap(services.ErrTransferIO, stage, "copy", "compare with destination", err)
		}
		if same {
			return artifact.StatusUnchanged, nil
		}
		return "", services.Wrap(services.ErrTransferConflict, stage, "copy", "destination exists with different content: "+dst, nil)
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", services.Wrap(services.ErrTransferIO, stage, "copy", "", err)
	}
	return artifact.StatusTransferred, nil
}

// move overwrites a destination whose content differs.
func (e *Engine) move(src, dst string, dstExists bool) (artifact.Status, error) {
	if dstExists {
		same, err := fileutil.SameContent(src, dst)
		if err != nil {
			return "", services.Wrap(services.ErrTransferIO, stage, "move", "compare with destination", err)
		}
		if same {
			if e.opts.DeleteOriginals {
				if err := os.Remove(src); err != nil {
					return "", services.Wrap(services.ErrTransferIO, stage, "move", "remove source", err)
				}
			}
			return artifact.StatusUnchanged, nil
		}
	}
	if !e.opts.DeleteOriginals {
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return "", services.Wrap(services.ErrTransferIO, stage, "move", "copy keeping source", err)
		}
		return artifact.StatusTransferred, nil
	}
	if err := fileutil.MoveFile(src, dst); err != nil {
		return "", services.Wrap(services.ErrTransferIO, stage, "move", "", err)
	}
	return artifact.StatusTransferred, nil
}

func (e *Engine) link(src, dst string, dstExists bool) (artifact.Status, error) {
	hard := e.opts.Mode == artifact.ModeHardlink
	op := string(e.opts.Mode)
	if dstExists {
		if fileutil.LinksTo(src, dst, hard) {
			return artifact.StatusUnchanged, nil
		}
		return "", services.Wrap(services.ErrTransferConflict, stage, op, "destination exists and is not a link to the source: "+dst, nil)
	}
	if err := fileutil.Link(src, dst, hard); err != nil {
		return "", services.Wrap(services.ErrTransferIO, stage, op, "", err)
	}
	return artifact.StatusTransferred, nil
}

func (e *Engine) log(logger *slog.Logger, outcome artifact.Outcome) {
	switch outcome.Status {
	case artifact.StatusTransferred:
		logger.Info("artifact transferred",
			logging.String("source", outcome.Entry.Artifact.Path),
			logging.String("dest", outcome.Entry.Dest),
			logging.String("mode", string(e.opts.Mode)),
		)
	case artifact.StatusUnchanged:
		logger.Debug("artifact already in place",
			logging.String("source", outcome.Entry.Artifact.Path),
			logging.String("dest", outcome.Entry.Dest),
		)
	case artifact.StatusFailed:
		logging.WarnWithContext(logger, "artifact transfer failed", outcome.Kind,
			logging.String("source", outcome.Entry.Artifact.Path),
			logging.String("dest", outcome.Entry.Dest),
			logging.Error(outcome.Err),
			logging.String(logging.FieldImpact, "artifact was not transferred"),
			logging.String(logging.FieldErrorHint, hint(outcome.Kind)),
		)
	}
}

func hint(kind string) string {
	switch kind {
	case services.KindTransferConflict:
		return "remove or rename the existing destination file, or rerun with move"
	default:
		return fmt.Sprintf("check permissions and free space, then rerun the %s", stage)
	}
}
