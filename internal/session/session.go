package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/config"
	"copyartifacts/internal/logging"
	"copyartifacts/internal/resolver"
	"copyartifacts/internal/scanner"
	"copyartifacts/internal/services"
	"copyartifacts/internal/transfer"
)

const lockRetryDelay = 250 * time.Millisecond

// ErrSessionEnded is returned when a session is used after OnSessionEnd.
var ErrSessionEnded = errors.New("import session already ended")

// Hooks is what the host import pipeline calls: once per imported album or
// singleton, then once when the import run is over.
type Hooks interface {
	OnItemImported(sourceDir, destDir string, consumed []string, singleton bool) error
	OnSessionEnd(ctx context.Context, flatten, move bool) (Report, error)
}

// Options configures a Session.
type Options struct {
	Extensions      []string
	MediaExtensions []string
	PrintIgnored    bool
	RootPolicy      string
	// DeleteOriginals applies to move mode only.
	DeleteOriginals bool
	// Link selects symlink or hardlink mode when the session does not move.
	Link artifact.Mode
	// Workers bounds how many source trees transfer at once.
	Workers int
	// LockPath, when set, names a file locked for the duration of transfers
	// so concurrent sessions cannot write the library at the same time.
	LockPath string
	// Observer receives every outcome. Trees transfer in parallel, so it must
	// be safe for concurrent use.
	Observer func(artifact.Outcome)
}

// OptionsFromConfig derives session options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Extensions:      cfg.Artifacts.Extensions,
		MediaExtensions: cfg.Artifacts.MediaExtensions,
		PrintIgnored:    cfg.Artifacts.PrintIgnored,
		RootPolicy:      cfg.Artifacts.RootPolicy,
		DeleteOriginals: cfg.Artifacts.DeleteOriginalsOnMove,
		Workers:         cfg.Artifacts.Workers,
		LockPath:        cfg.Paths.LockPath,
	}
	if mode := cfg.Mode(); mode == artifact.ModeSymlink || mode == artifact.ModeHardlink {
		opts.Link = mode
	}
	return opts
}

// Session accumulates the records of one import run and transfers their
// artifacts when the run ends. It is owned by the goroutine driving the
// import and is not safe for concurrent notification.
type Session struct {
	id       string
	opts     Options
	base     *slog.Logger
	logger   *slog.Logger
	started  time.Time
	records  []artifact.Record
	declared []string
	ended    bool
}

var _ Hooks = (*Session)(nil)

// New starts a session with a fresh identifier.
func New(opts Options, logger *slog.Logger) *Session {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	id := uuid.NewString()
	if logger == nil {
		logger = logging.NewNop()
	}
	base := logger.With(logging.String(logging.FieldSessionID, id))
	return &Session{
		id:      id,
		opts:    opts,
		base:    base,
		logger:  logging.NewComponentLogger(base, "session"),
		started: time.Now(),
	}
}

// ID returns the session identifier used to correlate log lines.
func (s *Session) ID() string { return s.id }

// Records returns the number of items notified so far.
func (s *Session) Records() int { return len(s.records) }

// DeclareRoot records a top-level directory handed to the importer. Records
// below a declared root share its source tree even when their own source
// dirs are siblings, as with per-disc folders.
func (s *Session) DeclareRoot(path string) error {
	if s.ended {
		return ErrSessionEnded
	}
	path = strings.TrimSpace(path)
	if path == "" || !filepath.IsAbs(path) {
		return services.Wrap(services.ErrValidation, "session", "declare root", fmt.Sprintf("root must be an absolute path, got %q", path), nil)
	}
	s.declared = append(s.declared, filepath.Clean(path))
	return nil
}

// OnItemImported records one imported album or singleton.
func (s *Session) OnItemImported(sourceDir, destDir string, consumed []string, singleton bool) error {
	if s.ended {
		return ErrSessionEnded
	}
	rec, err := artifact.NewRecord(sourceDir, destDir, consumed, singleton)
	if err != nil {
		return services.Wrap(services.ErrValidation, "session", "record item", "", err)
	}
	s.records = append(s.records, rec)
	s.logger.Debug("item recorded",
		logging.String("source_dir", rec.SourceDir()),
		logging.String("dest_dir", rec.DestDir()),
		logging.Int("consumed", rec.ConsumedCount()),
		logging.Bool("singleton", singleton),
	)
	return nil
}

// Plan resolves the session without transferring anything. The session stays
// open.
func (s *Session) Plan(ctx context.Context, flatten bool) (Report, error) {
	if s.ended {
		return Report{}, ErrSessionEnded
	}
	ctx = services.WithSessionID(ctx, s.id)
	report := Report{SessionID: s.id, DryRun: true, Flatten: flatten, Mode: string(s.mode(false)), StartedAt: time.Now()}

	plan, err := s.resolver(flatten).Resolve(ctx, s.records, s.declared)
	report.addPlanned(plan.Entries())
	report.addPlanFindings(plan)
	if err != nil {
		s.markUnresolved(&report, plan, err)
	}
	report.FinishedAt = time.Now()
	report.Finalize()
	return report, nil
}

// OnSessionEnd resolves every source tree and then transfers each tree's
// artifacts, trees in parallel. Failures are collected in the report; the
// returned error is reserved for misuse and for failing to take the library
// lock.
func (s *Session) OnSessionEnd(ctx context.Context, flatten, move bool) (Report, error) {
	if s.ended {
		return Report{}, ErrSessionEnded
	}
	s.ended = true
	ctx = services.WithSessionID(ctx, s.id)
	mode := s.mode(move)
	report := Report{SessionID: s.id, Flatten: flatten, Mode: string(mode), StartedAt: s.started}

	s.logger.Info("import session ending",
		logging.Int("records", len(s.records)),
		logging.Bool("flatten", flatten),
		logging.String("mode", string(mode)),
	)

	plan, err := s.resolver(flatten).Resolve(ctx, s.records, s.declared)
	report.addPlanFindings(plan)
	if err != nil {
		s.markUnresolved(&report, plan, err)
	}

	if len(plan.Entries()) > 0 {
		unlock := func() {}
		if ctx.Err() == nil {
			if unlock, err = s.lock(ctx); err != nil {
				report.FinishedAt = time.Now()
				report.Finalize()
				return report, err
			}
		}
		report.addOutcomes(s.execute(ctx, plan, mode))
		unlock()
	}

	report.FinishedAt = time.Now()
	report.Finalize()
	s.logger.Info("import session finished",
		logging.Int("transferred", report.Summary.Transferred),
		logging.Int("unchanged", report.Summary.Unchanged),
		logging.Int("failed", report.Summary.Failed),
		logging.Int("skipped", report.Summary.Skipped),
		logging.Int("tree_errors", report.Summary.TreeErrors),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *Session) mode(move bool) artifact.Mode {
	if move {
		return artifact.ModeMove
	}
	if s.opts.Link != "" {
		return s.opts.Link
	}
	return artifact.ModeCopy
}

func (s *Session) resolver(flatten bool) *resolver.Resolver {
	sc := scanner.New(scanner.Options{
		Extensions:      s.opts.Extensions,
		MediaExtensions: s.opts.MediaExtensions,
		PrintIgnored:    s.opts.PrintIgnored,
	}, s.base)
	return resolver.New(sc, resolver.Options{Flatten: flatten, RootPolicy: s.opts.RootPolicy}, s.base)
}

// markUnresolved reports every tree resolution never reached.
func (s *Session) markUnresolved(report *Report, plan resolver.Plan, cause error) {
	done := make(map[string]struct{}, len(plan.Trees))
	for _, tp := range plan.Trees {
		done[tp.Tree.Root] = struct{}{}
	}
	for _, tree := range artifact.GroupTrees(s.records, s.declared) {
		if _, ok := done[tree.Root]; ok {
			continue
		}
		report.addTreeError(tree.Root, services.Wrap(services.ErrCanceled, "resolve", "scan tree", tree.Root, cause))
	}
}

// execute transfers each tree's entries. Trees share no destinations, so they
// run concurrently up to the worker limit.
func (s *Session) execute(ctx context.Context, plan resolver.Plan, mode artifact.Mode) []artifact.Outcome {
	engine := transfer.NewEngine(transfer.Options{
		Mode:            mode,
		DeleteOriginals: s.opts.DeleteOriginals,
		Observer:        s.opts.Observer,
	}, s.base)

	results := make([][]artifact.Outcome, len(plan.Trees))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, tp := range plan.Trees {
		if len(tp.Entries) == 0 {
			continue
		}
		g.Go(func() error {
			results[i] = engine.Execute(services.WithTree(ctx, tp.Tree.Root), tp.Entries)
			return nil
		})
	}
	_ = g.Wait()

	var outcomes []artifact.Outcome
	for _, res := range results {
		outcomes = append(outcomes, res...)
	}
	return outcomes
}

func (s *Session) lock(ctx context.Context) (func(), error) {
	if s.opts.LockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.opts.LockPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransferIO, "session", "acquire library lock", s.opts.LockPath, err)
	}
	lock := flock.New(s.opts.LockPath)
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(services.ErrTransferIO, "session", "acquire library lock", s.opts.LockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransferIO, "session", "acquire library lock", s.opts.LockPath, errors.New("lock held by another process"))
	}
	s.logger.Debug("library lock acquired", logging.String("lock", s.opts.LockPath))
	return func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(s.logger, "failed to release library lock", "lock_release",
				logging.String("lock", s.opts.LockPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "later sessions may wait for the lock"),
			)
		}
	}, nil
}
