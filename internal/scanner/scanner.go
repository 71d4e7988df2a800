package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/logging"
	"copyartifacts/internal/services"
)

const wildcard = ".*"

// Options controls which files the scanner reports.
type Options struct {
	// Extensions lists eligible artifact extensions, lowercase with a leading
	// dot. Empty or ".*" accepts every file.
	Extensions []string
	// MediaExtensions marks files the importer handles itself. A sub folder
	// holding one that the tree did not consume is pruned.
	MediaExtensions []string
	// PrintIgnored logs every file rejected by the extension filter.
	PrintIgnored bool
}

// Result is what one tree scan found.
type Result struct {
	Root      string
	Artifacts []artifact.Artifact
	// Ignored holds files the extension filter rejected.
	Ignored []string
	// Pruned holds sub folders skipped as belonging to another import.
	Pruned []string
	// Unreadable holds sub folders that could not be listed.
	Unreadable []string
}

// Scanner walks source trees and caches each result for the life of the
// session that owns it.
type Scanner struct {
	logger     *slog.Logger
	allowAll   bool
	extensions map[string]struct{}
	media      map[string]struct{}
	printIgn   bool

	mu    sync.Mutex
	cache map[string]Result
}

// New constructs a Scanner.
func New(opts Options, logger *slog.Logger) *Scanner {
	s := &Scanner{
		logger:     logging.NewComponentLogger(logger, "scanner"),
		extensions: make(map[string]struct{}, len(opts.Extensions)),
		media:      make(map[string]struct{}, len(opts.MediaExtensions)),
		printIgn:   opts.PrintIgnored,
		cache:      make(map[string]Result),
	}
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == wildcard || ext == "*" {
			s.allowAll = true
			continue
		}
		if ext != "" {
			s.extensions[ext] = struct{}{}
		}
	}
	if len(s.extensions) == 0 {
		s.allowAll = true
	}
	for _, ext := range opts.MediaExtensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			s.media[ext] = struct{}{}
		}
	}
	return s
}

// Scan lists the artifacts of tree: every file below its root that none of
// its records consumed. otherRoots are the roots of the session's other trees;
// they are never entered. Repeated scans of the same root return the cached
// result.
func (s *Scanner) Scan(ctx context.Context, tree artifact.Tree, otherRoots []string) (Result, error) {
	key := artifact.Key(tree.Root)
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	logger := logging.WithContext(ctx, s.logger)
	info, err := os.Stat(tree.Root)
	if err != nil {
		return Result{}, services.Wrap(services.ErrScan, "scan", "stat root", tree.Root, err)
	}
	if !info.IsDir() {
		return Result{}, services.Wrap(services.ErrScan, "scan", "stat root", tree.Root, errors.New("not a directory"))
	}

	w := walker{
		scanner: s,
		tree:    tree,
		others:  make(map[string]struct{}, len(otherRoots)),
		owned:   make(map[string]struct{}, len(tree.Records)),
		result:  Result{Root: tree.Root},
		logger:  logger,
	}
	for _, root := range otherRoots {
		if artifact.Key(root) != key {
			w.others[artifact.Key(root)] = struct{}{}
		}
	}
	for _, rec := range tree.Records {
		w.owned[artifact.Key(rec.SourceDir())] = struct{}{}
	}

	if err := w.walkRoot(ctx); err != nil {
		return Result{}, err
	}

	res := w.result
	sort.Slice(res.Artifacts, func(i, j int) bool { return res.Artifacts[i].Path < res.Artifacts[j].Path })
	sort.Strings(res.Ignored)
	sort.Strings(res.Pruned)
	sort.Strings(res.Unreadable)

	logger.Debug("source tree scanned",
		logging.Int("artifacts", len(res.Artifacts)),
		logging.Int("ignored", len(res.Ignored)),
		logging.Int("pruned", len(res.Pruned)),
	)

	s.mu.Lock()
	s.cache[key] = res
	s.mu.Unlock()
	return res, nil
}

// Forget drops the cached result for root.
func (s *Scanner) Forget(root string) {
	s.mu.Lock()
	delete(s.cache, artifact.Key(root))
	s.mu.Unlock()
}

func (s *Scanner) eligible(name string) bool {
	if s.allowAll {
		return true
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (s *Scanner) isMedia(name string) bool {
	_, ok := s.media[strings.ToLower(filepath.Ext(name))]
	return ok
}

type walker struct {
	scanner *Scanner
	tree    artifact.Tree
	others  map[string]struct{}
	owned   map[string]struct{}
	result  Result
	logger  *slog.Logger
}

func (w *walker) walkRoot(ctx context.Context) error {
	entries, err := os.ReadDir(w.tree.Root)
	if err != nil {
		return services.Wrap(services.ErrScan, "scan", "read root", w.tree.Root, err)
	}
	return w.walkEntries(ctx, w.tree.Root, "", entries)
}

func (w *walker) walkDir(ctx context.Context, dir, subpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dirKey := artifact.Key(dir)
	if _, ok := w.others[dirKey]; ok {
		w.prune(dir, "other_source_tree")
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.result.Unreadable = append(w.result.Unreadable, dir)
		logging.WarnWithContext(w.logger, "sub folder unreadable", "scan_unreadable_dir",
			logging.String("dir", dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "artifacts inside were not considered"),
			logging.String(logging.FieldErrorHint, "check folder permissions"),
		)
		return nil
	}
	if _, own := w.owned[dirKey]; !own && w.holdsForeignMedia(dir, entries) {
		w.prune(dir, "unconsumed_media")
		if !w.leadsToOwned(dirKey) {
			return nil
		}
		// The folder's own files belong to another import, but record
		// source dirs below it still have to be reached.
		return w.walkOwnedSubdirs(ctx, dir, subpath, entries)
	}
	return w.walkEntries(ctx, dir, subpath, entries)
}

// leadsToOwned reports whether a record source dir lives strictly below dir.
func (w *walker) leadsToOwned(dirKey string) bool {
	for owned := range w.owned {
		if owned != dirKey && artifact.IsUnder(owned, dirKey) {
			return true
		}
	}
	return false
}

func (w *walker) walkOwnedSubdirs(ctx context.Context, dir, subpath string, entries []os.DirEntry) error {
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		key := artifact.Key(path)
		if _, own := w.owned[key]; !own && !w.leadsToOwned(key) {
			continue
		}
		if err := w.walkDir(ctx, path, filepath.Join(subpath, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkEntries(ctx context.Context, dir, subpath string, entries []os.DirEntry) error {
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := w.walkDir(ctx, path, filepath.Join(subpath, entry.Name())); err != nil {
				return err
			}
			continue
		}
		if w.tree.IsConsumed(path) {
			continue
		}
		if !w.scanner.eligible(entry.Name()) {
			w.result.Ignored = append(w.result.Ignored, path)
			if w.scanner.printIgn {
				w.logger.Info("ignored file", logging.String("path", path))
			}
			continue
		}
		w.result.Artifacts = append(w.result.Artifacts, artifact.Artifact{
			Path:      path,
			SourceDir: w.tree.Root,
			Subpath:   subpath,
		})
	}
	return nil
}

// holdsForeignMedia reports whether dir directly contains media that the
// tree did not consume while consuming nothing from dir itself.
func (w *walker) holdsForeignMedia(dir string, entries []os.DirEntry) bool {
	foreign := false
	for _, entry := range entries {
		if entry.IsDir() || !w.scanner.isMedia(entry.Name()) {
			continue
		}
		if w.tree.IsConsumed(filepath.Join(dir, entry.Name())) {
			return false
		}
		foreign = true
	}
	return foreign
}

func (w *walker) prune(dir, reason string) {
	w.result.Pruned = append(w.result.Pruned, dir)
	w.logger.Debug("sub folder skipped",
		append(logging.Args(logging.DecisionAttrs("scan_prune", "skipped", reason)...), "dir", dir)...,
	)
}
