package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/logging"
	"copyartifacts/internal/pathmap"
	"copyartifacts/internal/scanner"
	"copyartifacts/internal/services"
)

// Root policies for artifacts that more than one record could claim.
const (
	PolicyNone = "none"
	PolicyAll  = "all"
)

// Options controls destination mapping.
type Options struct {
	Flatten    bool
	RootPolicy string
}

// Resolver decides which record owns each artifact and where it goes.
type Resolver struct {
	scanner *scanner.Scanner
	opts    Options
	logger  *slog.Logger
}

// New constructs a Resolver backed by the session's scanner.
func New(sc *scanner.Scanner, opts Options, logger *slog.Logger) *Resolver {
	if opts.RootPolicy == "" {
		opts.RootPolicy = PolicyNone
	}
	return &Resolver{
		scanner: sc,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve groups records into source trees, scans each tree once, and builds
// the transfer plan. A tree whose scan fails is reported in the plan and does
// not affect the others. Only context cancellation stops resolution early.
func (r *Resolver) Resolve(ctx context.Context, records []artifact.Record, declared []string) (Plan, error) {
	trees := artifact.GroupTrees(records, declared)
	roots := make([]string, 0, len(trees))
	for _, tree := range trees {
		roots = append(roots, tree.Root)
	}

	plan := Plan{Flatten: r.opts.Flatten}
	used := make(map[string]struct{})
	for _, tree := range trees {
		if err := ctx.Err(); err != nil {
			return plan, err
		}
		tp := r.resolveTree(services.WithTree(ctx, tree.Root), tree, roots, used)
		plan.Trees = append(plan.Trees, tp)
	}
	return plan, nil
}

func (r *Resolver) resolveTree(ctx context.Context, tree artifact.Tree, roots []string, used map[string]struct{}) TreePlan {
	logger := logging.WithContext(services.WithStage(ctx, "resolve"), r.logger)
	tp := TreePlan{Tree: tree}

	res, err := r.scanner.Scan(ctx, tree, roots)
	if err != nil {
		tp.Err = err
		logging.ErrorWithContext(logger, "source tree scan failed", services.Kind(err),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the source folder still exists and is readable"),
		)
		return tp
	}
	tp.Scan = res

	for _, art := range res.Artifacts {
		if !artifact.IsUnder(art.Path, tree.Root) {
			tp.Skipped = append(tp.Skipped, artifact.Skip{
				Artifact: art,
				Kind:     services.KindOutsideTree,
				Reason:   fmt.Sprintf("not under source tree %s", tree.Root),
			})
			continue
		}
		owners, ambiguous := claimants(tree, art)
		if ambiguous && r.opts.RootPolicy != PolicyAll {
			skip := artifact.Skip{
				Artifact:   art,
				Kind:       services.KindAmbiguousAssociation,
				Reason:     "several items could own this artifact",
				Candidates: destinations(owners),
			}
			tp.Skipped = append(tp.Skipped, skip)
			logging.WarnWithContext(logger, "artifact skipped", services.KindAmbiguousAssociation,
				logging.String("path", art.Path),
				logging.Any("candidates", skip.Candidates),
				logging.String(logging.FieldImpact, "artifact was not transferred"),
				logging.String(logging.FieldErrorHint, "set artifacts.root_policy = \"all\" to copy it to every candidate"),
			)
			continue
		}
		for _, rec := range owners {
			dest, err := r.mapPath(tree, rec, art)
			if err != nil {
				tp.Skipped = append(tp.Skipped, artifact.Skip{
					Artifact: art,
					Kind:     services.KindOutsideTree,
					Reason:   err.Error(),
				})
				continue
			}
			tp.Entries = append(tp.Entries, artifact.Entry{Artifact: art, Dest: dest, Owner: rec.SourceDir()})
		}
	}

	sort.SliceStable(tp.Entries, func(i, j int) bool {
		if tp.Entries[i].Artifact.Path != tp.Entries[j].Artifact.Path {
			return tp.Entries[i].Artifact.Path < tp.Entries[j].Artifact.Path
		}
		return tp.Entries[i].Dest < tp.Entries[j].Dest
	})
	for i := range tp.Entries {
		planned := tp.Entries[i].Dest
		tp.Entries[i].Dest = pathmap.Unique(planned, used)
		if tp.Entries[i].Dest != planned {
			logger.Info("artifact renamed to avoid collision",
				logging.String("path", tp.Entries[i].Artifact.Path),
				logging.String("planned", planned),
				logging.String("dest", tp.Entries[i].Dest),
			)
		}
	}

	logger.Info("source tree resolved",
		logging.Int("records", len(tree.Records)),
		logging.Int("entries", len(tp.Entries)),
		logging.Int("skipped", len(tp.Skipped)),
	)
	return tp
}

// mapPath keeps the artifact's layout relative to the owning record's source
// dir, or relative to the tree root when the artifact sits outside it.
func (r *Resolver) mapPath(tree artifact.Tree, rec artifact.Record, art artifact.Artifact) (string, error) {
	base := rec.SourceDir()
	if !artifact.IsUnder(art.Path, base) {
		base = tree.Root
	}
	return pathmap.NewRule(base, rec.DestDir(), r.opts.Flatten).Apply(art.Path)
}

// claimants returns the records that claim art. A lone record claims every
// artifact in its tree. Otherwise the records with the deepest source dir
// containing art win, and when none contains it every record is a candidate.
// Candidates sharing a destination collapse to the first one notified; more
// than one remaining destination makes the artifact ambiguous.
func claimants(tree artifact.Tree, art artifact.Artifact) ([]artifact.Record, bool) {
	if len(tree.Records) == 1 {
		return tree.Records, false
	}
	best := -1
	var deepest []artifact.Record
	for _, rec := range tree.Records {
		if !artifact.IsUnder(art.Path, rec.SourceDir()) {
			continue
		}
		depth := artifact.Depth(rec.SourceDir())
		switch {
		case depth > best:
			best = depth
			deepest = []artifact.Record{rec}
		case depth == best:
			deepest = append(deepest, rec)
		}
	}
	if len(deepest) == 0 {
		deepest = tree.Records
	}
	distinct := byDestination(deepest)
	return distinct, len(distinct) > 1
}

func byDestination(records []artifact.Record) []artifact.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]artifact.Record, 0, len(records))
	for _, rec := range records {
		key := artifact.Key(rec.DestDir())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func destinations(records []artifact.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.DestDir())
	}
	sort.Strings(out)
	return out
}

// Describe renders a one-line summary of a skip for logs and tables.
func Describe(skip artifact.Skip) string {
	if len(skip.Candidates) == 0 {
		return skip.Reason
	}
	return fmt.Sprintf("%s (candidates: %s)", skip.Reason, strings.Join(skip.Candidates, ", "))
}
