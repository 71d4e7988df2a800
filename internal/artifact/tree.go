package artifact

import (
	"path/filepath"
	"sort"
	"strings"
)

// Tree is a source tree: a root directory plus every record imported from it.
type Tree struct {
	Root     string
	Records  []Record
	Declared bool
}

// Destinations returns the distinct destination directories of the tree's
// records, sorted.
func (t Tree) Destinations() []string {
	seen := make(map[string]struct{}, len(t.Records))
	out := make([]string, 0, len(t.Records))
	for _, rec := range t.Records {
		if _, ok := seen[rec.DestDir()]; ok {
			continue
		}
		seen[rec.DestDir()] = struct{}{}
		out = append(out, rec.DestDir())
	}
	sort.Strings(out)
	return out
}

// IsConsumed reports whether any record in the tree consumed path.
func (t Tree) IsConsumed(path string) bool {
	for _, rec := range t.Records {
		if rec.Consumes(path) {
			return true
		}
	}
	return false
}

// GroupTrees partitions records into source trees.
//
// A record belongs to the deepest declared root containing its source dir.
// Remaining records share a tree when one source dir equals or contains the
// other; the shallowest source dir becomes the root. Records keep their
// notification order inside a tree and trees are sorted by root.
func GroupTrees(records []Record, declared []string) []Tree {
	roots := normalizeRoots(declared)
	byRoot := make(map[string]*Tree)
	var loose []Record

	for _, rec := range records {
		root := deepestRoot(rec.SourceDir(), roots)
		if root == "" {
			loose = append(loose, rec)
			continue
		}
		tree, ok := byRoot[root]
		if !ok {
			tree = &Tree{Root: root, Declared: true}
			byRoot[root] = tree
		}
		tree.Records = append(tree.Records, rec)
	}

	// Shallow source dirs first so ancestors claim their descendants.
	order := make([]int, len(loose))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := Depth(loose[order[a]].SourceDir()), Depth(loose[order[b]].SourceDir())
		if da != db {
			return da < db
		}
		return loose[order[a]].SourceDir() < loose[order[b]].SourceDir()
	})
	assigned := make([]string, len(loose))
	var looseRoots []string
	for _, idx := range order {
		src := loose[idx].SourceDir()
		root := ""
		for _, candidate := range looseRoots {
			if IsUnder(src, candidate) {
				root = candidate
				break
			}
		}
		if root == "" {
			root = src
			looseRoots = append(looseRoots, root)
			byRoot[root] = &Tree{Root: root}
		}
		assigned[idx] = root
	}
	for idx, rec := range loose {
		tree := byRoot[assigned[idx]]
		tree.Records = append(tree.Records, rec)
	}

	trees := make([]Tree, 0, len(byRoot))
	for _, tree := range byRoot {
		trees = append(trees, *tree)
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i].Root < trees[j].Root })
	return trees
}

func normalizeRoots(declared []string) []string {
	seen := make(map[string]struct{}, len(declared))
	out := make([]string, 0, len(declared))
	for _, root := range declared {
		root = strings.TrimSpace(root)
		if root == "" || !filepath.IsAbs(root) {
			continue
		}
		root = filepath.Clean(root)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}

func deepestRoot(path string, roots []string) string {
	best := ""
	for _, root := range roots {
		if IsUnder(path, root) && len(root) > len(best) {
			best = root
		}
	}
	return best
}
