package resolver

import (
	"copyartifacts/internal/artifact"
	"copyartifacts/internal/scanner"
)

// TreePlan is the resolution of one source tree.
type TreePlan struct {
	Tree    artifact.Tree
	Scan    scanner.Result
	Entries []artifact.Entry
	Skipped []artifact.Skip
	// Err is set when the tree could not be scanned; Entries is then empty.
	Err error
}

// Plan is the resolution of every tree in a session, ordered by tree root.
type Plan struct {
	Flatten bool
	Trees   []TreePlan
}

// TreeError names a tree that failed to scan.
type TreeError struct {
	Root string
	Err  error
}

// Entries returns every planned transfer across trees.
func (p Plan) Entries() []artifact.Entry {
	var out []artifact.Entry
	for _, tp := range p.Trees {
		out = append(out, tp.Entries...)
	}
	return out
}

// Skipped returns every artifact the resolver declined to plan.
func (p Plan) Skipped() []artifact.Skip {
	var out []artifact.Skip
	for _, tp := range p.Trees {
		out = append(out, tp.Skipped...)
	}
	return out
}

// TreeErrors returns the trees whose scan failed.
func (p Plan) TreeErrors() []TreeError {
	var out []TreeError
	for _, tp := range p.Trees {
		if tp.Err != nil {
			out = append(out, TreeError{Root: tp.Tree.Root, Err: tp.Err})
		}
	}
	return out
}
