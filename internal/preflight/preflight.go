package preflight

import (
	"context"

	"copyartifacts/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir, true),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, true),
	}
	if cfg.Paths.LockPath != "" {
		results = append(results, CheckLock(ctx, cfg.Paths.LockPath))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
