// Package preflight checks the filesystem paths copyartifacts writes to
// before an import is trusted with them.
//
// The CLI "config validate" command runs every check and prints the results.
// A library directory that does not exist yet passes as long as it can be
// created.
package preflight
