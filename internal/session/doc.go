// Package session ties an import run together.
//
// The host importer notifies a Session once per imported album or singleton
// and once when the run is over. At the end the session groups records into
// source trees, scans and resolves each tree once, and transfers the planned
// artifacts tree by tree, producing a Report. Plan performs the same
// resolution without touching the library.
package session
