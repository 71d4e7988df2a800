// Package artifact defines the records, trees, artifacts, plan entries, and
// outcomes shared by the scanner, resolver, transfer engine, and session.
//
// A Record describes one album or singleton the host importer placed in the
// library. Records that share a source directory (or nest inside one another)
// form a Tree, which is scanned exactly once per session. Files in a tree that
// no record consumed become Artifacts; the resolver turns each artifact into
// zero or more Entries, and the transfer engine reports one Outcome per entry.
//
// Paths are compared through Key so that NFC and NFD spellings of the same
// name (common on macOS volumes) are treated as equal.
package artifact
