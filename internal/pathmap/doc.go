// Package pathmap computes where an artifact lands in the library.
//
// Everything here is pure path arithmetic: nothing touches the filesystem.
// Map preserves (or, when flattening, discards) the directory components
// between an item's source directory and the artifact, and Unique assigns
// collision-free names when several artifacts would land on the same path.
package pathmap
