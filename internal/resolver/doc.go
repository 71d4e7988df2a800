// Package resolver turns the records of an import session into a transfer
// plan.
//
// Each artifact attaches to the record whose source dir is the longest prefix
// of its path. Artifacts that no single destination can claim are either
// skipped with an ambiguous_association report or, under the "all" root
// policy, planned once per candidate destination. Plans are deterministic:
// entries are sorted by artifact path and destination, and clashing
// destinations receive numbered names.
package resolver
