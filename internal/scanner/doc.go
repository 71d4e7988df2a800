// Package scanner finds artifacts: files inside a source tree that no import
// record consumed as media.
//
// Each tree is walked once per session. Sub folders that belong to some other
// import, either because they are another tree's root or because they hold
// media the tree never consumed, are skipped whole so their files never leak
// into the wrong destination.
package scanner
