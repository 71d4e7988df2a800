// Package fileutil holds the file primitives behind artifact transfers:
// verified atomic copies, content comparison, cross-device moves, and links.
package fileutil
