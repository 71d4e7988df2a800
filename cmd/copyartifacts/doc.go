// Package main hosts the copyartifacts CLI.
//
// The command tree stands in for a host import pipeline: it replays a YAML
// manifest of imported items into an import session and prints what happened
// to every leftover file. Configuration loading and logger setup live in the
// shared command context so subcommands only deal with output.
package main
