// Package transfer copies, moves, or links planned artifacts into the library.
//
// Re-running a plan is safe: a destination that already matches its source
// byte for byte, or whose source was moved away by an earlier run, is
// reported unchanged. A destination holding different bytes is a conflict
// unless the engine is moving, in which case it is overwritten.
package transfer
