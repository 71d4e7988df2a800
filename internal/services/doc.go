// Package services defines shared utilities consumed by the scanner, resolver,
// transfer engine, and session.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, source tree roots, and stage
//     names for logging.
//   - Structured error markers plus the Wrap helper so scan errors, ambiguous
//     associations, transfer conflicts, and IO failures can be told apart with
//     errors.Is and reported under stable labels via Kind.
//
// Use these helpers when adding new stages so failures stay classifiable and
// log lines carry the same correlation fields.
package services
