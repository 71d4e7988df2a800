// Package config loads, normalizes, and validates copyartifacts configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the COPYARTIFACTS_LIBRARY_DIR environment fallback.
// Extension lists come out lowercased with a leading dot so the scanner can
// compare them directly against filepath.Ext.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
