// Package config loads, normalizes, and validates the TOML configuration
// that drives an import run.
//
// Load applies defaults, expands ~ in every path field, and rejects configs
// that could not produce a working run. CreateSample writes the embedded
// annotated sample file for first-time setup.
package config
