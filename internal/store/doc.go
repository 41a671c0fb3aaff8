// Package store persists per-file import state in SQLite so interrupted runs
// resume where they left off.
//
// Every discovered media file gets one row keyed by source path; the row's
// status walks new -> metadata_read -> target_resolved -> success (or skipped
// or failed). Metadata extracted along the way is stored per source label in
// a companion table so later phases and re-runs work from persisted values
// instead of re-reading the originals.
package store
