// Package store persists the posting snapshot and the run history in
// SQLite, using the pure-Go modernc driver. The snapshot is the single
// source of truth between restarts; analysis results themselves are
// recomputed, only their summaries are kept.
package store
