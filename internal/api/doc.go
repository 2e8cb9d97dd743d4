// Package api serves the REST surface over the analytics service: run
// summaries, per-engine results, the quarantine list, alert history and the
// ingest/rerun operations.
package api
