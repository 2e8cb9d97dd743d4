// Package analytics orchestrates the analysis engines over one posting
// snapshot. The five engines (health, trend, cluster, forecast, pattern)
// run concurrently and fail independently; a panicking engine marks only
// its own status failed while the others' results stand. Engine outputs
// are memoized by snapshot fingerprint, period range and config hash.
package analytics
