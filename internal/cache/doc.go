// Package cache provides the TTL memo cache for engine results.
//
// Entries are keyed by series, period range and configuration hash; a
// background sweep evicts what has expired.
package cache
