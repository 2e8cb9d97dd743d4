// Package types defines shared Go types used across the analytics pipeline.
// These are the canonical in-memory representations of job-posting data and
// engine results, and double as the JSON wire format served by the API.
package types
