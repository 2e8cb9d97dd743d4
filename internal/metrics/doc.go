// Package metrics exposes service counters and gauges in Prometheus text
// exposition format on /metrics.
package metrics
