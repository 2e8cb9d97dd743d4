// Package trend classifies count series into growth, decline and stable
// stretches.
//
// A rolling least-squares slope relative to the window mean drives a small
// state machine: a slope past the configured threshold under the volatility
// ceiling signals growth or decline, and a state switch requires the new
// signal to persist for a configurable number of consecutive periods.
// Maximal runs of the resulting states come out as TrendSegments.
package trend
