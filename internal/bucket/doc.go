// Package bucket aggregates job records into continuous monthly series.
//
// Build runs a single counting pass over the records and a second expansion
// pass that fills every period of the requested range into each series, so
// downstream engines can assume gap-free input. Series are grouped per job
// type, per company and per skill alongside the overall totals.
package bucket
