// Package health computes the composite market health index.
//
// Each period gets three sub-indicators over a trailing window: volume
// momentum against the prior window, job-type diversity as normalised
// entropy, and company breadth against the window maximum. The composite is
// their weighted average; an indicator that cannot be computed drops out
// and the remaining weights are renormalised. Periods where nothing can be
// computed are flagged insufficient rather than scored.
package health
