// Package pattern detects company-level hiring anomalies and summarises
// company growth and seasonality.
//
// Events compares each company's monthly counts against a trailing
// baseline: a deviation past the threshold opens a surge or slowdown, the
// event runs while the deviation keeps its direction, and it closes once
// the count returns within one standard deviation of the opening baseline.
package pattern
