// Package forecast projects count series forward with Holt linear
// exponential smoothing.
//
// Series shorter than the configured minimum fall back to a trailing
// average with a wide fixed band and a low-confidence flag. Both paths are
// fully deterministic for identical input and configuration.
package forecast
