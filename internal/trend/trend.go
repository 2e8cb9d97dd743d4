package trend

import (
	"math"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// point is the per-period classification input: the relative slope and
// volatility of the trailing window ending at that period.
type point struct {
	slope  float64
	vol    float64
	signal types.TrendState
}

// Segments classifies one count series and returns its maximal run-length
// state segments. periods and counts must be aligned and gap-free; series
// names the classified series in the output.
func Segments(series string, periods []types.Period, counts []float64, cfg config.TrendConfig) []types.TrendSegment {
	if len(periods) == 0 {
		return nil
	}

	points := make([]point, len(counts))
	for i := range counts {
		points[i] = classify(counts, i, cfg)
	}
	states := applyHysteresis(points, cfg.Confirm)

	var segments []types.TrendSegment
	runStart := 0
	for i := 1; i <= len(states); i++ {
		if i < len(states) && states[i] == states[runStart] {
			continue
		}
		segments = append(segments, types.TrendSegment{
			Series:     series,
			Start:      periods[runStart],
			End:        periods[i-1],
			State:      states[runStart],
			Slope:      meanSlope(points[runStart:i]),
			Volatility: meanVol(points[runStart:i]),
		})
		runStart = i
	}
	return segments
}

// classify computes the window signal for period i. Periods before the
// first full window, and windows with a zero mean, signal stable.
func classify(counts []float64, i int, cfg config.TrendConfig) point {
	if i < cfg.Window-1 {
		return point{signal: types.TrendStable}
	}
	window := counts[i-cfg.Window+1 : i+1]

	m := mean(window)
	if m == 0 {
		return point{signal: types.TrendStable}
	}

	rel := olsSlope(window) / m
	vol := stddev(window, m) / m

	signal := types.TrendStable
	switch {
	case rel > cfg.GrowthThreshold && vol < cfg.NoiseCeiling:
		signal = types.TrendGrowth
	case rel < -cfg.DeclineThreshold && vol < cfg.NoiseCeiling:
		signal = types.TrendDecline
	}
	return point{slope: rel, vol: vol, signal: signal}
}

// applyHysteresis runs the confirmation state machine over the per-period
// signals. The state starts stable and only switches once the same new
// signal has held for confirm consecutive periods, so a single-period spike
// that immediately reverses never flips the classification.
func applyHysteresis(points []point, confirm int) []types.TrendState {
	if confirm < 1 {
		confirm = 1
	}

	states := make([]types.TrendState, len(points))
	state := types.TrendStable
	pending := state
	streak := 0

	for i, p := range points {
		switch p.signal {
		case state:
			pending = state
			streak = 0
		case pending:
			streak++
			if streak >= confirm {
				state = pending
				streak = 0
			}
		default:
			pending = p.signal
			streak = 1
			if streak >= confirm {
				state = pending
				streak = 0
			}
		}
		states[i] = state
	}
	return states
}

// olsSlope fits y = a + b*x over x = 0..n-1 and returns b.
func olsSlope(window []float64) float64 {
	n := float64(len(window))
	xMean := (n - 1) / 2
	yMean := mean(window)

	var num, den float64
	for i, y := range window {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func stddev(window []float64, m float64) float64 {
	var sum float64
	for _, y := range window {
		d := y - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(window)))
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func meanSlope(points []point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.slope
	}
	return sum / float64(len(points))
}

func meanVol(points []point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.vol
	}
	return sum / float64(len(points))
}
