package forecast

import (
	"math"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Forecast projects the series cfg.Horizon periods past its last period.
// periods and counts must be aligned and gap-free; series names the
// projected series in the output. An empty history yields no forecast.
func Forecast(series string, periods []types.Period, counts []float64, cfg config.ForecastConfig) []types.ForecastPoint {
	if len(periods) == 0 || cfg.Horizon < 1 {
		return nil
	}
	if len(counts) < cfg.MinPoints {
		return naive(series, periods, counts, cfg)
	}
	return holt(series, periods, counts, cfg)
}

// holt runs Holt's linear method with the configured fixed smoothing
// factors. Bounds come from the historical standard deviation scaled by Z,
// widening linearly with horizon distance; lower bounds clamp at zero
// because counts cannot go negative.
func holt(series string, periods []types.Period, counts []float64, cfg config.ForecastConfig) []types.ForecastPoint {
	level := counts[0]
	trend := counts[1] - counts[0]
	for _, y := range counts[1:] {
		prevLevel := level
		level = cfg.Level*y + (1-cfg.Level)*(level+trend)
		trend = cfg.Trend*(level-prevLevel) + (1-cfg.Trend)*trend
	}

	band := cfg.Z * stddev(counts)
	last := periods[len(periods)-1]

	out := make([]types.ForecastPoint, 0, cfg.Horizon)
	for h := 1; h <= cfg.Horizon; h++ {
		point := level + float64(h)*trend
		half := band * (1 + cfg.Widening*float64(h-1))
		out = append(out, types.ForecastPoint{
			Series:   series,
			Period:   last.Add(h),
			Forecast: point,
			Lower:    math.Max(0, point-half),
			Upper:    point + half,
		})
	}
	return out
}

// naive is the short-history fallback: a trailing average carried flat
// across the horizon inside a wide fixed band, flagged low confidence.
func naive(series string, periods []types.Period, counts []float64, cfg config.ForecastConfig) []types.ForecastPoint {
	window := cfg.FallbackWindow
	if window < 1 || window > len(counts) {
		window = len(counts)
	}
	avg := mean(counts[len(counts)-window:])

	half := cfg.FallbackBand * avg
	if half == 0 {
		half = cfg.FallbackBand
	}
	last := periods[len(periods)-1]

	out := make([]types.ForecastPoint, 0, cfg.Horizon)
	for h := 1; h <= cfg.Horizon; h++ {
		out = append(out, types.ForecastPoint{
			Series:        series,
			Period:        last.Add(h),
			Forecast:      avg,
			Lower:         math.Max(0, avg-half),
			Upper:         avg + half,
			LowConfidence: true,
		})
	}
	return out
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

func stddev(vals []float64) float64 {
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}
