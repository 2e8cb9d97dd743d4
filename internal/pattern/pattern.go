package pattern

import (
	"math"
	"sort"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/bucket"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// openEvent tracks an in-progress deviation run for one company. The
// baseline freezes when the event opens so that the event's own periods do
// not drag the reference along.
type openEvent struct {
	kind      types.EventKind
	start     int
	end       int
	peakDev   float64
	peakCount float64
	baseMean  float64
	baseStd   float64
}

// Events scans every company series for surges and slowdowns. The second
// return value reports whether the period axis is long enough to form a
// baseline at all; when it is false no company can be evaluated and the
// engine result is insufficient rather than empty.
func Events(set *bucket.Set, cfg config.PatternConfig) ([]types.HiringPatternEvent, bool) {
	periods := set.Periods()
	if len(periods) < cfg.Window {
		return nil, false
	}

	var events []types.HiringPatternEvent
	for _, company := range set.Companies() {
		counts := bucket.Counts(set.CompanySeries(company))
		events = append(events, companyEvents(company, periods, counts, cfg)...)
	}
	return events, true
}

func companyEvents(company string, periods []types.Period, counts []float64, cfg config.PatternConfig) []types.HiringPatternEvent {
	var events []types.HiringPatternEvent
	var open *openEvent

	finish := func() {
		events = append(events, types.HiringPatternEvent{
			Company:   company,
			Kind:      open.kind,
			Start:     periods[open.start],
			End:       periods[open.end],
			Magnitude: open.peakDev,
			Peak:      open.peakCount,
			Baseline:  open.baseMean,
		})
		open = nil
	}

	for i := cfg.Window; i < len(counts); i++ {
		if open != nil {
			dev := (counts[i] - open.baseMean) / open.baseStd
			if continues(open.kind, dev) {
				open.end = i
				if math.Abs(dev) > open.peakDev {
					open.peakDev = math.Abs(dev)
					open.peakCount = counts[i]
				}
				continue
			}
			finish()
		}

		m, s := baseline(counts[i-cfg.Window:i], cfg.MinStd)
		dev := (counts[i] - m) / s
		if math.Abs(dev) <= cfg.Threshold {
			continue
		}
		kind := types.EventSurge
		if dev < 0 {
			kind = types.EventSlowdown
		}
		open = &openEvent{
			kind:      kind,
			start:     i,
			end:       i,
			peakDev:   math.Abs(dev),
			peakCount: counts[i],
			baseMean:  m,
			baseStd:   s,
		}
	}
	if open != nil {
		finish()
	}
	return events
}

// continues reports whether a deviation keeps an event running: same
// direction and still outside one standard deviation.
func continues(kind types.EventKind, dev float64) bool {
	if kind == types.EventSurge {
		return dev > 1
	}
	return dev < -1
}

// baseline returns the mean and standard deviation of the window, with the
// deviation floored so a flat history cannot produce unbounded magnitudes.
func baseline(window []float64, minStd float64) (float64, float64) {
	var sum float64
	for _, v := range window {
		sum += v
	}
	m := sum / float64(len(window))

	var sq float64
	for _, v := range window {
		d := v - m
		sq += d * d
	}
	s := math.Sqrt(sq / float64(len(window)))
	if s < minStd {
		s = minStd
	}
	return m, s
}

// Growth splits the trailing lookback window in half and compares each
// company's per-period posting average across the halves. Companies with
// fewer than three postings over the whole window are skipped as noise.
func Growth(set *bucket.Set, cfg config.PatternConfig) []types.CompanyGrowth {
	periods := set.Periods()
	lookback := cfg.GrowthLookback
	if lookback > len(periods) {
		lookback = len(periods)
	}
	if lookback < 2 {
		return nil
	}
	half := lookback / 2
	n := len(periods)

	var out []types.CompanyGrowth
	for _, company := range set.Companies() {
		counts := bucket.Counts(set.CompanySeries(company))
		recent := counts[n-half:]
		prior := counts[n-lookback : n-half]

		recentSum, priorSum := sum(recent), sum(prior)
		if recentSum+priorSum < 3 {
			continue
		}
		recentAvg := recentSum / float64(len(recent))
		priorAvg := priorSum / float64(len(prior))

		var growth float64
		switch {
		case priorAvg > 0:
			growth = (recentAvg - priorAvg) / priorAvg * 100
		case recentAvg > 0:
			growth = 100
		default:
			continue
		}
		out = append(out, types.CompanyGrowth{
			Company:   company,
			RecentAvg: recentAvg,
			PriorAvg:  priorAvg,
			GrowthPct: growth,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthPct != out[j].GrowthPct {
			return out[i].GrowthPct > out[j].GrowthPct
		}
		return out[i].Company < out[j].Company
	})
	return out
}

// Seasonality averages the overall posting count per calendar month across
// the years in the bucketed range. Every month appears in the output, at
// zero when the range never touches it.
func Seasonality(set *bucket.Set) []types.SeasonalityPoint {
	counts := bucket.Counts(set.Totals())

	var sums, occurs [13]float64
	for i, p := range set.Periods() {
		sums[p.Month] += counts[i]
		occurs[p.Month]++
	}

	out := make([]types.SeasonalityPoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		var mean float64
		if occurs[m] > 0 {
			mean = sums[m] / occurs[m]
		}
		out = append(out, types.SeasonalityPoint{Month: m, MeanCount: mean})
	}
	return out
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}
