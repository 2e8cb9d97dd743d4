package health

import (
	"math"

	"github.com/erickmeikoki/job-trends-data/internal/bucket"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Compute scores every period of the bucketed snapshot.
//
// Formula per period:
//
//	momentum  = rescale(clip(pct_change(window mean, prior window mean), -100, 100))
//	diversity = shannon_entropy(type shares) / ln(observed types) * 100
//	breadth   = distinct companies / trailing-window max * 100
//	score     = sum(indicator * weight) / sum(weight)   over present indicators
//
// Momentum needs at least one period before the current window, so the
// leading periods score on diversity and breadth alone.
func Compute(set *bucket.Set, cfg config.HealthConfig) []types.HealthIndexScore {
	periods := set.Periods()
	if len(periods) == 0 {
		return nil
	}

	totals := set.Totals()
	counts := bucket.Counts(totals)
	jobTypes := set.Types()

	scores := make([]types.HealthIndexScore, 0, len(periods))
	for i, p := range periods {
		indicators := make(map[string]float64)

		if v, ok := volumeMomentum(counts, i, cfg.Window); ok {
			indicators[types.IndicatorVolume] = v
		}
		if v, ok := typeDiversity(set, jobTypes, i); ok {
			indicators[types.IndicatorDiversity] = v
		}
		if v, ok := companyBreadth(totals, i, cfg.Window); ok {
			indicators[types.IndicatorBreadth] = v
		}

		if len(indicators) == 0 {
			scores = append(scores, types.HealthIndexScore{Period: p, Insufficient: true})
			continue
		}

		weights := renormalise(indicators, cfg)
		var score float64
		for name, v := range indicators {
			score += v * weights[name]
		}

		scores = append(scores, types.HealthIndexScore{
			Period:     p,
			Score:      score,
			Sentiment:  sentimentFor(score, cfg),
			Indicators: indicators,
			Weights:    weights,
		})
	}
	return scores
}

// volumeMomentum compares the trailing-window mean ending at i with the
// mean of the window before it. Windows at the head of the series shrink
// rather than extend past the first period; no prior period at all means
// the indicator is not computable.
func volumeMomentum(counts []float64, i, window int) (float64, bool) {
	curStart := i - window + 1
	if curStart < 0 {
		curStart = 0
	}
	if curStart == 0 {
		return 0, false
	}
	priorStart := curStart - window
	if priorStart < 0 {
		priorStart = 0
	}

	cur := mean(counts[curStart : i+1])
	prior := mean(counts[priorStart:curStart])

	var pct float64
	switch {
	case prior == 0 && cur == 0:
		pct = 0
	case prior == 0:
		pct = 100
	default:
		pct = (cur - prior) / prior * 100
	}
	pct = clamp(pct, -100, 100)
	return (pct + 100) / 2, true
}

// typeDiversity is the Shannon entropy of the period's postings across job
// types, normalised by the entropy of a uniform spread over every type
// observed in the snapshot. A snapshot with fewer than two types carries no
// diversity signal.
func typeDiversity(set *bucket.Set, jobTypes []types.JobType, i int) (float64, bool) {
	if len(jobTypes) < 2 {
		return 0, false
	}

	var total float64
	shares := make([]float64, 0, len(jobTypes))
	for _, jt := range jobTypes {
		c := float64(set.TypeSeries(jt)[i].Count)
		total += c
		shares = append(shares, c)
	}
	if total == 0 {
		return 0, false
	}

	var entropy float64
	for _, c := range shares {
		if c == 0 {
			continue
		}
		p := c / total
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(len(jobTypes))) * 100, true
}

// companyBreadth relates the period's distinct-company count to the maximum
// seen across the trailing window, itself included.
func companyBreadth(totals []types.TimeBucket, i, window int) (float64, bool) {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	max := 0
	for _, b := range totals[start : i+1] {
		if b.Companies > max {
			max = b.Companies
		}
	}
	if max == 0 {
		return 0, false
	}
	return float64(totals[i].Companies) / float64(max) * 100, true
}

// renormalise returns the configured weights of the present indicators,
// rescaled to sum to 1.
func renormalise(indicators map[string]float64, cfg config.HealthConfig) map[string]float64 {
	configured := map[string]float64{
		types.IndicatorVolume:    cfg.VolumeWeight,
		types.IndicatorDiversity: cfg.DiversityWeight,
		types.IndicatorBreadth:   cfg.BreadthWeight,
	}
	var sum float64
	for name := range indicators {
		sum += configured[name]
	}
	out := make(map[string]float64, len(indicators))
	for name := range indicators {
		out[name] = configured[name] / sum
	}
	return out
}

// sentimentFor maps a composite score to its label band.
func sentimentFor(score float64, cfg config.HealthConfig) string {
	switch {
	case score >= cfg.VeryStrongMin:
		return types.SentimentVeryStrong
	case score >= cfg.StrongMin:
		return types.SentimentStrong
	case score >= cfg.StableMin:
		return types.SentimentStable
	case score >= cfg.WeakMin:
		return types.SentimentWeak
	default:
		return types.SentimentVeryWeak
	}
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

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
