package alerts

import (
	"strconv"
	"strings"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// subjectValue is one evaluation candidate: the subject an alert would be
// about (series key, company name, or "ingest") and its current value.
// Period is set when the value belongs to a specific period.
type subjectValue struct {
	subject string
	value   float64
	period  string
}

// parseCondition splits a rule condition of the form "field op value".
//
// Supported expressions:
//
//	health_index < 40
//	surge_magnitude > 3
//	slowdown_magnitude > 2.5
//	forecast_drop_pct > 20
//	quarantine_ratio > 0.1
//
// Returns ok=false if the expression does not parse.
func parseCondition(cond string) (field, op string, threshold float64, ok bool) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return "", "", 0, false
	}
	threshold, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", "", 0, false
	}
	switch parts[1] {
	case ">", ">=", "<", "<=", "==":
	default:
		return "", "", 0, false
	}
	return parts[0], parts[1], threshold, true
}

// candidatesOf maps a condition field to its evaluation candidates in res.
// An unknown field yields nothing.
func candidatesOf(field string, res *types.AnalysisResult) []subjectValue {
	switch field {
	case "health_index":
		// Latest period with a computable score.
		for i := len(res.Health) - 1; i >= 0; i-- {
			s := res.Health[i]
			if s.Insufficient {
				continue
			}
			return []subjectValue{{
				subject: types.SeriesAll,
				value:   s.Score,
				period:  s.Period.String(),
			}}
		}
		return nil

	case "surge_magnitude", "slowdown_magnitude":
		kind := types.EventSurge
		if field == "slowdown_magnitude" {
			kind = types.EventSlowdown
		}
		var out []subjectValue
		for _, ev := range res.Events {
			// Only events still open at the end of the series; closed
			// history does not re-fire.
			if ev.Kind != kind || ev.End != res.End {
				continue
			}
			out = append(out, subjectValue{
				subject: ev.Company,
				value:   ev.Magnitude,
				period:  ev.End.String(),
			})
		}
		return out

	case "forecast_drop_pct":
		points := res.Forecasts[types.SeriesAll]
		if len(points) < 2 || points[0].Forecast <= 0 {
			return nil
		}
		first, last := points[0].Forecast, points[len(points)-1].Forecast
		drop := (first - last) / first * 100
		return []subjectValue{{subject: types.SeriesAll, value: drop}}

	case "quarantine_ratio":
		total := res.Records + res.Quarantined
		if total == 0 {
			return nil
		}
		ratio := float64(res.Quarantined) / float64(total)
		return []subjectValue{{subject: "ingest", value: ratio}}

	default:
		return nil
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
