package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func period(s string) types.Period {
	p, err := types.ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// healthResult builds a minimal run result whose latest computable health
// score is score.
func healthResult(score float64, last string) *types.AnalysisResult {
	p := period(last)
	return &types.AnalysisResult{
		End:     p,
		Records: 100,
		Health: []types.HealthIndexScore{
			{Period: p.Add(-1), Score: 80, Sentiment: types.SentimentStrong},
			{Period: p, Score: score},
		},
	}
}

func TestEvaluate_HealthFloorLifecycle(t *testing.T) {
	e := New(config.AlertsConfig{HealthFloor: 40, History: 8})
	base := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	now := base
	e.now = func() time.Time { return now }

	e.Evaluate(healthResult(33.1, "2025-08"))

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	a := active[0]
	if a.RuleName != "health_floor" || a.Subject != types.SeriesAll {
		t.Errorf("alert = %+v", a)
	}
	if a.Value != 33.1 {
		t.Errorf("value = %f, want 33.1", a.Value)
	}
	if !strings.Contains(a.Message, "2025-08") {
		t.Errorf("message lacks the period: %q", a.Message)
	}

	// Within the cooldown the same crossing does not re-fire.
	now = base.Add(time.Minute)
	e.Evaluate(healthResult(31, "2025-08"))
	if len(e.History()) != 1 {
		t.Errorf("history after cooldown-suppressed run = %d, want 1", len(e.History()))
	}

	// Past the default cooldown it fires again.
	now = base.Add(16 * time.Minute)
	e.Evaluate(healthResult(30, "2025-08"))
	if len(e.History()) != 2 {
		t.Errorf("history after re-fire = %d, want 2", len(e.History()))
	}
	if len(e.Active()) != 1 {
		t.Errorf("active after re-fire = %d, want 1", len(e.Active()))
	}

	// Recovery resolves the alert.
	now = base.Add(32 * time.Minute)
	e.Evaluate(healthResult(62, "2025-09"))
	if len(e.Active()) != 0 {
		t.Errorf("active after recovery = %d, want 0", len(e.Active()))
	}
	hist := e.History()
	if hist[0].State != "resolved" || hist[0].ResolvedAt == nil {
		t.Errorf("newest history entry = %+v, want resolved", hist[0])
	}
}

func TestEvaluate_SurgeRule(t *testing.T) {
	cfg := config.AlertsConfig{
		Rules: []config.AlertRule{{
			Name:      "hiring_surge",
			Condition: "surge_magnitude > 2",
			Severity:  "critical",
			Cooldown:  time.Minute,
		}},
	}
	e := New(cfg)

	end := period("2025-08")
	res := &types.AnalysisResult{
		End:     end,
		Records: 50,
		Events: []types.HiringPatternEvent{
			{Company: "Google", Kind: types.EventSurge, End: end, Magnitude: 3.5},
			// Closed before the end of the series: stays quiet.
			{Company: "Stale", Kind: types.EventSurge, End: period("2025-05"), Magnitude: 9},
			// Below the threshold.
			{Company: "Mild", Kind: types.EventSurge, End: end, Magnitude: 1.5},
			// Wrong kind for this field.
			{Company: "Shrink", Kind: types.EventSlowdown, End: end, Magnitude: 4},
		},
	}
	e.Evaluate(res)

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1 (got %+v)", len(active), active)
	}
	if active[0].Subject != "Google" || active[0].Severity != "critical" {
		t.Errorf("alert = %+v", active[0])
	}
}

func TestEvaluate_SlowdownRule(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "slowdown", Condition: "slowdown_magnitude >= 4"}},
	})

	end := period("2025-08")
	e.Evaluate(&types.AnalysisResult{
		End:     end,
		Records: 50,
		Events: []types.HiringPatternEvent{
			{Company: "Shrink", Kind: types.EventSlowdown, End: end, Magnitude: 4},
			{Company: "Google", Kind: types.EventSurge, End: end, Magnitude: 6},
		},
	})

	active := e.Active()
	if len(active) != 1 || active[0].Subject != "Shrink" {
		t.Fatalf("active = %+v, want one alert for Shrink", active)
	}
	// Fires with the default severity when the rule does not set one.
	if active[0].Severity != "warning" {
		t.Errorf("severity = %q, want warning", active[0].Severity)
	}
}

func TestEvaluate_QuarantineRatio(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "dirty_feed", Condition: "quarantine_ratio > 0.1", Cooldown: time.Minute}},
	})

	e.Evaluate(&types.AnalysisResult{Records: 80, Quarantined: 20})
	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	if active[0].Subject != "ingest" || active[0].Value != 0.2 {
		t.Errorf("alert = %+v", active[0])
	}

	e.Evaluate(&types.AnalysisResult{Records: 95, Quarantined: 5})
	if len(e.Active()) != 0 {
		t.Error("alert did not resolve when the ratio recovered")
	}
}

func TestEvaluate_ForecastDrop(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "demand_drop", Condition: "forecast_drop_pct > 20"}},
	})

	e.Evaluate(&types.AnalysisResult{
		Records: 50,
		Forecasts: map[string][]types.ForecastPoint{
			types.SeriesAll: {
				{Forecast: 100},
				{Forecast: 90},
				{Forecast: 70},
			},
		},
	})

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	if active[0].Value != 30 {
		t.Errorf("drop value = %f, want 30", active[0].Value)
	}
}

func TestEvaluate_BadRulesAreSkipped(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{
			{Name: "garbled", Condition: "health_index <"},
			{Name: "unknown_field", Condition: "cpu_load > 3"},
		},
	})
	e.Evaluate(healthResult(10, "2025-08"))
	if len(e.Active()) != 0 {
		t.Errorf("active = %+v, want none", e.Active())
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		cond      string
		wantField string
		wantOp    string
		wantVal   float64
		wantOK    bool
	}{
		{"health_index < 40", "health_index", "<", 40, true},
		{"surge_magnitude >= 2.5", "surge_magnitude", ">=", 2.5, true},
		{"quarantine_ratio > 0.1", "quarantine_ratio", ">", 0.1, true},
		{"health_index <", "", "", 0, false},
		{"health_index ~ 40", "", "", 0, false},
		{"health_index < forty", "", "", 0, false},
		{"a b c d", "", "", 0, false},
	}
	for _, tt := range tests {
		field, op, val, ok := parseCondition(tt.cond)
		if ok != tt.wantOK {
			t.Errorf("parseCondition(%q) ok = %v, want %v", tt.cond, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if field != tt.wantField || op != tt.wantOp || val != tt.wantVal {
			t.Errorf("parseCondition(%q) = %s %s %g", tt.cond, field, op, val)
		}
	}
}

func TestHistoryRing(t *testing.T) {
	e := New(config.AlertsConfig{
		History: 3,
		Rules:   []config.AlertRule{{Name: "surge", Condition: "surge_magnitude > 1", Cooldown: time.Nanosecond}},
	})
	base := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	step := 0
	e.now = func() time.Time { step++; return base.Add(time.Duration(step) * time.Minute) }

	end := period("2025-08")
	companies := []string{"A", "B", "C", "D", "E"}
	for _, c := range companies {
		e.Evaluate(&types.AnalysisResult{
			End:     end,
			Records: 10,
			Events: []types.HiringPatternEvent{
				{Company: c, Kind: types.EventSurge, End: end, Magnitude: 5},
			},
		})
	}

	hist := e.History()
	if len(hist) != 3 {
		t.Fatalf("history = %d entries, want 3", len(hist))
	}
	if hist[0].Subject != "E" {
		t.Errorf("newest entry subject = %q, want E", hist[0].Subject)
	}
}
