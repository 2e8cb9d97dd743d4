package trend

import (
	"testing"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func testCfg() config.TrendConfig {
	return config.Default().Analysis.Trend
}

func periods(start types.Period, n int) []types.Period {
	out := make([]types.Period, n)
	for i := range out {
		out[i] = start.Add(i)
	}
	return out
}

var jan2025 = types.Period{Year: 2025, Month: time.January}

func TestSegments_SpikeDoesNotFlipState(t *testing.T) {
	// Five flat periods, a single spike, then straight back to baseline.
	// The spike window signals growth once, but one period is below the
	// confirmation requirement, so the whole series stays stable.
	counts := []float64{10, 10, 10, 10, 10, 25, 10}
	segs := Segments("all", periods(jan2025, len(counts)), counts, testCfg())

	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1: %+v", len(segs), segs)
	}
	seg := segs[0]
	if seg.State != types.TrendStable {
		t.Errorf("state = %q, want stable", seg.State)
	}
	if seg.Start != jan2025 || seg.End != jan2025.Add(6) {
		t.Errorf("segment spans %s..%s", seg.Start, seg.End)
	}
	if seg.Series != "all" {
		t.Errorf("series = %q", seg.Series)
	}
}

func TestSegments_SustainedGrowth(t *testing.T) {
	counts := []float64{10, 10, 10, 12, 14, 16, 18}
	segs := Segments("all", periods(jan2025, len(counts)), counts, testCfg())

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segs), segs)
	}
	if segs[0].State != types.TrendStable {
		t.Errorf("first state = %q", segs[0].State)
	}
	if segs[1].State != types.TrendGrowth {
		t.Errorf("second state = %q", segs[1].State)
	}
	// Growth confirms on the second consecutive growth signal.
	if segs[1].Start != jan2025.Add(4) {
		t.Errorf("growth starts %s, want %s", segs[1].Start, jan2025.Add(4))
	}
	if segs[1].End != jan2025.Add(6) {
		t.Errorf("growth ends %s", segs[1].End)
	}
	if segs[1].Slope <= 0 {
		t.Errorf("growth slope = %v, want positive", segs[1].Slope)
	}
}

func TestSegments_SustainedDecline(t *testing.T) {
	counts := []float64{20, 20, 20, 17, 14, 11, 8}
	segs := Segments("all", periods(jan2025, len(counts)), counts, testCfg())

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segs), segs)
	}
	if segs[1].State != types.TrendDecline {
		t.Errorf("second state = %q, want decline", segs[1].State)
	}
	if segs[1].Slope >= 0 {
		t.Errorf("decline slope = %v, want negative", segs[1].Slope)
	}
}

func TestSegments_VolatilityCeilingBlocksGrowth(t *testing.T) {
	// Steep slope but wildly volatile: the noise ceiling keeps it stable
	// regardless of confirmation.
	cfg := testCfg()
	cfg.Confirm = 1
	counts := []float64{1, 1, 30, 1, 30, 1, 30}
	segs := Segments("all", periods(jan2025, len(counts)), counts, cfg)

	for _, seg := range segs {
		if seg.State != types.TrendStable {
			t.Errorf("segment %s..%s state = %q, want stable", seg.Start, seg.End, seg.State)
		}
	}
}

func TestSegments_ConfirmOneFlipsImmediately(t *testing.T) {
	cfg := testCfg()
	cfg.Confirm = 1
	counts := []float64{10, 10, 10, 10, 10, 25, 10}
	segs := Segments("all", periods(jan2025, len(counts)), counts, cfg)

	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segs), segs)
	}
	if segs[1].State != types.TrendGrowth {
		t.Errorf("spike state = %q, want growth", segs[1].State)
	}
	if segs[1].Start != segs[1].End {
		t.Errorf("spike segment spans %s..%s, want one period", segs[1].Start, segs[1].End)
	}
}

func TestSegments_ShortSeriesStable(t *testing.T) {
	counts := []float64{5, 7}
	segs := Segments("all", periods(jan2025, len(counts)), counts, testCfg())
	if len(segs) != 1 || segs[0].State != types.TrendStable {
		t.Fatalf("segments = %+v, want one stable", segs)
	}
}

func TestSegments_Empty(t *testing.T) {
	if segs := Segments("all", nil, nil, testCfg()); segs != nil {
		t.Errorf("segments = %+v, want nil", segs)
	}
}

func TestOlsSlope(t *testing.T) {
	tests := []struct {
		window []float64
		want   float64
	}{
		{[]float64{10, 10, 10}, 0},
		{[]float64{10, 12, 14}, 2},
		{[]float64{14, 12, 10}, -2},
		{[]float64{10, 10, 25}, 7.5},
	}
	for _, tt := range tests {
		if got := olsSlope(tt.window); got != tt.want {
			t.Errorf("olsSlope(%v) = %v, want %v", tt.window, got, tt.want)
		}
	}
}
