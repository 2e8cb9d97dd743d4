package analytics

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erickmeikoki/job-trends-data/internal/bucket"
	"github.com/erickmeikoki/job-trends-data/internal/cache"
	"github.com/erickmeikoki/job-trends-data/internal/cluster"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/internal/forecast"
	"github.com/erickmeikoki/job-trends-data/internal/health"
	"github.com/erickmeikoki/job-trends-data/internal/pattern"
	"github.com/erickmeikoki/job-trends-data/internal/trend"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// engineNames is the full engine set in status-map order.
var engineNames = []string{
	types.EngineHealth,
	types.EngineTrend,
	types.EngineCluster,
	types.EngineForecast,
	types.EnginePattern,
}

// Analyzer runs the analysis engines over a snapshot and assembles the
// per-run result. Safe for concurrent use; the configuration may be
// swapped between runs via SetConfig.
type Analyzer struct {
	mu   sync.RWMutex
	cfg  config.AnalysisConfig
	memo *cache.Cache // nil when memoization is disabled
}

// NewAnalyzer builds an Analyzer for one analysis configuration. Whether
// results are memoized is fixed at construction; SetConfig changes only
// the analysis parameters.
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	a := &Analyzer{cfg: cfg}
	if cfg.Cache.Enabled {
		a.memo = cache.New(cfg.Cache.TTL)
	}
	return a
}

// SetConfig swaps the analysis parameters. The next Run picks them up;
// memoized results from the old parameters stop matching by key.
func (a *Analyzer) SetConfig(cfg config.AnalysisConfig) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
}

func (a *Analyzer) config() config.AnalysisConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Memo exposes the memoization cache, nil when disabled. The owner is
// responsible for running its eviction loop and invalidating it on
// snapshot replacement.
func (a *Analyzer) Memo() *cache.Cache { return a.memo }

// Payload types memoized per engine: the engine's output plus the status
// it reported.
type healthPayload struct {
	scores []types.HealthIndexScore
	status types.EngineStatus
}

type trendPayload struct {
	segments map[string][]types.TrendSegment
	status   types.EngineStatus
}

type clusterPayload struct {
	clusters []types.SkillCluster
	emerging []types.EmergingSkill
	status   types.EngineStatus
}

type forecastPayload struct {
	points map[string][]types.ForecastPoint
	status types.EngineStatus
}

type patternPayload struct {
	events      []types.HiringPatternEvent
	growth      []types.CompanyGrowth
	seasonality []types.SeasonalityPoint
	status      types.EngineStatus
}

// Run executes every engine over snap and returns the assembled result.
// Engines run concurrently; each one's failure or insufficiency lands in
// Statuses without touching the others' payloads. RunID is left to the
// caller, which assigns it from the run history.
func (a *Analyzer) Run(ctx context.Context, snap *Snapshot) *types.AnalysisResult {
	started := time.Now()
	cfg := a.config()

	var opts bucket.Options
	if p, ok := cfg.StartPeriod(); ok {
		opts.Start = &p
	}
	if p, ok := cfg.EndPeriod(); ok {
		opts.End = &p
	}
	set := bucket.Build(snap.Records, opts)

	res := &types.AnalysisResult{
		StartedAt:   started,
		Records:     len(snap.Records),
		Quarantined: len(snap.Rejected),
		Statuses:    make(map[string]types.EngineStatus, len(engineNames)),
	}
	res.Start, res.End = set.Range()

	if len(set.Periods()) == 0 {
		for _, name := range engineNames {
			res.Statuses[name] = types.InsufficientStatus("no postings in the analysis range")
		}
		res.Duration = time.Since(started)
		return res
	}

	// Cluster co-occurrence works on whole records rather than buckets, so
	// apply the same period range the buckets use.
	records := recordsInRange(snap.Records, res.Start, res.End)

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	run := func(name string, fn func() types.EngineStatus) {
		runEngine(g, &mu, res.Statuses, name, fn)
	}

	run(types.EngineHealth, func() types.EngineStatus {
		key := a.memoKey(types.EngineHealth, res, snap, cfg.Health)
		if v, ok := a.memoGet(key); ok {
			p := v.(healthPayload)
			mu.Lock()
			res.Health = p.scores
			mu.Unlock()
			return p.status
		}
		scores := health.Compute(set, cfg.Health)
		status := types.OKStatus()
		if allInsufficient(scores) {
			status = types.InsufficientStatus("no period with a computable indicator")
		}
		a.memoPut(key, healthPayload{scores: scores, status: status})
		mu.Lock()
		res.Health = scores
		mu.Unlock()
		return status
	})

	run(types.EngineTrend, func() types.EngineStatus {
		section := struct {
			PerType bool
			Cfg     config.TrendConfig
		}{cfg.PerType, cfg.Trend}
		key := a.memoKey(types.EngineTrend, res, snap, section)
		if v, ok := a.memoGet(key); ok {
			p := v.(trendPayload)
			mu.Lock()
			res.Trends = p.segments
			mu.Unlock()
			return p.status
		}
		segments := make(map[string][]types.TrendSegment)
		segments[types.SeriesAll] = trend.Segments(types.SeriesAll, set.Periods(), bucket.Counts(set.Totals()), cfg.Trend)
		if cfg.PerType {
			for _, jt := range set.Types() {
				series := types.SeriesForType(jt)
				segments[series] = trend.Segments(series, set.Periods(), bucket.Counts(set.TypeSeries(jt)), cfg.Trend)
			}
		}
		status := types.OKStatus()
		a.memoPut(key, trendPayload{segments: segments, status: status})
		mu.Lock()
		res.Trends = segments
		mu.Unlock()
		return status
	})

	run(types.EngineCluster, func() types.EngineStatus {
		key := a.memoKey(types.EngineCluster, res, snap, cfg.Cluster)
		if v, ok := a.memoGet(key); ok {
			p := v.(clusterPayload)
			mu.Lock()
			res.Clusters, res.Emerging = p.clusters, p.emerging
			mu.Unlock()
			return p.status
		}
		clusters := cluster.Clusters(records, cfg.Cluster)
		emerging := cluster.Emerging(set, cfg.Cluster)
		status := types.OKStatus()
		a.memoPut(key, clusterPayload{clusters: clusters, emerging: emerging, status: status})
		mu.Lock()
		res.Clusters, res.Emerging = clusters, emerging
		mu.Unlock()
		return status
	})

	run(types.EngineForecast, func() types.EngineStatus {
		section := struct {
			PerType bool
			Cfg     config.ForecastConfig
		}{cfg.PerType, cfg.Forecast}
		key := a.memoKey(types.EngineForecast, res, snap, section)
		if v, ok := a.memoGet(key); ok {
			p := v.(forecastPayload)
			mu.Lock()
			res.Forecasts = p.points
			mu.Unlock()
			return p.status
		}
		points := make(map[string][]types.ForecastPoint)
		points[types.SeriesAll] = forecast.Forecast(types.SeriesAll, set.Periods(), bucket.Counts(set.Totals()), cfg.Forecast)
		if cfg.PerType {
			for _, jt := range set.Types() {
				series := types.SeriesForType(jt)
				points[series] = forecast.Forecast(series, set.Periods(), bucket.Counts(set.TypeSeries(jt)), cfg.Forecast)
			}
		}
		status := types.OKStatus()
		a.memoPut(key, forecastPayload{points: points, status: status})
		mu.Lock()
		res.Forecasts = points
		mu.Unlock()
		return status
	})

	run(types.EnginePattern, func() types.EngineStatus {
		key := a.memoKey(types.EnginePattern, res, snap, cfg.Pattern)
		if v, ok := a.memoGet(key); ok {
			p := v.(patternPayload)
			mu.Lock()
			res.Events, res.Growth, res.Seasonality = p.events, p.growth, p.seasonality
			mu.Unlock()
			return p.status
		}
		events, ok := pattern.Events(set, cfg.Pattern)
		growth := pattern.Growth(set, cfg.Pattern)
		seasonality := pattern.Seasonality(set)
		status := types.OKStatus()
		if !ok {
			status = types.InsufficientStatus(fmt.Sprintf(
				"%d periods, baseline window needs %d", len(set.Periods()), cfg.Pattern.Window))
		}
		a.memoPut(key, patternPayload{events: events, growth: growth, seasonality: seasonality, status: status})
		mu.Lock()
		res.Events, res.Growth, res.Seasonality = events, growth, seasonality
		mu.Unlock()
		return status
	})

	_ = g.Wait()

	res.Duration = time.Since(started)
	return res
}

// runEngine schedules fn on g, recovering a panic into a failed status so
// one engine cannot take down the whole run.
func runEngine(g *errgroup.Group, mu *sync.Mutex, statuses map[string]types.EngineStatus, name string, fn func() types.EngineStatus) {
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				statuses[name] = types.FailedStatus(fmt.Sprintf("panic: %v", r))
				mu.Unlock()
			}
		}()
		status := fn()
		mu.Lock()
		statuses[name] = status
		mu.Unlock()
		return nil
	})
}

// memoKey builds the cache key: engine, period range, config-section hash
// and snapshot fingerprint. Any of the four changing produces a new key.
func (a *Analyzer) memoKey(engine string, res *types.AnalysisResult, snap *Snapshot, section any) string {
	return fmt.Sprintf("%s|%s..%s|%016x|%016x",
		engine, res.Start, res.End, configHash(section), snap.Fingerprint())
}

// configHash is an FNV-64 hash over the section's printed form. Struct
// fields print in declaration order, so equal sections hash equally.
func configHash(section any) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%+v", section)
	return h.Sum64()
}

func (a *Analyzer) memoGet(key string) (any, bool) {
	if a.memo == nil {
		return nil, false
	}
	return a.memo.Get(key)
}

func (a *Analyzer) memoPut(key string, v any) {
	if a.memo != nil {
		a.memo.Put(key, v)
	}
}

func recordsInRange(records []types.JobRecord, start, end types.Period) []types.JobRecord {
	var out []types.JobRecord
	for _, r := range records {
		p := types.PeriodOf(r.Date)
		if p.Before(start) || end.Before(p) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func allInsufficient(scores []types.HealthIndexScore) bool {
	for _, s := range scores {
		if !s.Insufficient {
			return false
		}
	}
	return true
}
