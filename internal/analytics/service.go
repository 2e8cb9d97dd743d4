package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/internal/store"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// ErrNoSnapshot is returned by Rerun before any snapshot has been loaded.
var ErrNoSnapshot = errors.New("analytics: no snapshot loaded")

// Service owns the current snapshot and the run lifecycle: replace or
// reload the snapshot, run the analyzer, persist the run record, then
// notify subscribers. All methods are safe for concurrent use.
type Service struct {
	analyzer *Analyzer
	store    *store.Store // nil in memory-only mode
	started  time.Time

	mu    sync.RWMutex
	snap  *Snapshot
	last  *types.AnalysisResult
	hooks []func(*types.AnalysisResult)

	// runSeq assigns run IDs when no store is present; with a store the
	// run history row does it.
	runSeq atomic.Int64
}

// NewService wires an analyzer over cfg with an optional store.
func NewService(cfg config.AnalysisConfig, st *store.Store) *Service {
	return &Service{
		analyzer: NewAnalyzer(cfg),
		store:    st,
		started:  time.Now(),
	}
}

// OnResult registers fn to be called synchronously after every completed
// run. Register subscribers before the first run.
func (s *Service) OnResult(fn func(*types.AnalysisResult)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// ApplyConfig swaps the analysis parameters used by subsequent runs.
func (s *Service) ApplyConfig(cfg config.AnalysisConfig) {
	s.analyzer.SetConfig(cfg)
}

// Bootstrap loads the persisted snapshot, if any, and analyses it.
// Returns the number of records loaded; zero means the service starts
// empty and waits for an import or an ingest call.
func (s *Service) Bootstrap(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	records, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	snap := NewSnapshot(records, nil)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	slog.Info("analytics: snapshot loaded from store", "records", len(records))
	if _, err := s.analyze(ctx, snap); err != nil {
		return len(records), err
	}
	return len(records), nil
}

// Replace installs a new snapshot, persists it when a store is present,
// invalidates memoized results and runs a full analysis.
func (s *Service) Replace(ctx context.Context, records []types.JobRecord, rejected []types.RejectedRecord) (*types.AnalysisResult, error) {
	if s.store != nil {
		if _, err := s.store.ReplaceSnapshot(ctx, records); err != nil {
			return nil, err
		}
	}
	if m := s.analyzer.Memo(); m != nil {
		m.Invalidate()
	}

	snap := NewSnapshot(records, rejected)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	slog.Info("analytics: snapshot replaced",
		"records", len(records), "quarantined", len(rejected))
	return s.analyze(ctx, snap)
}

// Rerun re-analyses the current snapshot, picking up any configuration
// change since the last run.
func (s *Service) Rerun(ctx context.Context) (*types.AnalysisResult, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return s.analyze(ctx, snap)
}

// Latest returns the most recent run result, nil before the first run.
func (s *Service) Latest() *types.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Current returns the snapshot being analysed, nil before the first load.
func (s *Service) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Run keeps the memoization cache swept until ctx is cancelled. No-op
// when memoization is disabled.
func (s *Service) Run(ctx context.Context, sweep time.Duration) {
	if m := s.analyzer.Memo(); m != nil {
		m.Run(ctx, sweep)
		return
	}
	<-ctx.Done()
}

func (s *Service) analyze(ctx context.Context, snap *Snapshot) (*types.AnalysisResult, error) {
	res := s.analyzer.Run(ctx, snap)

	if s.store != nil {
		id, err := s.store.RecordRun(ctx, res)
		if err != nil {
			slog.Warn("analytics: record run", "err", err)
			res.RunID = s.runSeq.Add(1)
		} else {
			res.RunID = id
			s.runSeq.Store(id)
		}
	} else {
		res.RunID = s.runSeq.Add(1)
	}

	s.mu.Lock()
	s.last = res
	hooks := make([]func(*types.AnalysisResult), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(res)
	}

	slog.Info("analytics: run complete",
		"run_id", res.RunID, "records", res.Records, "duration", res.Duration)
	return res, nil
}

// Diagnostics is the operational summary served by the API.
type Diagnostics struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	LastRunID     int64   `json:"last_run_id"`
	Runs          int     `json:"runs"`
	Postings      int     `json:"postings"`
	Quarantined   int     `json:"quarantined"`
	CacheEntries  int     `json:"cache_entries"`
	Persistent    bool    `json:"persistent"`
}

// Diagnostics reports service state. Store counters are best-effort; a
// failing store read leaves them at zero rather than failing the call.
func (s *Service) Diagnostics(ctx context.Context) Diagnostics {
	s.mu.RLock()
	snap, last := s.snap, s.last
	s.mu.RUnlock()

	d := Diagnostics{
		UptimeSeconds: time.Since(s.started).Seconds(),
		Persistent:    s.store != nil,
	}
	if last != nil {
		d.LastRunID = last.RunID
	}
	if snap != nil {
		d.Postings = len(snap.Records)
		d.Quarantined = len(snap.Rejected)
	}
	if m := s.analyzer.Memo(); m != nil {
		d.CacheEntries = m.Len()
	}
	if s.store != nil {
		if n, err := s.store.CountRuns(ctx); err == nil {
			d.Runs = n
		}
		if n, err := s.store.CountPostings(ctx); err == nil {
			d.Postings = n
		}
	}
	return d
}

// RecentRuns returns persisted run history, newest first. Empty without a
// store.
func (s *Service) RecentRuns(ctx context.Context, n int) ([]store.Run, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.RecentRuns(ctx, n)
}
