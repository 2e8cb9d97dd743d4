package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/internal/store"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestService_ReplaceAndRerun(t *testing.T) {
	st := setupTestStore(t)
	svc := NewService(config.Default().Analysis, st)
	ctx := context.Background()

	var notified []int64
	svc.OnResult(func(r *types.AnalysisResult) { notified = append(notified, r.RunID) })

	records := fixtureRecords()
	rejected := []types.RejectedRecord{{Row: 99, Reason: types.RejectInvalidDate, Detail: "soon"}}

	res, err := svc.Replace(ctx, records, rejected)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if res.RunID != 1 {
		t.Errorf("first run id = %d, want 1", res.RunID)
	}
	if res.Quarantined != 1 {
		t.Errorf("quarantined = %d, want 1", res.Quarantined)
	}

	// The snapshot reached the store.
	count, err := st.CountPostings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != len(records) {
		t.Errorf("stored postings = %d, want %d", count, len(records))
	}

	if svc.Latest() != res {
		t.Error("Latest does not return the last result")
	}

	res2, err := svc.Rerun(ctx)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if res2.RunID != 2 {
		t.Errorf("second run id = %d, want 2", res2.RunID)
	}

	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("subscriber saw runs %v, want [1 2]", notified)
	}

	runs, err := svc.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != 2 {
		t.Errorf("run history = %+v", runs)
	}
}

func TestService_RerunWithoutSnapshot(t *testing.T) {
	svc := NewService(config.Default().Analysis, nil)
	if _, err := svc.Rerun(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestService_BootstrapFromStore(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	first := NewService(config.Default().Analysis, st)
	if _, err := first.Replace(ctx, fixtureRecords(), nil); err != nil {
		t.Fatal(err)
	}

	// A fresh service over the same store picks the snapshot back up.
	second := NewService(config.Default().Analysis, st)
	n, err := second.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if n != len(fixtureRecords()) {
		t.Errorf("bootstrap loaded %d records, want %d", n, len(fixtureRecords()))
	}

	last := second.Latest()
	if last == nil {
		t.Fatal("no result after bootstrap")
	}
	if last.RunID != 2 {
		t.Errorf("run id = %d, want 2 (continuing the persisted sequence)", last.RunID)
	}
	if last.Records != len(fixtureRecords()) {
		t.Errorf("records = %d, want %d", last.Records, len(fixtureRecords()))
	}
}

func TestService_BootstrapEmptyStore(t *testing.T) {
	svc := NewService(config.Default().Analysis, setupTestStore(t))
	n, err := svc.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if n != 0 {
		t.Errorf("loaded %d records from an empty store", n)
	}
	if svc.Latest() != nil {
		t.Error("result produced without a snapshot")
	}
}

func TestService_MemoryOnly(t *testing.T) {
	svc := NewService(config.Default().Analysis, nil)
	ctx := context.Background()

	res, err := svc.Replace(ctx, fixtureRecords(), nil)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if res.RunID != 1 {
		t.Errorf("run id = %d, want 1", res.RunID)
	}

	res2, err := svc.Rerun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res2.RunID != 2 {
		t.Errorf("run id = %d, want 2", res2.RunID)
	}

	d := svc.Diagnostics(ctx)
	if d.Persistent {
		t.Error("memory-only service reports a store")
	}
	if d.LastRunID != 2 {
		t.Errorf("diagnostics run id = %d, want 2", d.LastRunID)
	}
}

func TestService_Diagnostics(t *testing.T) {
	st := setupTestStore(t)
	svc := NewService(config.Default().Analysis, st)
	ctx := context.Background()

	rejected := []types.RejectedRecord{{Row: 4, Reason: types.RejectMissingDate}}
	if _, err := svc.Replace(ctx, fixtureRecords(), rejected); err != nil {
		t.Fatal(err)
	}

	d := svc.Diagnostics(ctx)
	if !d.Persistent {
		t.Error("store-backed service reports no store")
	}
	if d.Postings != len(fixtureRecords()) {
		t.Errorf("postings = %d, want %d", d.Postings, len(fixtureRecords()))
	}
	if d.Quarantined != 1 {
		t.Errorf("quarantined = %d, want 1", d.Quarantined)
	}
	if d.Runs != 1 {
		t.Errorf("runs = %d, want 1", d.Runs)
	}
	if d.LastRunID != 1 {
		t.Errorf("last run id = %d, want 1", d.LastRunID)
	}
	if d.CacheEntries != len(engineNames) {
		t.Errorf("cache entries = %d, want %d", d.CacheEntries, len(engineNames))
	}
	if d.UptimeSeconds < 0 {
		t.Errorf("uptime = %f", d.UptimeSeconds)
	}
}
