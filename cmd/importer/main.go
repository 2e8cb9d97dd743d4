package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/internal/ingest"
	"github.com/erickmeikoki/job-trends-data/internal/store"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply without one)")
	csvPath := flag.String("csv", "", "import postings from this CSV file")
	sampleN := flag.Int("sample", 0, "generate this many synthetic postings instead of reading a file")
	seed := flag.Int64("seed", 1, "seed for -sample generation")
	fetch := flag.Bool("fetch", false, "fetch postings from the configured job-board API")
	storePath := flag.String("store", "", "override the store path from the config")
	appendMode := flag.Bool("append", false, "insert into the existing snapshot instead of replacing it")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rows, prefix, err := loadRows(ctx, cfg, *csvPath, *sampleN, *seed, *fetch)
	if err != nil {
		slog.Error("loading rows failed", "err", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		slog.Error("no input: pass -csv, -sample or -fetch")
		os.Exit(2)
	}

	records, rejected := ingest.Process(rows, ingest.Options{IDPrefix: prefix})
	reportQuarantine(rejected)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", "path", cfg.Store.Path, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	var written int64
	if *appendMode {
		written, err = st.InsertRecords(ctx, records)
	} else {
		written, err = st.ReplaceSnapshot(ctx, records)
	}
	if err != nil {
		slog.Error("writing snapshot failed", "err", err)
		os.Exit(1)
	}

	slog.Info("import complete",
		"store", cfg.Store.Path,
		"rows", len(rows),
		"accepted", len(records),
		"quarantined", len(rejected),
		"written", written,
		"append", *appendMode,
	)
}

// loadRows reads raw rows from exactly one source, preferring the CSV file,
// then the sample generator, then the remote fetch.
func loadRows(ctx context.Context, cfg *config.Config, csvPath string, sampleN int, seed int64, fetch bool) ([]ingest.RawRow, string, error) {
	switch {
	case csvPath != "":
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		rows, err := ingest.DecodeCSV(f)
		return rows, "csv", err

	case sampleN > 0:
		return ingest.Sample(sampleN, seed, time.Now()), "sample", nil

	case fetch:
		rows, err := ingest.NewFetcher(cfg.Fetch).Fetch(ctx)
		return rows, "fetch", err
	}
	return nil, "", nil
}

// reportQuarantine logs the rejected rows grouped by reason so an operator
// can see at a glance why input was dropped.
func reportQuarantine(rejected []types.RejectedRecord) {
	if len(rejected) == 0 {
		return
	}

	byReason := make(map[types.RejectReason]int)
	for _, r := range rejected {
		byReason[r.Reason]++
		slog.Warn("row quarantined", "row", r.Row, "reason", r.Reason, "detail", r.Detail)
	}
	for reason, n := range byReason {
		slog.Info("quarantine summary", "reason", reason, "rows", n)
	}
}
