package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erickmeikoki/job-trends-data/internal/alerts"
	"github.com/erickmeikoki/job-trends-data/internal/analytics"
	"github.com/erickmeikoki/job-trends-data/internal/api"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/internal/ingest"
	"github.com/erickmeikoki/job-trends-data/internal/metrics"
	"github.com/erickmeikoki/job-trends-data/internal/store"
	"github.com/erickmeikoki/job-trends-data/internal/ws"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	slog.Info("job-trends-server starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"store", cfg.Store.Path,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", "path", cfg.Store.Path, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	svc := analytics.NewService(cfg.Analysis, st)
	alertEngine := alerts.New(cfg.Alerts)
	collector := metrics.New()
	hub := ws.New()
	collector.SetClientCount(hub.Count)

	alertEngine.OnAlert(func(a alerts.Alert) {
		hub.Broadcast(ws.EventAlert, a)
	})
	svc.OnResult(func(res *types.AnalysisResult) {
		alertEngine.Evaluate(res)
		collector.ObserveRun(res)
		collector.SetAlertsFiring(len(alertEngine.Active()))
		hub.Broadcast(ws.EventRun, api.BuildSummary(res))
	})

	go hub.Run(ctx)
	go svc.Run(ctx, cfg.Analysis.Cache.Sweep)

	// Load whatever the store holds, then prefer the configured dataset
	// file when one is present.
	if n, err := svc.Bootstrap(ctx); err != nil {
		slog.Error("bootstrap analysis failed", "err", err)
	} else if n == 0 && cfg.Dataset.Path == "" {
		slog.Info("starting empty — waiting for an import or POST /api/v1/ingest")
	}
	if cfg.Dataset.Path != "" {
		importDataset(ctx, svc, cfg.Dataset)
		if cfg.Dataset.Watch {
			go func() {
				err := config.WatchPath(ctx, cfg.Dataset.Path, func(string) {
					importDataset(ctx, svc, cfg.Dataset)
				})
				if err != nil {
					slog.Error("dataset watcher stopped", "err", err)
				}
			}()
		}
	}

	// Config hot-reload: swap analysis parameters and re-run.
	go func() {
		err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			svc.ApplyConfig(updated.Analysis)
			if _, err := svc.Rerun(ctx); err != nil {
				slog.Warn("re-run after config reload failed", "err", err)
			}
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	apiHandler := api.New(svc, alertEngine, cfg.Server.Auth)
	mux.Handle("/api/", apiHandler)
	mux.Handle("/healthz", apiHandler)
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", collector)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("job-trends-server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}

// setupLogger installs the process-wide slog handler per the log config.
func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// importDataset reads the configured CSV file, pushes it through validation
// and replaces the snapshot. Failures are logged; the previous snapshot
// stays active.
func importDataset(ctx context.Context, svc *analytics.Service, cfg config.DatasetConfig) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		slog.Error("dataset import: open failed", "path", cfg.Path, "err", err)
		return
	}
	defer f.Close()

	rows, err := ingest.DecodeCSV(f)
	if err != nil {
		slog.Error("dataset import: decode failed", "path", cfg.Path, "err", err)
		return
	}

	records, rejected := ingest.Process(rows, ingest.Options{IDPrefix: cfg.IDPrefix})
	if _, err := svc.Replace(ctx, records, rejected); err != nil {
		slog.Error("dataset import: analysis failed", "err", err)
		return
	}
	slog.Info("dataset imported",
		"path", cfg.Path, "records", len(records), "quarantined", len(rejected))
}
