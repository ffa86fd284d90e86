package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nsesync/internal/catalog"
	"nsesync/internal/config"
	"nsesync/internal/gather"
	"nsesync/internal/nse"
	"nsesync/internal/store"
	"nsesync/internal/util"
)

func main() {
	cfgPath := "config/nsesync.yaml"
	if p := os.Getenv("NSESYNC_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ps, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer ps.Close()

	if err := ps.EnsureSchema(ctx); err != nil {
		log.Fatalf("creating price schema: %v", err)
	}
	if err := ps.EnsureCatalogSchema(ctx); err != nil {
		log.Fatalf("creating catalog schema: %v", err)
	}

	staging, err := store.NewStagingStore(cfg.Storage.StagingFormat, cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("creating staging store: %v", err)
	}

	instruments, err := catalog.Instruments(ctx, ps, cfg.Catalog.Venue)
	if err != nil {
		log.Fatalf("reading catalog: %v", err)
	}
	if len(instruments) == 0 {
		log.Fatalf("catalog is empty; run nse-init first")
	}

	client := nse.NewHTTPClient(cfg.NSE.BaseURL, time.Duration(cfg.NSE.TimeoutSeconds)*time.Second, logger)
	limiter := util.NewRateLimiter(cfg.Delay())
	fetcher := gather.NewChunkedFetcher(client, limiter, cfg.Sync.ChunkDays, cfg.Sync.MaxRetries, cfg.RetryBackoff(), logger)

	from, to := cfg.Window()
	runner := gather.NewRunner(instruments, gather.DateRange{From: from, To: to}, fetcher, staging, ps, logger)

	summary, err := runner.Sync(ctx)
	if err != nil {
		log.Fatalf("sync aborted: %v", err)
	}

	for _, o := range summary.Failed() {
		logger.Warn("instrument failed", "instrument", o.Instrument.Key(), "error", o.Err)
	}
	logger.Info("run complete",
		"instruments", len(summary.Outcomes),
		"failed", len(summary.Failed()),
		"inserted", summary.Inserted(),
	)

	if len(summary.Failed()) > 0 {
		os.Exit(1)
	}
}
