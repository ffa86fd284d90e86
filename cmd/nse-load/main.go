// nse-load replays the staging files into the SQLite store without touching
// the upstream source. Useful after restoring a database or switching the
// database path.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nsesync/internal/catalog"
	"nsesync/internal/config"
	"nsesync/internal/domain"
	"nsesync/internal/gather"
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

	loader := gather.NewIncrementalLoader(staging, ps, logger)

	var total int64
	failed := 0
	for _, inst := range instruments {
		if ctx.Err() != nil {
			log.Fatalf("load aborted: %v", ctx.Err())
		}

		var (
			inserted int64
			err      error
		)
		switch inst.Category {
		case domain.CategoryEquity:
			inserted, err = loader.LoadEquity(ctx, inst.Symbol, inst.Venue)
		case domain.CategoryIndex:
			inserted, err = loader.LoadIndex(ctx, inst.Symbol)
		}
		if err != nil {
			logger.Warn("load failed", "instrument", inst.Key(), "error", err)
			failed++
			continue
		}
		total += inserted
	}

	logger.Info("load complete",
		"instruments", len(instruments),
		"failed", failed,
		"inserted", total,
	)

	if failed > 0 {
		os.Exit(1)
	}
}
