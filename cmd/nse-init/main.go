package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nsesync/internal/catalog"
	"nsesync/internal/config"
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

	if err := catalog.Populate(ctx, ps, cfg.Catalog.StocksCSV, cfg.Catalog.IndexesCSV, cfg.Catalog.Venue); err != nil {
		log.Fatalf("populating catalog: %v", err)
	}

	instruments, err := catalog.Instruments(ctx, ps, cfg.Catalog.Venue)
	if err != nil {
		log.Fatalf("reading catalog: %v", err)
	}
	logger.Info("database initialized",
		"path", cfg.Storage.SQLitePath,
		"instruments", len(instruments),
	)
}
