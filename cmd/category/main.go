// cmd/category/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/tomanasmo/finnmonitor/internal/config"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
	"github.com/tomanasmo/finnmonitor/internal/scrape"
	"github.com/tomanasmo/finnmonitor/internal/status"
	"github.com/tomanasmo/finnmonitor/internal/workers"
	"github.com/tomanasmo/finnmonitor/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/app.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	db, err := repositories.Open(cfg.Database.DSN())
	if err != nil {
		logg.Fatalw("failed to connect to database", "error", err)
	}
	repo := repositories.NewGormListingRepository(db)

	statusStore, err := status.NewFileStore(cfg.Status.Dir)
	if err != nil {
		logg.Fatalw("failed to set up status store", "error", err)
	}

	if cfg.Scraping.DebugDir != "" {
		if err := os.MkdirAll(cfg.Scraping.DebugDir, 0o755); err != nil {
			logg.Warnw("failed to create debug dir", "dir", cfg.Scraping.DebugDir, "error", err)
		}
	}

	client := &http.Client{Timeout: cfg.Scraping.Timeout()}
	fetcher := scrape.NewFetcher(client, cfg.Scraping.BaseURL, cfg.Scraping.UserAgent, cfg.Scraping.DebugDir, logg)

	worker := workers.NewCategoryWorker(repo, fetcher, statusStore, logg)
	if err := worker.Run(context.Background()); err != nil {
		logg.Errorw("category update failed", "error", err)
		os.Exit(1)
	}
}
