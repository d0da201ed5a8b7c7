// cmd/scraper/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomanasmo/finnmonitor/internal/config"
	"github.com/tomanasmo/finnmonitor/internal/metrics"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
	"github.com/tomanasmo/finnmonitor/internal/scrape"
	"github.com/tomanasmo/finnmonitor/internal/status"
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

	delay := scrape.RandomDelay{
		Min: time.Duration(cfg.Scraping.DelayMinSeconds) * time.Second,
		Max: time.Duration(cfg.Scraping.DelayMaxSeconds) * time.Second,
	}
	paginator := scrape.NewPaginator(fetcher, fetcher, repo, delay, logg)
	orchestrator := scrape.NewOrchestrator(paginator, statusStore, cfg.Scraping, logg)

	metrics.Serve(cfg.Scraping.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg.Infow("scraper starting", "urls_file", cfg.Scraping.URLsFile)
	orchestrator.Run(ctx)
	logg.Info("scraper stopped")
}
