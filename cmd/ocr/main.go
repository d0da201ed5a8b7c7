// cmd/ocr/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/tomanasmo/finnmonitor/internal/config"
	"github.com/tomanasmo/finnmonitor/internal/ocrengine"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
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

	imageDir := cfg.OCR.ImageDir
	if imageDir == "" {
		imageDir = cfg.Scraping.DebugDir
	}

	engine := ocrengine.NewTesseract(cfg.OCR.Language)
	worker := workers.NewOCRWorker(repo, engine, statusStore, imageDir, cfg.OCR.Keyword, logg)
	if err := worker.Run(context.Background()); err != nil {
		logg.Errorw("OCR batch failed", "error", err)
		os.Exit(1)
	}
}
