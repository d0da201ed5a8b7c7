// cmd/api/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tomanasmo/finnmonitor/internal/api/handlers"
	"github.com/tomanasmo/finnmonitor/internal/config"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
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

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logg.Fatalw("invalid timezone", "timezone", cfg.App.Timezone, "error", err)
	}

	db, err := repositories.Open(cfg.Database.DSN())
	if err != nil {
		logg.Fatalw("failed to connect to database", "error", err)
	}
	repo := repositories.NewGormListingRepository(db)

	statusStore, err := status.NewFileStore(cfg.Status.Dir)
	if err != nil {
		logg.Fatalw("failed to set up status store", "error", err)
	}

	h := handlers.New(repo, statusStore, cfg.App.WebRoot, loc, logg)
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logg.Infow("API server starting", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logg.Fatalw("API server failed", "error", err)
	}
}
