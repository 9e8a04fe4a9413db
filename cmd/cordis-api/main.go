package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cordis-pipeline/internal/api"
	"cordis-pipeline/internal/api/handler"
	"cordis-pipeline/internal/config"
	"cordis-pipeline/internal/pipeline"
	"cordis-pipeline/internal/store"
	"cordis-pipeline/pkg/router"
	"cordis-pipeline/pkg/utils"
)

// @title CORDIS Reporting API
// @version 1.0
// @description Filters EU research-grant participation sheets and serves project aggregates, summaries and exports.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// Init DB
	if err := store.InitDB(cfg.DBPath); err != nil {
		log.Fatalf("❌ Failed to open database %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	output := utils.NewOutputManager(cfg.OutputDir)
	if err := output.EnsureOutputDirExists(); err != nil {
		log.Fatalf("❌ Failed to create output directory: %v", err)
	}

	loader, err := pipeline.NewLoader(cfg.CacheSize)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	h := &handler.Handler{
		Datasets:    cfg.Datasets,
		Loader:      loader,
		Output:      output,
		TopN:        cfg.TopN,
		LoadTimeout: cfg.LoadTimeout,
	}

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r, h)

	for _, name := range cfg.DatasetNames() {
		log.Printf("📚 Dataset %s -> %s", name, cfg.Datasets[name])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	if err := r.Start(ctx, cfg.Addr); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
