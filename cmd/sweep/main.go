package main

import (
	"flag"
	"log"
	"time"

	"qrforge/internal/engine/registry"
	"qrforge/internal/platform/config"
	"qrforge/internal/platform/database"
	"qrforge/internal/platform/storage"
)

// One-shot reclamation pass. The server sweeps lazily on its read
// path; this tool is the manual knob for operators and cron.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	files, err := storage.New(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("Failed to prepare storage dir: %v", err)
	}

	svc := registry.NewService(registry.NewRepository(db), files)

	n, err := svc.Sweep(time.Now())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	log.Printf("Sweep removed %d expired codes", n)
}
