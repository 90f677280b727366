package main

import (
	"fmt"
	"log"
	"net/http"

	"qrforge/internal/api"
	"qrforge/internal/api/handlers"
	"qrforge/internal/engine/registry"
	"qrforge/internal/pkg/logger"
	"qrforge/internal/platform/config"
	"qrforge/internal/platform/database"
	"qrforge/internal/platform/storage"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

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

	// Registry
	repo := registry.NewRepository(db)
	svc := registry.NewService(repo, files)

	// Handlers
	codeHandler := handlers.NewCodeHandler(svc, files, cfg.QR, cfg.Registry, cfg.Storage.MaxUploadMB)
	healthHandler := handlers.NewHealthHandler(db)

	router := api.NewRouter(&api.Dependencies{
		CodeHandler:   codeHandler,
		HealthHandler: healthHandler,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
