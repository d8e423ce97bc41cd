// Command uninstall removes the persisted excluded-modules configuration.
// Run it when decommissioning the service so no stale exclusion data is
// left behind in the configured store.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/opsdash/forget-me-not/internal/config"
	"github.com/opsdash/forget-me-not/internal/service/exclusions"
	"github.com/opsdash/forget-me-not/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := exclusions.NewService(store)
	if err := svc.Clear(ctx); err != nil {
		log.Fatalf("Failed to delete excluded-modules configuration: %v", err)
	}

	log.Printf("Deleted %q from the %s store", exclusions.ConfigKey, cfg.Storage.Type)
}
