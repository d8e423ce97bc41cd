package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdash/forget-me-not/internal/api"
	"github.com/opsdash/forget-me-not/internal/auth"
	"github.com/opsdash/forget-me-not/internal/config"
	"github.com/opsdash/forget-me-not/internal/modules"
	"github.com/opsdash/forget-me-not/internal/service/exclusions"
	"github.com/opsdash/forget-me-not/internal/storage"
	"github.com/opsdash/forget-me-not/internal/updatecheck"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	// Initialize the excluded-modules store
	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Excluded-modules store ready (backend: %s)", cfg.Storage.Type)

	svc := exclusions.NewService(store)
	registry := modules.NewRegistry(cfg.Modules.ManifestPath)

	provider := updatecheck.NewFeedProvider(cfg.UpdateCheck, registry)
	checker := updatecheck.NewChecker(provider, svc)
	if cfg.UpdateCheck.FeedURL != "" {
		log.Printf("Update-check feed configured: %s", cfg.UpdateCheck.FeedURL)
	} else {
		log.Println("Update-check feed not configured (update report will error until set)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize authentication manager if enabled
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}

		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions(ctx)
		log.Printf("Google OAuth enabled for domain: %s (callback: %s/auth/callback)", cfg.Auth.AllowedDomain, baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	handlers := api.NewHandlers(svc, registry, checker)
	server := api.NewServer(cfg.Server, handlers, authManager)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s:%d", host, port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("Server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
