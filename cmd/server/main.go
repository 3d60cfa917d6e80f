package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/boardhive/boardhive/internal/auth"
	"github.com/boardhive/boardhive/internal/bus"
	"github.com/boardhive/boardhive/internal/classify"
	"github.com/boardhive/boardhive/internal/config"
	"github.com/boardhive/boardhive/internal/handler"
	"github.com/boardhive/boardhive/internal/history"
	"github.com/boardhive/boardhive/internal/metrics"
	"github.com/boardhive/boardhive/internal/realtime"
	"github.com/boardhive/boardhive/internal/session"
	"github.com/boardhive/boardhive/internal/store"
	filestore "github.com/boardhive/boardhive/internal/store/file"
	"github.com/boardhive/boardhive/internal/store/memory"
	"github.com/boardhive/boardhive/internal/transport"
	"github.com/boardhive/boardhive/pkg/middleware"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage
	var st store.Store
	switch cfg.Store.Backend {
	case "file":
		st, err = filestore.New(cfg.Store.DataDir)
		if err != nil {
			log.Fatalf("Failed to initialize file store: %v", err)
		}
	default:
		st = memory.New()
	}

	// Initialize collaborators
	collector := metrics.NewPrometheusCollector()
	eventBus := bus.New()
	manager := realtime.NewManager(cfg.Realtime, eventBus, collector)
	coordinator := session.NewCoordinator(cfg.Realtime, cfg.HTTP.BaseURL, st, manager, collector)
	authService := auth.NewService(cfg.Auth, st)
	classifier := classify.NewClassifier()

	// The drawing history replicates remote strokes from the bus
	drawingHistory := history.New()
	unbind := drawingHistory.Bind(manager)
	defer unbind()

	// Initialize HTTP handlers
	wsHandler := handler.NewWebSocketHandler(cfg.WebSocket, eventBus, cfg.HTTP.AllowedOrigins, collector)
	httpHandler := handler.NewHTTPHandler(coordinator, authService, classifier, collector, wsHandler)

	// Set up HTTP server
	httpServer := transport.NewHTTPServer(cfg.HTTP, httpHandler)

	// Apply middleware
	httpServer.Use(middleware.Logging)
	httpServer.Use(middleware.Recovery)
	httpServer.Use(middleware.Metrics)
	httpServer.Use(middleware.CORS(cfg.HTTP.AllowedOrigins))

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	coordinator.LeaveSession()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}
