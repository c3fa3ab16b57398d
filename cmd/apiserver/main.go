// Package main starts the companion's local REST and WebSocket API for the
// front-end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramonehamilton/PTCG-Companion/internal/api"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/config"
	"github.com/ramonehamilton/PTCG-Companion/internal/version"
)

var (
	port       = flag.Int("port", 0, "API server port (default: from config, 8080)")
	dbPath     = flag.String("db-path", "", "Database path (default: ~/.ptcg-companion/data.db)")
	configPath = flag.String("config", "", "Config file (default: ~/.ptcg-companion/config.toml)")
)

func main() {
	flag.Parse()

	fmt.Printf("PTCG Companion %s - REST API Server\n", version.GetVersion())
	fmt.Println("=====================================")
	fmt.Println()

	path := *configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			log.Fatalf("Failed to locate config: %v", err)
		}
		path = p
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := companion.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	server, err := api.NewServer(&api.Config{
		Port:        cfg.Server.Port,
		OpenBrowser: cfg.Server.OpenBrowser,
		FrontendURL: cfg.Server.FrontendURL,
		Upstream:    app.UpstreamMetrics(),
	}, &api.Facades{
		Session:    app.Session,
		Catalog:    app.CatalogUI,
		Collection: app.Collection,
	})
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}
	wsObserver := server.NewWebSocketObserver()
	app.Dispatcher.Register(wsObserver)

	go func() {
		err := config.Watch(ctx, path, func(updated *config.Config) {
			if err := app.ApplyConfig(ctx, updated); err != nil {
				log.Printf("[Config] Ignoring reload: %v", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[Config] Watcher stopped: %v", err)
		}
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Printf("Config: %s\n", path)
	fmt.Printf("API server running at http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	fmt.Println("Shutting down...")
	cancel()
	app.Dispatcher.Unregister(wsObserver)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	fmt.Println("API server stopped.")
}
