// Command ptcg-companion manages a Pokémon TCG collection from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/config"
	"github.com/ramonehamilton/PTCG-Companion/internal/version"
)

var (
	configPath = flag.String("config", "", "Config file (default: ~/.ptcg-companion/config.toml)")
	dbPath     = flag.String("db-path", "", "Database path (default: ~/.ptcg-companion/data.db)")
	debugMode  = flag.Bool("debug-mode", false, "Enable verbose debug logging")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "PTCG Companion %s\n\n", version.GetVersion())
	fmt.Fprintf(out, "Usage: ptcg-companion [flags] <command> [args]\n\nCommands:\n")
	for _, c := range commandList {
		fmt.Fprintf(out, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.App.DebugMode {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := companion.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = run(ctx, app, flag.Args(), os.Stdin, os.Stdout)
	if cerr := app.Close(); cerr != nil {
		log.Printf("Error closing database: %v", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if *debugMode {
		cfg.App.DebugMode = true
	}
	return cfg, nil
}
