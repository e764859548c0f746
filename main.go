package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/gg"

	"inspiria/background"
	"inspiria/prefs"
	"inspiria/source"
)

const defaultConfigPath = "config.json"

func usage() {
	fmt.Fprintf(os.Stderr, `usage: inspiria [-config path] <command> [flags]

commands:
  export      render a picture with text and filters to PNG
  serve       run the HTTP API
  background  write frames of the animated backdrop as PNG files
  prefs       show or change stored preferences
`)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", defaultConfigPath, "path to config.json")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("warning: %v", err)
	}
	if *debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		source.SetDebugLogging(true)
		background.SetDebugLogging(true)
		gg.SetLogger(slog.Default())
		log.Printf("info: debug logging enabled")
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "export":
		err = runExport(ctx, cfg, args[1:])
	case "serve":
		err = runServe(ctx, cfg, args[1:])
	case "background":
		err = runBackground(ctx, cfg, args[1:])
	case "prefs":
		err = runPrefs(ctx, cfg, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

// openPrefs opens the preference store, logging and returning nil when it
// cannot be opened so callers fall back to defaults.
func openPrefs(cfg Config) *prefs.Store {
	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		log.Printf("warning: preferences unavailable: %v", err)
		return nil
	}
	return store
}

// loadPrefs reads the stored flags, falling back to defaults.
func loadPrefs(ctx context.Context, store *prefs.Store) prefs.Snapshot {
	snap := prefs.Snapshot{Theme: prefs.DefaultTheme}
	if store == nil {
		return snap
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		log.Printf("warning: read preferences: %v", err)
		return snap
	}
	return loaded
}
