// Paintbrush restyles live web pages with generated CSS themes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paintbrush/browser"
	"paintbrush/config"
	"paintbrush/control"
	"paintbrush/engine"
	"paintbrush/generate"
	"paintbrush/injector"
	"paintbrush/kv"
	"paintbrush/llm"
	"paintbrush/theme"
)

func main() {
	url := ""
	initConfig := false
	headless := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "--init-config":
			initConfig = true
		case "--headless":
			headless = true
		case "-h", "--help":
			printUsage()
			return
		default:
			if url == "" {
				url = arg
			}
		}
	}

	if initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	if err := run(url, headless); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Paintbrush - AI themes for live web pages

Usage: paintbrush [options] [url]

Options:
  --headless        Run the browser without a window
  --init-config     Output default config (redirect to ~/.config/paintbrush/config.toml)
  -h, --help        Show this help

Examples:
  paintbrush https://example.com  Open URL and start the control server
  paintbrush --init-config > ~/.config/paintbrush/config.toml

Configuration:
  Config file: ~/.config/paintbrush/config.toml
  API key:     ANTHROPIC_API_KEY environment variable (or generation.apiKey)`)
}

func run(url string, headless bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(log)

	// Storage and theme store.
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath, err = config.DefaultStoragePath()
		if err != nil {
			return fmt.Errorf("resolving storage path: %w", err)
		}
	}
	store, err := kv.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("opening theme database: %w", err)
	}
	defer store.Close()

	themes := theme.NewStore(store, log)
	if migrated, err := themes.Migrate(); err != nil {
		log.Warn("legacy theme migration failed", "error", err)
	} else if migrated > 0 {
		log.Info("migrated legacy themes", "count", migrated)
	}

	// Generation backends.
	api := llm.NewClaudeAPI(cfg.ResolveAPIKey())
	if cfg.Generation.Model != "" {
		api = api.WithModel(cfg.Generation.Model)
	}
	client := llm.NewClient(api, llm.NewClaudeCode())
	if cfg.Generation.Provider != "" {
		if !client.SetPreferred(cfg.Generation.Provider) {
			return fmt.Errorf("provider %q is not available", cfg.Generation.Provider)
		}
	}
	if client.Provider() == nil {
		return fmt.Errorf("no generation backend available: set ANTHROPIC_API_KEY or install the claude CLI")
	}

	// Browser session.
	opts := browser.DefaultOptions()
	opts.ChromePath = cfg.Browser.ChromePath
	opts.Headless = cfg.Browser.Headless || headless
	if cfg.Browser.UserAgent != "" {
		opts.UserAgent = cfg.Browser.UserAgent
	}
	if cfg.Browser.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(cfg.Browser.TimeoutSeconds) * time.Second
	}
	session, err := browser.NewSession(opts, log)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer session.Close()

	inj := injector.New(session, log)
	defer inj.Close()

	eng := engine.New(engine.Config{
		Page:      session,
		Injector:  inj,
		Themes:    themes,
		Generator: generate.New(client, log),
		Log:       log,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if url != "" {
		if err := session.Navigate(ctx, url); err != nil {
			return fmt.Errorf("opening %s: %w", url, err)
		}
		if err := eng.PageLoaded(ctx); err != nil {
			log.Warn("applying saved theme", "error", err)
		}
	}

	srv := control.NewServer(control.Config{
		Engine:    eng,
		Themes:    themes,
		Navigator: session,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Control.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("control server: %w", err)
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
