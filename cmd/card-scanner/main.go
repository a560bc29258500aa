package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/card-scanner/internal/config"
	"github.com/ironsheep/card-scanner/internal/httpapi"
	"github.com/ironsheep/card-scanner/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("card-scanner %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage(os.Stdout)
			return
		case "serve", "mcp", "identify":
			cmd, args = args[0], args[1:]
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
			usage(os.Stderr)
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries MCP traffic and identify output.
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Debug("card-scanner starting", "version", Version, "built", BuildTime, "commit", GitCommit, "command", cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, args, cfg, logger)
	stop()
	if err != nil {
		logger.Error("card-scanner failed", "command", cmd, "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg *config.Config, logger *slog.Logger) error {
	if cmd == "identify" && len(args) != 1 {
		return errors.New("usage: card-scanner identify <image>")
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown error", "err", err)
		}
	}()

	switch cmd {
	case "identify":
		return identify(ctx, a, args[0], os.Stdout)

	case "mcp":
		if cfg.WatchTemplates {
			a.watchTemplates(ctx, logger)
		}
		return serveMCP(ctx, server.New(a.identifier, Version, logger))

	default:
		if cfg.WatchTemplates {
			a.watchTemplates(ctx, logger)
		}
		api := httpapi.New(httpapi.Options{
			Identifier:     a.identifier,
			History:        a.scanLister(),
			OCR:            a.ocrInfo,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger,
		})
		return api.ListenAndServe(ctx, cfg.ListenAddr)
	}
}

// serveMCP runs the stdio server until stdin closes or ctx is cancelled.
func serveMCP(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func identify(ctx context.Context, a *app, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := a.identifier.IdentifyCard(ctx, data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "card-scanner - trading card identification service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: card-scanner [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve              Run the HTTP API (default)")
	fmt.Fprintln(w, "  mcp                Run the MCP server over stdin/stdout")
	fmt.Fprintln(w, "  identify <image>   Identify one card and print the result as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v      Print version information")
	fmt.Fprintln(w, "  --help, -h         Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  CARDSCAN_CONFIG=path.yaml      Optional YAML configuration file")
	fmt.Fprintln(w, "  CARDSCAN_TEMPLATE_DIR=dir      Set icon templates (default ./set_icons)")
	fmt.Fprintln(w, "  CARDSCAN_LISTEN_ADDR=:5000     HTTP listen address")
	fmt.Fprintln(w, "  CARDSCAN_LOG_LEVEL=debug       Log level (debug, info, warn, error)")
	fmt.Fprintln(w, "  CARDSCAN_WATCH_TEMPLATES=true  Reload templates when the directory changes")
	fmt.Fprintln(w, "  EBAY_APP_ID=...                Enable marketplace search")
	fmt.Fprintln(w, "  REDIS_URL=redis://...          Cache marketplace listings")
	fmt.Fprintln(w, "  DB_DSN=postgres://...          Record scan history")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A .env file in the working directory is loaded when present.")
}
