// Actiond extracts action items from meeting transcripts and assigns them
// to team members.
//
// The daemon serves the HTTP API, publishes completed runs to NATS when
// events are enabled, and optionally watches a directory for transcripts.
// The mcp subcommand serves the same pipeline over MCP stdio instead.
//
// Configuration is loaded from ~/.config/actiond/config.yaml (or -config)
// and ACTIOND_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon
//	actiond
//
//	# Serve MCP on stdio
//	actiond mcp
//
//	# Configure via environment
//	ACTIOND_SERVER_PORT=8088 ACTIOND_EVENTS_ENABLED=true actiond
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/config"
	"github.com/fyrsmithlabs/actiond/internal/http"
	"github.com/fyrsmithlabs/actiond/internal/mcp"
	"github.com/fyrsmithlabs/actiond/internal/roster"
	"github.com/fyrsmithlabs/actiond/internal/watch"
)

const defaultShutdownTimeout = 10 * time.Second

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/actiond/config.yaml)")
	flag.Parse()
	args := flag.Args()

	mode := "serve"
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		case "mcp":
			mode = "mcp"
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  actiond           Start the actiond daemon\n")
			fmt.Fprintf(os.Stderr, "  actiond mcp       Serve MCP on stdio\n")
			fmt.Fprintf(os.Stderr, "  actiond version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if mode == "mcp" {
		err = runMCP(ctx, cfg)
	} else {
		err = run(ctx, cfg)
	}
	if err != nil {
		log.Fatalf("actiond error: %v", err)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("actiond by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled.
//
// Startup order:
//  1. Logger and telemetry
//  2. NATS publisher (if events are enabled)
//  3. Pipeline service
//  4. Transcript watcher (if watch.dir is set)
//  5. HTTP server
func run(ctx context.Context, cfg *config.Config) error {
	deps, err := initDependencies(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer deps.Close()
	logger := deps.logger

	logger.Info("Starting actiond",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("events", deps.natsConn != nil),
		zap.Bool("redaction", cfg.Redaction.Enabled),
		zap.String("watch_dir", cfg.Watch.Dir))

	if cfg.Watch.Dir != "" {
		w, err := startWatcher(ctx, cfg, deps)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	srv, err := http.NewServer(deps.service, logger.Named("http"), &http.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Version:        version,
	}, http.WithTelemetry(deps.telemetry))
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("shutdown_timeout", shutdownTimeout(cfg)))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("Server shutdown complete")
	return nil
}

// runMCP serves the pipeline over MCP stdio until ctx is cancelled.
// stdout carries the protocol, so logs go to stderr.
func runMCP(ctx context.Context, cfg *config.Config) error {
	deps, err := initDependencies(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv, err := mcp.NewServer(deps.service,
		mcp.WithImplementation("actiond", version),
		mcp.WithLogger(deps.logger.Named("mcp")))
	if err != nil {
		return fmt.Errorf("failed to create mcp server: %w", err)
	}
	return srv.Run(ctx)
}

// startWatcher watches cfg.Watch.Dir and logs each result until ctx is done.
func startWatcher(ctx context.Context, cfg *config.Config, deps *dependencies) (*watch.Watcher, error) {
	team, err := roster.Load(cfg.Watch.Roster)
	if err != nil {
		return nil, fmt.Errorf("failed to load watch roster: %w", err)
	}

	w, err := watch.NewWatcher(cfg.Watch.Dir, team, deps.service,
		watch.WithDebounce(cfg.Watch.Debounce.Duration()),
		watch.WithLogger(deps.logger.Named("watch")),
		watch.WithPrometheus(deps.metrics))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}

	// Drain results; the watcher logs each one.
	go func() {
		for range w.Results() {
		}
	}()
	return w, nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	return cfg.Server.ShutdownTimeout.Or(defaultShutdownTimeout)
}
