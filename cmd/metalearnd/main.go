// Metalearnd is the meta-learning adaptation daemon.
//
// This binary starts the metalearn HTTP server: per-user pattern
// memories, adaptation strategy selection, and the zero-shot capability
// handlers, exposed over a REST API with Prometheus metrics.
//
// Configuration is loaded from a YAML file and environment variables.
// See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	metalearnd
//
//	# Configure via file and environment
//	metalearnd -config /etc/metalearn/config.yaml
//	SERVER_PORT=9000 LEARNING_MAX_USERS=500 metalearnd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metalearn/internal/config"
	"github.com/fyrsmithlabs/metalearn/internal/httpapi"
	"github.com/fyrsmithlabs/metalearn/internal/learning"
	"github.com/fyrsmithlabs/metalearn/internal/logging"
	"github.com/fyrsmithlabs/metalearn/internal/semindex"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  metalearnd           Start the metalearn daemon\n")
			fmt.Fprintf(os.Stderr, "  metalearnd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("metalearnd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the metalearn server and blocks until the context is
// cancelled. Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting metalearnd",
		zap.String("version", version),
		zap.String("commit", gitCommit))

	var index *semindex.Index
	if !cfg.Learning.DisableSemanticIndex {
		index = semindex.New(logger.Named("semindex"))
	}

	service, err := learning.NewService(learning.Config{
		ConfidenceThreshold: cfg.Learning.ConfidenceThreshold,
		MaxUsers:            cfg.Learning.MaxUsers,
	}, index, logger.Named("learning"))
	if err != nil {
		return fmt.Errorf("creating learning service: %w", err)
	}

	server, err := httpapi.NewServer(service, logger.Named("http"), &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}
