package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameShelf/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Server host")
	games := flag.String("games", cfg.Storage.GamesDir, "Games root directory")
	defaults := flag.String("defaults", cfg.Storage.DefaultsDir, "Default set directory")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	level := flag.String("log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	surface := flag.Bool("surface-errors", cfg.Logging.Surface, "Show error logs in the modal queue")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Storage.GamesDir = *games
	cfg.Storage.DefaultsDir = *defaults
	cfg.Logging.Development = *dev
	cfg.Logging.Level = *level
	cfg.Logging.Surface = *surface
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Logging.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		stop()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
