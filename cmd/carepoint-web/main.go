package main

import (
	"fmt"
	"os"

	"github.com/carepoint-rx/carepoint/internal/config"
	"github.com/carepoint-rx/carepoint/internal/logger"
	"github.com/carepoint-rx/carepoint/internal/web"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := web.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("addr", cfg.Web.Addr).
		Str("api", cfg.API.BaseURL).
		Msg("Starting CarePoint web server...")

	// Blocks until SIGINT/SIGTERM
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
