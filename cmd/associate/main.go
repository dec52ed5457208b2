// Package main provides the association utility entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/app/associate"
	"github.com/osa030/tagbox/internal/infra/config"
	"github.com/osa030/tagbox/internal/infra/hardware"
	"github.com/osa030/tagbox/internal/infra/logger"
	"github.com/osa030/tagbox/internal/infra/store"
)

var (
	app        = kingpin.New("tagbox-associate", "tagbox tag-to-file association utility")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stderr", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Association error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	table, err := store.Load(cfg.Table.Path)
	if err != nil {
		zlog.Warn().Err(err).Msgf("Association table unusable, starting empty: %s", cfg.Table.Path)
	}

	reader, err := hardware.NewReader(cfg.Hardware.Reader)
	if err != nil {
		return fmt.Errorf("failed to initialize tag reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			zlog.Error().Err(err).Msg("Failed to close reader")
		}
	}()

	// Ctrl+C cancels the walk; progress made so far is saved on the way out
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := associate.New(reader, table, associate.Config{
		LibraryDir:  cfg.Library.Dir,
		TablePath:   cfg.Table.Path,
		ReadTimeout: cfg.Tags.ReadTimeout(),
	}, os.Stdout)

	return a.Run(ctx)
}
