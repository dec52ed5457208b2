// Package main provides the player daemon entry point.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/app/audio"
	"github.com/osa030/tagbox/internal/app/box"
	"github.com/osa030/tagbox/internal/infra/config"
	"github.com/osa030/tagbox/internal/infra/hardware"
	"github.com/osa030/tagbox/internal/infra/logger"
	"github.com/osa030/tagbox/internal/infra/store"
)

var (
	app        = kingpin.New("tagbox-player", "tagbox music box player")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main player logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	// Load the association table; a broken table is an empty one
	table, err := store.Load(cfg.Table.Path)
	if err != nil {
		zlog.Warn().Err(err).Msgf("Association table unusable, starting empty: %s", cfg.Table.Path)
	}
	zlog.Info().Msgf("Loaded %d association(s) from %s", table.Len(), cfg.Table.Path)

	// Bring up the hardware; this is the one fatal path
	rig, err := hardware.New(cfg.Hardware)
	if err != nil {
		return fmt.Errorf("failed to initialize hardware: %w", err)
	}
	defer func() {
		if err := rig.Close(); err != nil {
			zlog.Error().Err(err).Msg("Failed to close hardware")
		}
	}()

	// Engine owns the device from here on; the box closes it via the engine
	engine := audio.New(rig.Device, audio.Config{
		InitialVolume: cfg.Audio.InitialVolume,
		CommandBuffer: cfg.Audio.CommandBuffer,
		IdleWake:      cfg.Audio.IdleWake(),
	})

	b := box.New(cfg, table, engine, rig.Reader, rig.Input)
	b.Start()
	defer b.Close()

	// Idle until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zlog.Info().Msg("Received shutdown signal...")
	return nil
}
