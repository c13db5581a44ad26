package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wheelhouse/internal/config"
	"wheelhouse/internal/events"
	"wheelhouse/internal/registry"
	"wheelhouse/internal/server"
	"wheelhouse/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Wheelhouse server",
	Long:  `Start the package registry server`,
	Run:   runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applyLogLevel(cfg.Log.Level)

	log.Info().Msg("Starting Wheelhouse server...")
	log.Info().Int("port", cfg.Server.Port).Msg("Registry server")
	log.Info().Str("data_dir", cfg.Server.DataDir).Msg("Data directory")

	// Snapshot store and catalog. A corrupted snapshot is fatal: serving
	// from a partial catalog would silently drop releases.
	snapshots, err := registry.NewSnapshotStore(cfg.Server.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot store")
	}
	catalog, err := registry.NewRegistry(snapshots)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load registry snapshot")
	}

	blobs, err := storage.NewFilesystemStorage(cfg.Server.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob storage")
	}

	// Initialize event bus
	eventBus := events.NewInMemoryEventBus(100)
	if err := eventBus.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start event bus")
	}
	if err := eventBus.Subscribe(events.NewAuditHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe audit handler")
	}

	pipeline := registry.NewPipeline(catalog, blobs, eventBus)

	ctx, cancel := context.WithCancel(context.Background())

	// Watch the config file so log level changes apply without a restart.
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().
			Str("file", e.Name).
			Str("op", e.Op.String()).
			Msg("Configuration file changed, reloading...")

		newCfg, err := config.Load()
		if err != nil {
			log.Error().Err(err).Msg("Failed to reload configuration")
			return
		}
		applyLogLevel(newCfg.Log.Level)
	})

	srv := server.New(cfg, catalog, pipeline, blobs)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Registry server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down...")
	cancel()

	if err := eventBus.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop event bus")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Server stopped gracefully")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Force shutdown after timeout")
	}
}

func applyLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
