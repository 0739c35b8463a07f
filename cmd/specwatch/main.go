package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/config"
	"github.com/aleister1102/specwatch/internal/datastore"
	"github.com/aleister1102/specwatch/internal/fetcher"
	"github.com/aleister1102/specwatch/internal/logger"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/aleister1102/specwatch/internal/monitor"
	"github.com/aleister1102/specwatch/internal/notifier"
	"github.com/aleister1102/specwatch/internal/urlhandler"
	"github.com/rs/zerolog"
)

func main() {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load global config using path '%s': %v", flags.GlobalConfigFile, err)
	}

	// CLI flag takes precedence over the config file.
	if flags.Mode != "" {
		gCfg.Mode = flags.Mode
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}
	zLogger.Info().Str("mode", gCfg.Mode).Msg("specwatch starting")

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	db, err := datastore.NewDB(gCfg.StorageConfig.SQLiteDBPath, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Str("path", gCfg.StorageConfig.SQLiteDBPath).Msg("Failed to open database")
	}
	defer db.Close()

	targetStore := datastore.NewTargetStore(db, zLogger)
	var archiver *datastore.SnapshotArchiver
	if gCfg.StorageConfig.ArchivePrunedSnapshots {
		archiver = datastore.NewSnapshotArchiver(gCfg.StorageConfig.ArchiveBasePath, zLogger)
	}
	snapshotStore := datastore.NewSnapshotStore(db, archiver, zLogger)
	changelogStore := datastore.NewChangelogStore(db, zLogger)

	specFetcher, err := fetcher.NewSpecFetcher(&gCfg.FetcherConfig, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize fetcher")
	}

	var changeNotifier notifier.Notifier = notifier.NewNopNotifier()
	if gCfg.NotificationConfig.Enabled {
		webhookNotifier, err := notifier.NewWebhookNotifier(&gCfg.NotificationConfig, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to initialize webhook notifier")
		}
		changeNotifier = webhookNotifier
	}

	service := monitor.NewMonitoringService(
		&gCfg.MonitorConfig,
		&gCfg.StorageConfig,
		targetStore,
		snapshotStore,
		changelogStore,
		specFetcher,
		changeNotifier,
		zLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registerSeedTargets(ctx, gCfg, flags, service, targetStore, zLogger)

	schedulerInstance := monitor.NewScheduler(&gCfg.MonitorConfig, zLogger, service)

	if gCfg.Mode == "once" {
		if err := schedulerInstance.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				zLogger.Info().Msg("Single cycle interrupted")
				return
			}
			zLogger.Fatal().Err(err).Msg("Single cycle failed")
		}
		zLogger.Info().Msg("Single cycle completed, exiting")
		return
	}

	if !gCfg.MonitorConfig.Enabled {
		zLogger.Warn().Msg("Monitoring is disabled in the configuration, nothing to do in automated mode")
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := schedulerInstance.Start(); err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	sig := <-sigChan
	zLogger.Info().Str("signal", sig.String()).Msg("Received interrupt signal, initiating graceful shutdown...")
	cancel()
	schedulerInstance.Stop()
	zLogger.Info().Msg("specwatch stopped")
}

// registerSeedTargets registers the URLs from the seed file and the config,
// skipping URLs that already have a target. A seed that fails to register is
// logged and skipped; the rest of the seeds still load.
func registerSeedTargets(
	ctx context.Context,
	gCfg *config.GlobalConfig,
	flags AppFlags,
	service *monitor.MonitoringService,
	targetStore *datastore.TargetStore,
	zLogger zerolog.Logger,
) {
	var seedURLs []string
	if flags.SeedTargetsFile != "" {
		urlsFromFile, err := urlhandler.ReadURLsFromFile(flags.SeedTargetsFile, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Str("file", flags.SeedTargetsFile).Msg("Failed to load seed targets file")
		}
		seedURLs = append(seedURLs, urlsFromFile...)
	}
	seedURLs = append(seedURLs, gCfg.MonitorConfig.SeedTargets...)

	if len(seedURLs) == 0 {
		return
	}

	registered := 0
	for _, seedURL := range seedURLs {
		exists, err := targetStore.ExistsByURL(seedURL)
		if err != nil {
			zLogger.Error().Err(err).Str("url", seedURL).Msg("Failed to check existing target for seed URL")
			continue
		}
		if exists {
			zLogger.Debug().Str("url", seedURL).Msg("Seed URL already registered, skipping")
			continue
		}

		target, err := service.RegisterTarget(ctx, monitor.RegisterTargetInput{
			URL:       seedURL,
			Frequency: models.CheckFrequency(gCfg.MonitorConfig.DefaultFrequency),
		})
		if err != nil {
			var invalidSpec *common.InvalidSpecError
			if errors.As(err, &invalidSpec) {
				zLogger.Warn().Err(err).Str("url", seedURL).Msg("Seed URL does not serve a usable specification, skipping")
			} else {
				zLogger.Error().Err(err).Str("url", seedURL).Msg("Failed to register seed target")
			}
			continue
		}
		registered++
		zLogger.Info().Str("url", seedURL).Str("target_id", target.ID).Msg("Seed target registered")
	}

	zLogger.Info().Int("seeds", len(seedURLs)).Int("registered", registered).Msg("Seed registration finished")
}
