package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgersync/internal/infrastructure/config"
	"ledgersync/internal/infrastructure/container"
	"ledgersync/internal/infrastructure/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	userID := flag.String("user", "", "authenticated user id; enables cloud mode and runs one sync")
	export := flag.Bool("export", false, "print cached data as a transportable export and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.SetLevel(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Close()

	go c.Monitor().Run(ctx)

	coord := c.Coordinator()

	if *export {
		out, err := coord.ExportData()
		if err != nil {
			log.Fatal().Err(err).Msg("export failed")
		}
		fmt.Println(out)
		return
	}

	if *userID == "" {
		coord.EnableOfflineMode()
		status := coord.Status()
		log.Info().
			Str("primary", string(status.Mode.Primary)).
			Bool("online", status.Online).
			Bool("authenticated", status.Authenticated).
			Msg("ledgersync status (offline session)")
		return
	}

	coord.EnableCloudMode(*userID)

	// give the monitor a moment to establish reachability
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	summary, err := coord.Sync(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sync failed")
		return
	}
	log.Info().
		Interface("uploaded", summary.Uploaded).
		Interface("downloaded", summary.Downloaded).
		Strs("errors", summary.Errors).
		Msg("sync complete")
}
