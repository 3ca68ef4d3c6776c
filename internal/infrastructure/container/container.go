package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ledgersync/internal/application/port"
	"ledgersync/internal/application/service"
	"ledgersync/internal/infrastructure/config"
	"ledgersync/internal/infrastructure/netcheck"
	"ledgersync/internal/infrastructure/remote"
	memorykv "ledgersync/internal/infrastructure/storage/memory"
	rediskv "ledgersync/internal/infrastructure/storage/redis"
	sqlitekv "ledgersync/internal/infrastructure/storage/sqlite"
)

// Container wires configuration into drivers and the sync coordinator.
type Container struct {
	cfg         *config.Config
	kv          port.KV
	monitor     *netcheck.Monitor
	coordinator *service.Coordinator
	closeOnce   sync.Once
	closerChain []func() error
}

// New builds the dependency graph. On partial failure already-opened
// resources are closed before returning.
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	if err := c.initKV(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	modes := service.NewModeController()
	cache := service.NewCache(c.kv, cfg.App.Namespace)
	queue := service.NewMutationQueue(cache)
	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token)

	c.monitor = netcheck.NewMonitor(
		cfg.Remote.HealthWsURL,
		cfg.Remote.BaseURL+"/v1/health",
		time.Duration(cfg.Remote.ProbeIntervalSec)*time.Second,
	)

	c.coordinator = service.NewCoordinator(modes, cache, queue, client, c.monitor)
	return c, nil
}

func (c *Container) initKV() error {
	switch c.cfg.Storage.Driver {
	case "sqlite":
		kv, err := sqlitekv.New(c.cfg.Storage.SQLite.Path)
		if err != nil {
			return err
		}
		c.kv = kv
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Msg("closing sqlite store")
			return kv.Close()
		})
		log.Info().Str("path", c.cfg.Storage.SQLite.Path).Msg("sqlite store initialized")

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.cfg.Storage.Redis.Addr,
			Password: c.cfg.Storage.Redis.Password,
			DB:       c.cfg.Storage.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("redis ping failed: %w", err)
		}
		ttl := time.Duration(c.cfg.Storage.Redis.TTLSeconds) * time.Second
		kv := rediskv.New(rdb, ttl)
		c.kv = kv
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Msg("closing redis connection")
			return kv.Close()
		})
		log.Info().
			Str("addr", c.cfg.Storage.Redis.Addr).
			Int("db", c.cfg.Storage.Redis.DB).
			Msg("redis store initialized")

	case "memory":
		c.kv = memorykv.New()
		log.Info().Msg("in-memory store initialized")

	default:
		return fmt.Errorf("unknown storage driver %q", c.cfg.Storage.Driver)
	}
	return nil
}

// Coordinator returns the wired sync coordinator.
func (c *Container) Coordinator() *service.Coordinator { return c.coordinator }

// Monitor returns the reachability monitor; callers run it themselves.
func (c *Container) Monitor() *netcheck.Monitor { return c.monitor }

// Close releases resources in reverse initialization order.
func (c *Container) Close() error {
	var firstErr error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if err := c.closerChain[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
