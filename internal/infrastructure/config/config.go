package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	App struct {
		Namespace string `toml:"namespace"`
		LogLevel  string `toml:"log_level"` // trace|debug|info|warn|error
	} `toml:"app"`

	Storage struct {
		Driver string `toml:"driver"` // sqlite | redis | memory

		SQLite struct {
			Path string `toml:"path"`
		} `toml:"sqlite"`

		Redis struct {
			Addr       string `toml:"addr"`
			Password   string `toml:"password"`
			DB         int    `toml:"db"`
			TTLSeconds int    `toml:"ttl_seconds"`
		} `toml:"redis"`
	} `toml:"storage"`

	Remote struct {
		BaseURL          string `toml:"base_url" env:"LEDGERSYNC_REMOTE_URL"`
		Token            string `toml:"token" env:"LEDGERSYNC_REMOTE_TOKEN"`
		HealthWsURL      string `toml:"health_ws_url" env:"LEDGERSYNC_HEALTH_WS_URL"`
		ProbeIntervalSec int    `toml:"probe_interval_sec"`
	} `toml:"remote"`
}

// Load reads the toml file, applies LEDGERSYNC_* environment overrides
// (environment wins, so tokens can stay out of the file), then defaults
// and validation.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg.Remote); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.Namespace) == "" {
		cfg.App.Namespace = "ledgersync"
	}
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Storage.Driver) == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.Storage.SQLite.Path) == "" {
		cfg.Storage.SQLite.Path = "data/ledgersync.db"
	}
	if cfg.Remote.ProbeIntervalSec <= 0 {
		cfg.Remote.ProbeIntervalSec = 30
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite", "memory":
	case "redis":
		if strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr empty but redis driver selected")
		}
	default:
		return errors.New("storage.driver must be one of sqlite, redis, memory")
	}
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return errors.New("remote.base_url is empty")
	}
	return nil
}
