package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all kernel configuration.
type Config struct {
	Kernel  KernelConfig
	Bus     BusConfig
	Store   StoreConfig
	Logging LogConfig
}

// KernelConfig holds manifest discovery paths.
type KernelConfig struct {
	BuiltinPath string   `envconfig:"SNAPPER_BUILTIN_PATH" default:"./snapps"`
	ExtraDirs   []string `envconfig:"SNAPPER_EXTRA_DIRS"`
	Watch       bool     `envconfig:"SNAPPER_WATCH" default:"false"`
}

// BusConfig holds Message Bus defaults.
type BusConfig struct {
	RequestTimeout time.Duration `envconfig:"SNAPPER_RPC_TIMEOUT" default:"5s"`
}

// StoreConfig holds State Store defaults.
type StoreConfig struct {
	StateBase     string        `envconfig:"SNAPPER_STATE_BASE"`
	SweepInterval time.Duration `envconfig:"SNAPPER_SWEEP_INTERVAL" default:"0"`
	Passphrase    string        `envconfig:"SNAPPER_STATE_PASSPHRASE"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string `envconfig:"SNAPPER_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"SNAPPER_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.StateBase == "" {
		cfg.Store.StateBase = defaultStateBase()
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns
// Default() if loading fails.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads configuration from a TOML file, falling back to
// envconfig defaults for any field the file omits.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Kernel: KernelConfig{
			BuiltinPath: "./snapps",
		},
		Bus: BusConfig{
			RequestTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			StateBase: defaultStateBase(),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

func defaultStateBase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".openclaw", "snapper-state")
}
