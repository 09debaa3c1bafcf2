package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir       string `envconfig:"DATA_DIR" default:"Dados"`
	CatalogFile   string `envconfig:"CATALOG_FILE"`
	BusinessSheet string `envconfig:"BUSINESS_SHEET"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	DefaultScenario string `envconfig:"DEFAULT_SCENARIO" default:"mai2024"`
	MapTiles        string `envconfig:"MAP_TILES" default:"CartoDB positron"`

	// API rate limiting; RateLimitRPS of 0 disables it.
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"40"`

	// Kafka snapshot publishing configuration.
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	SnapshotTopic   string        `envconfig:"SNAPSHOT_TOPIC"`
	SnapshotTimeout time.Duration `envconfig:"SNAPSHOT_TIMEOUT" default:"2s"`
	SnapshotEnabled bool          `ignored:"true"`

	Catalog Catalog `ignored:"true"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// The layer catalog is the built-in one unless CATALOG_FILE names a YAML file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.SnapshotEnabled = cfg.SnapshotTopic != ""
	if v := os.Getenv("SNAPSHOT_ENABLED"); v != "" {
		cfg.SnapshotEnabled = v == "true"
	}

	cfg.Catalog = DefaultCatalog()
	if cfg.CatalogFile != "" {
		c, err := LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("CATALOG_FILE: %w", err)
		}
		cfg.Catalog = c
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("DATA_DIR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.RateLimitRPS < 0 {
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_BURST must be at least 1")
	}
	if c.SnapshotTimeout <= 0 {
		return errors.New("SNAPSHOT_TIMEOUT must be positive")
	}
	if c.SnapshotEnabled && c.SnapshotTopic == "" {
		return errors.New("SNAPSHOT_ENABLED is true but SNAPSHOT_TOPIC is not set")
	}
	if c.SnapshotEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when snapshots are enabled")
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if c.DefaultScenario != ScenarioNone {
		if _, ok := c.Catalog.Scenario(c.DefaultScenario); !ok {
			return fmt.Errorf("DEFAULT_SCENARIO %q is not in the catalog", c.DefaultScenario)
		}
	}
	return nil
}
