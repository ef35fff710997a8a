// Package config loads the run configuration consumed by the ingestion
// coordinator and the reporting commands.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the configuration surface of a run: where the store and the
// catalog live, how often to commit and to report.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `toml:"db_path"`
	// CatalogPath is the WLASL-style catalog JSON document.
	CatalogPath string `toml:"catalog_path"`
	// BatchSize is the number of words committed per transaction.
	BatchSize int `toml:"batch_size"`
	// ProgressEvery is the progress report cadence, in words.
	ProgressEvery int `toml:"progress_every"`
	// PendingLimit bounds the pending-downloads listing.
	PendingLimit int `toml:"pending_limit"`
}

// Default returns the configuration used when no file is given. The batch
// and progress cadence match the original pipeline's commit-every-100-words
// behavior.
func Default() Config {
	return Config{
		DBPath:        "signdb.db",
		BatchSize:     100,
		ProgressEvery: 100,
		PendingLimit:  20,
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the coordinator cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must not be negative, got %d", c.ProgressEvery)
	}
	return nil
}

// Sample returns the annotated sample configuration file.
func Sample() string { return sampleConfig }
