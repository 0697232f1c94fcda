package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/driftnote/pkg/sync"
)

// Config is the on-disk configuration for a driftnote node.
type Config struct {
	SnapshotDepth int       `yaml:"snapshot_depth"`
	SyncMode      sync.Mode `yaml:"sync_mode"`
	LedgerDir     string    `yaml:"ledger_dir"`
}

// Default returns the configuration a fresh node boots with absent a config
// file.
func Default() Config {
	return Config{
		SnapshotDepth: 32,
		SyncMode:      sync.Automatic,
		LedgerDir:     "/var/lib/driftnote",
	}
}

// Load reads and validates a YAML config file at path, filling in defaults
// for any field the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields Load cannot fill in a sane default for.
func (c Config) Validate() error {
	if c.SnapshotDepth <= 0 {
		return fmt.Errorf("config: snapshot_depth must be positive, got %d", c.SnapshotDepth)
	}
	if c.SyncMode != sync.Automatic && c.SyncMode != sync.Manual {
		return fmt.Errorf("config: sync_mode must be %q or %q, got %q", sync.Automatic, sync.Manual, c.SyncMode)
	}
	if c.LedgerDir == "" {
		return fmt.Errorf("config: ledger_dir must not be empty")
	}
	return nil
}
