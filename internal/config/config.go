// Package config resolves platform configuration from the environment.
//
// All paths on the host derive from a single root directory so that a
// whole installation can be relocated (or pointed at a test fixture) by
// setting HAVEN_ROOT.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// PlaceholderHiddenService is reported for apps whose onion address has
// not been provisioned yet.
const PlaceholderHiddenService = "notyetset.onion"

// Config holds platform configuration.
type Config struct {
	// Root is the platform root directory. Every other path derives from it.
	Root string `envconfig:"ROOT" default:"/home/haven/haven"`

	// Domain is the local domain apps are reachable under. Defaults to
	// "<hostname>.local" when unset.
	Domain string `envconfig:"DOMAIN"`

	// FanOutWorkers bounds the worker pool used when a command targets
	// every installed app.
	FanOutWorkers int `envconfig:"FANOUT_WORKERS" default:"3"`
}

// Load resolves configuration from HAVEN_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("haven", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Domain == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
		cfg.Domain = hostname + ".local"
	}
	return &cfg, nil
}

// Validate checks that the platform root exists.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Root)
	if os.IsNotExist(err) {
		return fmt.Errorf("platform root not found: %s", c.Root)
	}
	if err != nil {
		return fmt.Errorf("access platform root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("platform root is not a directory: %s", c.Root)
	}
	return nil
}

// AppsDir is where app definition directories live.
func (c *Config) AppsDir() string { return filepath.Join(c.Root, "apps") }

// AppDir returns the definition directory for a single app.
func (c *Config) AppDir(app string) string { return filepath.Join(c.AppsDir(), app) }

// AppDataDir is where per-app mutable data lives.
func (c *Config) AppDataDir() string { return filepath.Join(c.Root, "app-data") }

// DataDir returns the mutable data directory for a single app.
func (c *Config) DataDir(app string) string { return filepath.Join(c.AppDataDir(), app) }

// RegistryPath is the SQLite database holding the installed set and the
// operations log.
func (c *Config) RegistryPath() string { return filepath.Join(c.Root, "db", "haven.db") }

// LegacyStatePath is the pre-registry JSON state file. It is imported once
// on first open and then renamed out of the way.
func (c *Config) LegacyStatePath() string { return filepath.Join(c.Root, "db", "user.json") }

// SeedPath is the master seed file.
func (c *Config) SeedPath() string { return filepath.Join(c.Root, "db", "seed") }

// FallbackSeedPath is consulted when SeedPath is absent. In-place upgrades
// from older installations leave the seed at the root.
func (c *Config) FallbackSeedPath() string { return filepath.Join(c.Root, ".seed") }

// TorDataDir holds per-app hidden service directories.
func (c *Config) TorDataDir() string { return filepath.Join(c.Root, "tor", "data") }

// HiddenServiceHostnamePath returns the hostname file for a hidden service
// directory name. The file is optional; callers fall back to
// PlaceholderHiddenService when it is absent.
func (c *Config) HiddenServiceHostnamePath(dir string) string {
	return filepath.Join(c.TorDataDir(), dir, "hostname")
}

// BaseComposePath is the platform-level compose file merged under every
// app's own compose file.
func (c *Config) BaseComposePath() string { return filepath.Join(c.Root, "docker-compose.yml") }
