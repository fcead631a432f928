package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the status API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the status API and ICS feed.
	Listen string `yaml:"listen" json:"listen"`

	// DatabaseURL is the PostgreSQL DSN. The DATABASE_URL environment
	// variable (loaded via .env) takes precedence when set.
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// SweepCron is a cron-style schedule string for the lifecycle sweep
	// (e.g. "0 * * * *" for hourly).
	SweepCron string `yaml:"sweep" json:"sweep"`

	// AutoCloseDefaultHours is the default grace period, in hours, after
	// which a due one-off event is auto-completed when the creator did
	// not choose one explicitly.
	AutoCloseDefaultHours float64 `yaml:"auto_close_default_hours" json:"auto_close_default_hours"`

	// ExportHorizonDays bounds the ICS feed to events this many days out.
	ExportHorizonDays int `yaml:"export_horizon_days" json:"export_horizon_days"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                "127.0.0.1:8080",
		DatabaseURL:           "",
		SweepCron:             "0 * * * *",
		AutoCloseDefaultHours: 1,
		ExportHorizonDays:     90,
		BasicAuth:             nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs from older versions still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.SweepCron == "" {
		c.SweepCron = "0 * * * *"
	}
	if c.AutoCloseDefaultHours <= 0 {
		c.AutoCloseDefaultHours = 1
	}
	if c.ExportHorizonDays <= 0 {
		c.ExportHorizonDays = 90
	}
	// DATABASE_URL from the environment wins over the file value.
	if env := os.Getenv("DATABASE_URL"); env != "" {
		c.DatabaseURL = env
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write
//     a default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.Normalize()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so the caller
				// can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path, atomically
// (temp file + rename) with 0600 permissions. The DSN may carry
// credentials, hence the tight mode.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".stembot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
