package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dori/trailmap/internal/logging"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	DataDir string         `mapstructure:"data_dir"`
	Storage StorageConfig  `mapstructure:"storage"`
	Roles   RolesConfig    `mapstructure:"roles"`
	Log     logging.Config `mapstructure:"log"`
	UI      UIConfig       `mapstructure:"ui"`
}

// StorageConfig selects where roadmaps are persisted
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // json, sqlite
	Path    string `mapstructure:"path"`    // defaults inside DataDir
}

// RolesConfig points at the role membership table used by the CLI
type RolesConfig struct {
	File string `mapstructure:"file"`
}

// UIConfig controls report rendering
type UIConfig struct {
	Theme    string `mapstructure:"theme"`
	BarWidth int    `mapstructure:"bar_width"`
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trailmap"
	}
	return filepath.Join(home, ".local", "share", "trailmap")
}

// Load reads configuration from an optional file and TRAILMAP_* environment
// variables. An explicit configPath must exist; the default locations may not.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("trailmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/trailmap")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TRAILMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	cfg.fill()
	return &cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.UI.BarWidth < 1 {
		return fmt.Errorf("ui.bar_width must be positive, got %d", c.UI.BarWidth)
	}
	return nil
}

// fill derives paths that depend on the data directory
func (c *Config) fill() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Storage.Path == "" {
		name := "data.json"
		if c.Storage.Backend == BackendSQLite {
			name = "trailmap.db"
		}
		c.Storage.Path = filepath.Join(c.DataDir, name)
	}
	if c.Roles.File == "" {
		c.Roles.File = filepath.Join(c.DataDir, "roles.yaml")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("storage.backend", BackendJSON)
	v.SetDefault("storage.path", "")
	v.SetDefault("roles.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ui.theme", "blurple")
	v.SetDefault("ui.bar_width", 15)
}
