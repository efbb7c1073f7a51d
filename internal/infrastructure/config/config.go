package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Trace    TraceConfig    `mapstructure:"trace"`
}

// DatabaseConfig holds local store configuration.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
	LogSQL bool   `mapstructure:"log_sql"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Retain int    `mapstructure:"retain"`
}

// RemoteConfig holds the learning platform API settings.
type RemoteConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Revision string        `mapstructure:"revision"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds the gating intervals and push-sync rate budget.
type SyncConfig struct {
	EntityInterval time.Duration `mapstructure:"entity_interval"`
	CycleInterval  time.Duration `mapstructure:"cycle_interval"`
	PushBatchSize  int           `mapstructure:"push_batch_size"`
	PushBatchDelay time.Duration `mapstructure:"push_batch_delay"`
}

// TraceConfig controls span export for sync operations.
type TraceConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Output      string  `mapstructure:"output"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.path", defaultDatabasePath())
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.log_sql", false)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.retain", 500)

	viper.SetDefault("remote.base_url", "https://api.wanikani.com/v2")
	viper.SetDefault("remote.revision", "20170710")
	viper.SetDefault("remote.timeout", 30*time.Second)

	viper.SetDefault("sync.entity_interval", 10*time.Minute)
	viper.SetDefault("sync.cycle_interval", 60*time.Minute)
	viper.SetDefault("sync.push_batch_size", 45)
	viper.SetDefault("sync.push_batch_delay", 60*time.Second)

	viper.SetDefault("trace.enabled", false)
	viper.SetDefault("trace.output", "stderr")
	viper.SetDefault("trace.sample_ratio", 1.0)
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "kanaplay.db"
	}
	return filepath.Join(dir, "kanaplay", "kanaplay.db")
}

// DatabaseDriver returns the normalised database/sql driver name.
func (c *Config) DatabaseDriver() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// DatabaseURL returns the DSN for the configured driver.
func (c *Config) DatabaseURL() (string, error) {
	driver, err := c.DatabaseDriver()
	if err != nil {
		return "", err
	}
	if url := strings.TrimSpace(c.Database.URL); url != "" {
		return url, nil
	}
	switch driver {
	case "sqlite3":
		path := strings.TrimSpace(c.Database.Path)
		if path == "" {
			return "", fmt.Errorf("database.path is required for sqlite3")
		}
		return fmt.Sprintf("file:%s?_fk=1&_busy_timeout=5000", path), nil
	default:
		return "", fmt.Errorf("database.url is required for %s", driver)
	}
}
