package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Version   string   `json:"version" mapstructure:"version"`
	SeedsPath string   `json:"seeds_path" mapstructure:"seeds_path"`
	Quiet     bool     `json:"quiet,omitempty" mapstructure:"quiet"`
	Database  Database `json:"database" mapstructure:"database"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

func DefaultConfig() *Config {
	return &Config{
		Version:   "1",
		SeedsPath: "db/seeds",
		Database: Database{
			Provider: "postgresql",
			URLEnv:   "DATABASE_URL",
		},
	}
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.SeedsPath == "" {
		cfg.SeedsPath = "db/seeds"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.SeedsPath == "" {
		return fmt.Errorf("seeds_path cannot be empty")
	}

	return nil
}

// GetSeedFiles returns all .yml/.yaml files in the seeds directory, sorted.
func (c *Config) GetSeedFiles() ([]string, error) {
	entries, err := os.ReadDir(c.SeedsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds directory %s: %w", c.SeedsPath, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml") {
			files = append(files, filepath.Join(c.SeedsPath, name))
		}
	}
	return files, nil
}

func (c *Config) EnsureDirectories() error {
	if c.SeedsPath == "" || c.SeedsPath == "." {
		return nil
	}
	if err := os.MkdirAll(c.SeedsPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.SeedsPath, err)
	}
	return nil
}
