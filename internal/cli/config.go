package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/guildtracker/internal/model"
)

// Environment variables read by the CLI
const (
	EnvUsername    = "SF_USERNAME"
	EnvPassword    = "SF_PASSWORD"
	EnvServer      = "SF_SERVER"
	EnvEnvFile     = "GUILDTRACKER_ENV_FILE"
	EnvStorage     = "GUILDTRACKER_STORAGE"
	EnvData        = "GUILDTRACKER_DATA"
	EnvRedisURL    = "GUILDTRACKER_REDIS_URL"
	EnvPostgresDSN = "GUILDTRACKER_POSTGRES_DSN"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string `yaml:"server"`
	StorageType string `yaml:"storage"`
	DataPath    string `yaml:"data"`
	RedisURL    string `yaml:"redis_url"`
	PostgresDSN string `yaml:"postgres_dsn"`

	// Report defaults
	ShortWindow int `yaml:"short_window"`
	LongWindow  int `yaml:"long_window"`
	Top         int `yaml:"top"`

	ConfigFile string `yaml:"-"`
	EnvFile    string `yaml:"-"`
	Output     string `yaml:"-"`
	Verbose    bool   `yaml:"-"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   "http://localhost:8080",
		StorageType: "csv",
		DataPath:    "data/guild_levels.csv",
		RedisURL:    "redis://localhost:6379",
		ShortWindow: 3,
		LongWindow:  7,
		Top:         10,
		EnvFile:     ".env",
		Output:      "text",
	}
}

// applyEnv overrides defaults with any environment variables that are set
func (c *Config) applyEnv() {
	c.ServerURL = getEnvOrDefault(EnvServer, c.ServerURL)
	c.StorageType = getEnvOrDefault(EnvStorage, c.StorageType)
	c.DataPath = getEnvOrDefault(EnvData, c.DataPath)
	c.RedisURL = getEnvOrDefault(EnvRedisURL, c.RedisURL)
	c.PostgresDSN = getEnvOrDefault(EnvPostgresDSN, c.PostgresDSN)
}

// loadFile overrides fields with those present in a YAML config file
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// validate checks values a config file or flag may have set badly
func (c *Config) validate() error {
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("invalid output format %q: must be text or json", c.Output)
	}
	if c.ShortWindow < 2 || c.LongWindow < 2 {
		return fmt.Errorf("report windows must cover at least 2 days")
	}
	if c.Top < 0 {
		return fmt.Errorf("top must not be negative")
	}
	return nil
}

// loadEnvFile loads variables from a dotenv file without overriding the
// environment. A missing file is only an error when it was asked for.
func loadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!required && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// Credentials reads the game account login from the environment
func Credentials() (model.Credentials, error) {
	username := os.Getenv(EnvUsername)
	if username == "" {
		return model.Credentials{}, fmt.Errorf("%w: %s is not set", model.ErrMissingCredentials, EnvUsername)
	}
	password := os.Getenv(EnvPassword)
	if password == "" {
		return model.Credentials{}, fmt.Errorf("%w: %s is not set", model.ErrMissingCredentials, EnvPassword)
	}
	return model.Credentials{Username: username, Password: password}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
