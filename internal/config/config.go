package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration
type Config struct {
	APIURL         string        `yaml:"api_url"`
	DataDir        string        `yaml:"data_dir"`
	LogFile        string        `yaml:"log_file"` // empty means <data_dir>/ems.log
	LogLevel       string        `yaml:"log_level"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ToastTTL       time.Duration `yaml:"toast_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst      int           `yaml:"rate_burst"`
}

// Default returns the built-in configuration rooted at ~/.ems
func Default() Config {
	dir := defaultDataDir()
	return Config{
		APIURL:         "http://localhost:8000",
		DataDir:        dir,
		LogLevel:       "info",
		PollInterval:   30 * time.Second,
		ToastTTL:       5 * time.Second,
		RequestTimeout: 30 * time.Second,
		RateLimit:      0,
		RateBurst:      5,
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".ems"
	}
	return filepath.Join(homeDir, ".ems")
}

// DefaultPath returns the config file location used when none is given
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads path (a missing file is not an error), then applies
// EMS_API_URL, EMS_LOG_LEVEL and EMS_DATA_DIR overrides
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv("EMS_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("EMS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EMS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, cfg.Validate()
}

// Validate rejects values the client cannot run with
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must start with http:// or https://, got %q", c.APIURL)
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.ToastTTL <= 0 {
		return errors.New("toast_ttl must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must not be negative")
	}
	return nil
}

// LogPath resolves the log file location
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "ems.log")
}

// DatabasePath is the local credential database inside DataDir
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "ems.db")
}
