package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".ctisync"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file format.
//
// Example:
//
//	feed_url: https://isc.sans.edu/api/intelfeed?json
//	store_url: https://opencti.example.com
//	store_token: 00000000-0000-0000-0000-000000000000
//	score: 60
//	label_color: "#ffa500"
//	pacing_ms: 500
//	artifact: dshield_export.json
type File struct {
	FeedURL    string `yaml:"feed_url"`
	StoreURL   string `yaml:"store_url"`
	StoreToken string `yaml:"store_token"`
	Score      *int   `yaml:"score"`
	LabelColor string `yaml:"label_color"`
	PacingMS   *int   `yaml:"pacing_ms"`
	Artifact   string `yaml:"artifact"`
}

// LoadConfigFile loads connector settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers decide
// whether that matters based on whether the path was explicitly requested.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .ctisync in the current directory
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply merges file settings into the config. File values only fill fields
// the file actually sets; CLI flags are applied afterwards by the caller and
// take precedence over both file and environment.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if f.FeedURL != "" {
		c.FeedURL = f.FeedURL
	}
	if f.StoreURL != "" {
		c.StoreURL = f.StoreURL
	}
	if f.StoreToken != "" {
		c.StoreToken = f.StoreToken
	}
	if f.Score != nil {
		c.Score = *f.Score
	}
	if f.LabelColor != "" {
		c.LabelColor = f.LabelColor
	}
	if f.PacingMS != nil {
		c.PacingDelay = time.Duration(*f.PacingMS) * time.Millisecond
	}
	if f.Artifact != "" {
		c.ArtifactFile = f.Artifact
	}
}

// ApplyEnv overlays environment variables onto the config. The variable
// names match the upstream connector conventions so existing deployments
// keep working without a config file.
//
//	OPENCTI_API_URL    store base URL
//	OPENCTI_API_KEY    store bearer token
//	DSHIELD_FEED_URL   feed endpoint
//	DSHIELD_SCORE      observable score (0-100)
//	DSHIELD_PACING_MS  pacing delay in milliseconds
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENCTI_API_URL"); v != "" {
		c.StoreURL = v
	}
	if v := os.Getenv("OPENCTI_API_KEY"); v != "" {
		c.StoreToken = v
	}
	if v := os.Getenv("DSHIELD_FEED_URL"); v != "" {
		c.FeedURL = v
	}
	if v := os.Getenv("DSHIELD_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Score = n
		}
	}
	if v := os.Getenv("DSHIELD_PACING_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PacingDelay = time.Duration(n) * time.Millisecond
		}
	}
}
