// Package config handles configuration loading and validation for gramcheck.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/gramcheck/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Review   ReviewConfig   `yaml:"review"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// GatewayConfig configures the HTTP client that talks to the correction backend.
type GatewayConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReviewConfig configures the interactive review session.
type ReviewConfig struct {
	Sheet          string `yaml:"sheet"`           // sheet checked on startup; empty means the first sheet
	Theme          string `yaml:"theme"`           // one of styles.ThemeNames()
	HighlightColor string `yaml:"highlight_color"` // lipgloss color for changed tokens
	MemoSize       int    `yaml:"memo_size"`       // cached diff results
}

// ServerConfig configures the reference backend served by `gramcheck serve`.
type ServerConfig struct {
	Addr             string            `yaml:"addr"`
	Workbook         string            `yaml:"workbook"`
	OnlineURL        string            `yaml:"online_url"`    // OneDrive/SharePoint share link; empty renders an HTML table
	IgnoreSheets     []string          `yaml:"ignore_sheets"` // doublestar globs
	Replacements     map[string]string `yaml:"replacements"`
	ReplacementFiles []string          `yaml:"replacement_files"` // relative to the config file
	HighlightApplied bool              `yaml:"highlight_applied"`
	AppliedColor     string            `yaml:"applied_color"` // hex RGB for rich-text runs
}

// DatabaseConfig configures the SQLite correction history.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 30 * time.Second,
		},
		Review: ReviewConfig{
			Theme:          styles.DefaultTheme,
			HighlightColor: "11",
			MemoSize:       512,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:5000",
			AppliedColor: "FF0000",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	if len(cfg.Server.ReplacementFiles) > 0 {
		extra, err := loadReplacementFiles(filepath.Dir(configPath), cfg.Server.ReplacementFiles)
		if err != nil {
			return nil, err
		}
		cfg.Server.Replacements = mergeReplacements(extra, cfg.Server.Replacements)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = defaults.Gateway.BaseURL
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = defaults.Gateway.Timeout
	}
	if c.Review.Theme == "" {
		c.Review.Theme = defaults.Review.Theme
	}
	if c.Review.HighlightColor == "" {
		c.Review.HighlightColor = defaults.Review.HighlightColor
	}
	if c.Review.MemoSize == 0 {
		c.Review.MemoSize = defaults.Review.MemoSize
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.AppliedColor == "" {
		c.Server.AppliedColor = defaults.Server.AppliedColor
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil {
		return fmt.Errorf("gateway.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.base_url must use http or https, got %q", c.Gateway.BaseURL)
	}

	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout cannot be negative")
	}

	if _, ok := styles.GetPalette(c.Review.Theme); !ok {
		return fmt.Errorf("review.theme %q is not one of %v", c.Review.Theme, styles.ThemeNames())
	}

	if c.Review.MemoSize < 1 {
		return fmt.Errorf("review.memo_size must be at least 1")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	for from, to := range c.Server.Replacements {
		if from == "" || to == "" {
			return fmt.Errorf("server.replacements: empty entry %q -> %q", from, to)
		}
	}

	return nil
}

// LogFile returns the default log file path inside the data directory.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "gramcheck.log")
}
