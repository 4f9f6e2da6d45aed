package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Gateway.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 512, cfg.Review.MemoSize)
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, filepath.Join(dataDir, "gramcheck.log"), cfg.LogFile())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Gateway, cfg.Gateway)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, `
gateway:
  base_url: https://grammar.internal
  timeout: 5s
review:
  sheet: Summary
server:
  workbook: /tmp/book.xlsx
  ignore_sheets: ["_*", "archive/**"]
  replacements:
    teh: the
  highlight_applied: true
database:
  busy_timeout: 100
`))

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "https://grammar.internal", cfg.Gateway.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "Summary", cfg.Review.Sheet)
	assert.Equal(t, []string{"_*", "archive/**"}, cfg.Server.IgnoreSheets)
	assert.Equal(t, map[string]string{"teh": "the"}, cfg.Server.Replacements)
	assert.True(t, cfg.Server.HighlightApplied)
	assert.Equal(t, 100, cfg.Database.BusyTimeout)
	// unset values fall back
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, "FF0000", cfg.Server.AppliedColor)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "gateway: [unclosed"))

	_, err := Load(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_ReplacementFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeTestFile(filepath.Join(dir, "base.yaml"), "teh: the\nrecieve: receive\n"))
	require.NoError(t, writeTestFile(filepath.Join(dir, "extra.yaml"), "teh: THE\n"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, `
server:
  replacement_files: [base.yaml, extra.yaml]
  replacements:
    recieve: receives
`))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"teh": "THE", "recieve": "receives"}, cfg.Server.Replacements)
}

func TestLoad_ReplacementFileMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "server:\n  replacement_files: [gone.yaml]\n"))

	_, err := Load(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.yaml")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data directory"},
		{"bad scheme", func(c *Config) { c.Gateway.BaseURL = "ftp://x" }, "http or https"},
		{"negative timeout", func(c *Config) { c.Gateway.Timeout = -time.Second }, "gateway.timeout"},
		{"unknown theme", func(c *Config) { c.Review.Theme = "neon" }, "review.theme"},
		{"memo size", func(c *Config) { c.Review.MemoSize = 0 }, "memo_size"},
		{"open conns", func(c *Config) { c.Database.MaxOpenConns = 0 }, "max_open_conns"},
		{"empty replacement", func(c *Config) { c.Server.Replacements = map[string]string{"a": ""} }, "replacements"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
