package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// ValidateDeep performs comprehensive validation of the configuration including
// glob syntax, colors, and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateServer(),
	)
}

// validateFileAccess checks config file, data directory, and workbook.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("server.workbook", c.Server.Workbook, isWorkbookFile),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// isWorkbookFile validates that a configured workbook is an existing .xlsx file.
func isWorkbookFile(path string) error {
	if path == "" {
		return nil
	}
	if !strings.EqualFold(strings.TrimPrefix(filepath.Ext(path), "."), "xlsx") {
		return fmt.Errorf("expected an .xlsx file, got %q", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

// validateServer checks ignore globs, the applied color, and the online URL.
func (c *Config) validateServer() error {
	var errs criterio.FieldErrorsBuilder

	for i, pattern := range c.Server.IgnoreSheets {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("server.ignore_sheets[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}

	if c.Server.AppliedColor != "" && !hexColor.MatchString(c.Server.AppliedColor) {
		errs = errs.Append("server.applied_color", fmt.Errorf("expected 6 hex digits, got %q", c.Server.AppliedColor))
	}

	if c.Server.OnlineURL != "" && !strings.Contains(c.Server.OnlineURL, "d=") {
		errs = errs.Append("server.online_url", fmt.Errorf("share link has no d= document parameter"))
	}

	return errs.ToError()
}
