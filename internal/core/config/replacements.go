package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// loadReplacementFiles reads YAML replacement tables and merges them in
// declaration order. Later files override earlier files for the same word.
func loadReplacementFiles(configDir string, files []string) (map[string]string, error) {
	merged := make(map[string]string)

	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read replacement file %q: %w", file, err)
		}

		var table map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse replacement file %q: %w", file, err)
		}

		merged = mergeReplacements(merged, table)
	}

	return merged, nil
}

// mergeReplacements returns base overlaid with override.
func mergeReplacements(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
