package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfigPath returns the path to the global configuration file.
func GlobalConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "webfeatures", "config.yaml"), nil
}

// LoadGlobalConfig loads the global configuration from configPath, or from
// GlobalConfigPath() when configPath is empty.
// If the file doesn't exist, returns default configuration (not an error).
// If the file exists but is invalid YAML, returns an error.
func LoadGlobalConfig(configPath string) (GlobalConfig, error) {
	if configPath == "" {
		var err error
		configPath, err = GlobalConfigPath()
		if err != nil {
			return DefaultGlobalConfig(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultGlobalConfig(), nil
		}
		return GlobalConfig{}, fmt.Errorf("failed to read global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, fmt.Errorf("invalid YAML in %s: %w", configPath, err)
	}

	cfg = applyGlobalDefaults(cfg)

	return cfg, nil
}

// applyGlobalDefaults fills in missing fields with default values.
func applyGlobalDefaults(cfg GlobalConfig) GlobalConfig {
	defaults := DefaultGlobalConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.URLBase == "" {
		cfg.URLBase = defaults.URLBase
	}
	if cfg.ManifestName == "" {
		cfg.ManifestName = defaults.ManifestName
	}
	if cfg.Inheritance == "" {
		cfg.Inheritance = defaults.Inheritance
	}
	// An explicit empty list disables the default excludes.
	if cfg.Exclude == nil {
		cfg.Exclude = defaults.Exclude
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = defaults.Jobs
	}

	return cfg
}

// WriteGlobalConfig writes cfg to configPath, creating parent directories.
// An empty configPath selects GlobalConfigPath().
func WriteGlobalConfig(configPath string, cfg GlobalConfig) error {
	if configPath == "" {
		var err error
		configPath, err = GlobalConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
