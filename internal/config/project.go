package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFilename is the name of the per-repository configuration file.
const ProjectConfigFilename = ".webfeatures.yaml"

// LoadProjectConfig loads the project configuration from repoRoot.
// If the file doesn't exist, returns default configuration (not an error).
// If the file exists but is invalid YAML, returns an error.
func LoadProjectConfig(repoRoot string) (ProjectConfig, error) {
	configPath := filepath.Join(repoRoot, ProjectConfigFilename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultProjectConfig(), nil
		}
		return ProjectConfig{}, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("invalid YAML in %s: %w", configPath, err)
	}

	if cfg.Version == 0 {
		cfg.Version = DefaultProjectConfig().Version
	}

	return cfg, nil
}

// ProjectConfigExists checks if a .webfeatures.yaml file exists in dir.
func ProjectConfigExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ProjectConfigFilename))
	return err == nil
}
