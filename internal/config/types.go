package config

import (
	"github.com/Quidge/webfeatures/internal/associator"
	"github.com/Quidge/webfeatures/internal/manifest"
)

// GlobalConfig represents the global configuration loaded from
// ~/.config/webfeatures/config.yaml
type GlobalConfig struct {
	Version      int      `yaml:"version"`
	RepoRoot     string   `yaml:"repo_root,omitempty"`
	URLBase      string   `yaml:"url_base"`
	ManifestName string   `yaml:"manifest_name"`
	IndexPath    string   `yaml:"index_path,omitempty"`
	Inheritance  string   `yaml:"inheritance"`
	Exclude      []string `yaml:"exclude"`
	Jobs         int      `yaml:"jobs"`
}

// ProjectConfig represents the per-repository configuration loaded from
// .webfeatures.yaml in the repository root. Empty fields defer to the global
// configuration.
type ProjectConfig struct {
	Version     int      `yaml:"version"`
	URLBase     string   `yaml:"url_base,omitempty"`
	Inheritance string   `yaml:"inheritance,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
}

// RunConfig is the final configuration of one build after applying
// precedence rules (defaults → global → project → flags). Every path is
// absolute.
type RunConfig struct {
	RepoRoot     string
	URLBase      string
	ManifestPath string
	// IndexPath is empty when no SQLite index should be written.
	IndexPath   string
	Inheritance string
	Exclude     []string
	Jobs        int
}

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Version:      1,
		URLBase:      "/",
		ManifestName: manifest.FileName,
		Inheritance:  associator.DefaultPolicy,
		Exclude:      []string{"**/.git", "**/node_modules"},
		Jobs:         1,
	}
}

// DefaultProjectConfig returns a ProjectConfig with sensible defaults.
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
	}
}
