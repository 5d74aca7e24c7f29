package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Quidge/webfeatures/internal/associator"
	"github.com/Quidge/webfeatures/internal/gitutil"
	"github.com/Quidge/webfeatures/internal/pathutil"
)

// FlagOverrides contains CLI flag values that override configuration.
type FlagOverrides struct {
	RepoRoot     string
	URLBase      string
	ManifestPath string
	IndexPath    string
	Inheritance  string
	Jobs         int
}

// ResolveRepoRoot picks the repository to build: the --repo-root flag, then
// the configured repo_root, then the git top-level containing cwd, then cwd
// itself. Relative paths are resolved against cwd. The result must be an
// existing directory.
func ResolveRepoRoot(global GlobalConfig, flags FlagOverrides, cwd string) (string, error) {
	root := flags.RepoRoot
	if root == "" && global.RepoRoot != "" {
		expanded, err := ExpandPath(ExpandEnvVars(global.RepoRoot))
		if err != nil {
			return "", fmt.Errorf("repo_root: %w", err)
		}
		root = expanded
	}
	if root == "" {
		top, err := gitutil.RepoRoot(cwd)
		switch {
		case err == nil:
			root = top
		case errors.Is(err, gitutil.ErrNotGitRepo):
			root = cwd
		default:
			return "", err
		}
	}

	root = pathutil.ResolveRelative(cwd, root)
	if !pathutil.ExistsAndIsDir(root) {
		return "", fmt.Errorf("repository root %s is not a directory", root)
	}
	return root, nil
}

// Merge combines global config, project config, and CLI flag overrides
// following the precedence order: defaults → global → project → flags.
// repoRoot must already be resolved; relative flag paths are resolved
// against cwd.
func Merge(global GlobalConfig, project ProjectConfig, flags FlagOverrides, repoRoot, cwd string) (RunConfig, error) {
	merged := RunConfig{
		RepoRoot:    repoRoot,
		URLBase:     global.URLBase,
		Inheritance: global.Inheritance,
		Jobs:        global.Jobs,
	}

	if project.URLBase != "" {
		merged.URLBase = project.URLBase
	}
	if flags.URLBase != "" {
		merged.URLBase = flags.URLBase
	}
	if merged.URLBase == "" {
		merged.URLBase = "/"
	}

	if project.Inheritance != "" {
		merged.Inheritance = project.Inheritance
	}
	if flags.Inheritance != "" {
		merged.Inheritance = flags.Inheritance
	}
	if _, err := associator.Get(merged.Inheritance); err != nil {
		return RunConfig{}, err
	}

	if flags.Jobs != 0 {
		merged.Jobs = flags.Jobs
	}
	if merged.Jobs < 1 {
		return RunConfig{}, fmt.Errorf("jobs must be at least 1, got %d", merged.Jobs)
	}

	exclude, err := Excludes(global, project)
	if err != nil {
		return RunConfig{}, err
	}
	merged.Exclude = exclude

	if flags.ManifestPath != "" {
		merged.ManifestPath = pathutil.ResolveRelative(cwd, flags.ManifestPath)
	} else {
		name := global.ManifestName
		if name == "" {
			name = DefaultGlobalConfig().ManifestName
		}
		merged.ManifestPath = pathutil.ResolveRelative(repoRoot, name)
	}

	indexPath := global.IndexPath
	if flags.IndexPath != "" {
		indexPath = flags.IndexPath
	}
	if indexPath != "" {
		expanded, err := ExpandPath(ExpandEnvVars(indexPath))
		if err != nil {
			return RunConfig{}, fmt.Errorf("index_path: %w", err)
		}
		merged.IndexPath = pathutil.ResolveRelative(cwd, expanded)
	}

	return merged, nil
}

// Excludes returns the global exclude patterns extended by the project ones,
// without duplicates. Every pattern must be a valid doublestar glob.
func Excludes(global GlobalConfig, project ProjectConfig) ([]string, error) {
	out := appendUnique(nil, global.Exclude...)
	out = appendUnique(out, project.Exclude...)
	for _, p := range out {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return out, nil
}

// Load loads the global configuration from configPath, resolves the
// repository root, loads its project configuration and merges everything
// with the provided flag overrides.
func Load(configPath string, flags FlagOverrides) (RunConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to get current directory: %w", err)
	}

	global, err := LoadGlobalConfig(configPath)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to load global config: %w", err)
	}

	repoRoot, err := ResolveRepoRoot(global, flags, cwd)
	if err != nil {
		return RunConfig{}, err
	}

	project, err := LoadProjectConfig(repoRoot)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to load project config: %w", err)
	}

	return Merge(global, project, flags, repoRoot, cwd)
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
