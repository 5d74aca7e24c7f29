package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Quidge/webfeatures/internal/associator"
)

// setters maps the keys accepted by Set to the field they update.
var setters = map[string]func(*GlobalConfig, string) error{
	"repo_root": func(c *GlobalConfig, v string) error {
		c.RepoRoot = v
		return nil
	},
	"url_base": func(c *GlobalConfig, v string) error {
		if v == "" {
			return fmt.Errorf("url_base cannot be empty")
		}
		c.URLBase = v
		return nil
	},
	"manifest_name": func(c *GlobalConfig, v string) error {
		if v == "" {
			return fmt.Errorf("manifest_name cannot be empty")
		}
		c.ManifestName = v
		return nil
	},
	"index_path": func(c *GlobalConfig, v string) error {
		c.IndexPath = v
		return nil
	},
	"inheritance": func(c *GlobalConfig, v string) error {
		if _, err := associator.Get(v); err != nil {
			return err
		}
		c.Inheritance = v
		return nil
	},
	"jobs": func(c *GlobalConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("jobs must be an integer: %w", err)
		}
		if n < 1 {
			return fmt.Errorf("jobs must be at least 1, got %d", n)
		}
		c.Jobs = n
		return nil
	},
}

// SettableKeys returns the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates value and stores it in the field of cfg named by key.
// cfg is left unchanged on error.
func Set(cfg *GlobalConfig, key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(SettableKeys(), ", "))
	}
	return set(cfg, value)
}
