package config

// GlobalConfigTemplate is the default template for
// ~/.config/webfeatures/config.yaml. It includes comments explaining each
// option.
const GlobalConfigTemplate = `# webfeatures global configuration
# Location: ~/.config/webfeatures/config.yaml

# Schema version (required)
version: 1

# Repository to build when --repo-root is not given.
# Defaults to the git top-level of the working directory.
# repo_root: ~/src/wpt

# URL prefix under which the repository is served
url_base: /

# Manifest file name, written to the repository root
manifest_name: WEB_FEATURES_MANIFEST.json

# Also write a SQLite index of every build (optional)
# index_path: ${XDG_DATA_HOME:-~/.local/share}/webfeatures/index.db

# How declarations interact with inherited features: replace or merge
inheritance: replace

# Directories never entered (doublestar globs, relative to the repository root)
exclude:
  - "**/.git"
  - "**/node_modules"

# Parallel walk workers; 1 walks serially
jobs: 1
`

// ProjectConfigTemplate is the default template for .webfeatures.yaml.
const ProjectConfigTemplate = `# webfeatures project configuration
# Location: .webfeatures.yaml (repository root)

version: 1

# url_base: /
# inheritance: replace

# Extra directories to skip, added to the global list
# exclude:
#   - tools/**
`
