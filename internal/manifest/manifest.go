// Package manifest reads and writes WEB_FEATURES_MANIFEST.json, the persisted
// feature → tests mapping consumed by downstream tooling.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Quidge/webfeatures/internal/featuremap"
)

// FileName is the default manifest file name, written to the repository root.
const FileName = "WEB_FEATURES_MANIFEST.json"

// Version is the manifest format version written by this package.
const Version = 1

// ErrUnsupportedVersion is returned by Read for manifests of another format.
var ErrUnsupportedVersion = errors.New("unsupported manifest version")

// Manifest is the on-disk document.
type Manifest struct {
	Version int             `json:"version"`
	Data    *featuremap.Map `json:"data"`
	Config  Config          `json:"config"`
}

// Config records the run configuration the manifest was built with.
type Config struct {
	URLBase string `json:"url_base"`
}

// New wraps fm in a manifest of the current version.
func New(fm *featuremap.Map, urlBase string) Manifest {
	return Manifest{
		Version: Version,
		Data:    fm,
		Config:  Config{URLBase: urlBase},
	}
}

// Encode serializes the manifest. Output is deterministic for a given map.
func Encode(m Manifest) ([]byte, error) {
	if m.Data == nil {
		m.Data = featuremap.New()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// Write encodes m and replaces the file at path. The content is written to a
// temporary file in the same directory and renamed into place, so readers
// never see a partially written manifest.
func Write(path string, m Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Read loads the manifest at path.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Decode(data)
}

// Decode parses manifest content, rejecting other format versions.
func Decode(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Version != Version {
		return Manifest{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	if m.Data == nil {
		m.Data = featuremap.New()
	}
	return m, nil
}
