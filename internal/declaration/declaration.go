// Package declaration loads WEB_FEATURES.yml files, the per-directory
// declarations that associate web features with the tests in a directory.
package declaration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Filename is the name of the declaration file looked up in each directory.
const Filename = "WEB_FEATURES.yml"

// RecursiveMarker is the files value that applies a feature to every test in
// the directory and its subdirectories.
const RecursiveMarker = "**"

// ErrInvalidDeclaration is wrapped by validation failures.
var ErrInvalidDeclaration = errors.New("invalid web features declaration")

// ParseError reports a declaration file that exists but could not be loaded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// File is a parsed WEB_FEATURES.yml.
type File struct {
	Features []Feature `yaml:"features"`
}

// Feature associates one feature name with a set of files.
type Feature struct {
	Name  string   `yaml:"name"`
	Files FileSpec `yaml:"files"`
}

// Recursive reports whether the feature applies to the whole subtree.
func (f Feature) Recursive() bool {
	return f.Files.Recursive
}

// FileSpec is either the recursive marker or a list of glob patterns matched
// against base file names. Patterns prefixed with "!" exclude.
type FileSpec struct {
	Recursive bool
	Patterns  []string
}

// UnmarshalYAML accepts either the string "**" or a sequence of patterns.
func (s *FileSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var str string
		if err := value.Decode(&str); err != nil {
			return err
		}
		if str != RecursiveMarker {
			return fmt.Errorf("line %d: files must be %q or a list of patterns, got %q", value.Line, RecursiveMarker, str)
		}
		s.Recursive = true
		return nil
	case yaml.SequenceNode:
		var patterns []string
		if err := value.Decode(&patterns); err != nil {
			return err
		}
		s.Patterns = patterns
		return nil
	default:
		return fmt.Errorf("line %d: files must be %q or a list of patterns", value.Line, RecursiveMarker)
	}
}

// MarshalYAML writes the FileSpec back in the same shape it was read.
func (s FileSpec) MarshalYAML() (any, error) {
	if s.Recursive {
		return RecursiveMarker, nil
	}
	return s.Patterns, nil
}

// Includes returns the non-negated patterns.
func (s FileSpec) Includes() []string {
	var out []string
	for _, p := range s.Patterns {
		if !strings.HasPrefix(p, "!") {
			out = append(out, p)
		}
	}
	return out
}

// Excludes returns the negated patterns with the leading "!" removed.
func (s FileSpec) Excludes() []string {
	var out []string
	for _, p := range s.Patterns {
		if strings.HasPrefix(p, "!") {
			out = append(out, p[1:])
		}
	}
	return out
}

// Parse decodes and validates declaration content. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrInvalidDeclaration)
		}
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the structural rules a declaration must satisfy.
func (f *File) Validate() error {
	if len(f.Features) == 0 {
		return fmt.Errorf("%w: features list is missing or empty", ErrInvalidDeclaration)
	}
	for i, feat := range f.Features {
		if strings.TrimSpace(feat.Name) == "" {
			return fmt.Errorf("%w: feature %d has no name", ErrInvalidDeclaration, i)
		}
		if feat.Files.Recursive {
			continue
		}
		if len(feat.Files.Patterns) == 0 {
			return fmt.Errorf("%w: feature %q has no files", ErrInvalidDeclaration, feat.Name)
		}
		for _, p := range feat.Files.Patterns {
			glob := strings.TrimPrefix(p, "!")
			if glob == "" {
				return fmt.Errorf("%w: feature %q has an empty pattern", ErrInvalidDeclaration, feat.Name)
			}
			if strings.Contains(glob, "/") {
				return fmt.Errorf("%w: feature %q pattern %q must match base names only", ErrInvalidDeclaration, feat.Name, p)
			}
			if !doublestar.ValidatePattern(glob) {
				return fmt.Errorf("%w: feature %q has malformed pattern %q", ErrInvalidDeclaration, feat.Name, p)
			}
		}
	}
	return nil
}

// Loader reads declarations from the filesystem.
type Loader struct {
	// Filename overrides the declaration file name. Empty means Filename.
	Filename string
}

// Load returns the declaration in dir, or nil if dir has none. A declaration
// that exists but cannot be read or parsed yields a *ParseError.
func (l Loader) Load(dir string) (*File, error) {
	name := l.Filename
	if name == "" {
		name = Filename
	}
	path := filepath.Join(dir, name)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return f, nil
}

// Marshal encodes a declaration as YAML.
func Marshal(f *File) ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal declaration: %w", err)
	}
	return data, nil
}
