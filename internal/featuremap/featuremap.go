// Package featuremap provides the ordered accumulator that maps web feature
// identifiers to the tests that exercise them.
//
// Keys and values keep first-seen order. Consumers rely on that order matching
// the traversal order, so nothing in this package sorts.
package featuremap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Identifier is anything that can be reduced to a canonical test path.
type Identifier interface {
	TestPath() string
}

// Path is a test identifier that is already in canonical string form.
type Path string

// TestPath returns the path itself.
func (p Path) TestPath() string {
	return string(p)
}

// Entry is one feature and its tests in serialization order.
type Entry struct {
	Feature string
	Tests   []string
}

// Map accumulates feature → test associations for a single manifest build.
// The zero value is not usable; call New.
type Map struct {
	order   []string
	entries map[string]*tests
}

type tests struct {
	paths []string
	seen  map[string]struct{}
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[string]*tests)}
}

// Add appends ids under feature, creating the key if absent. Ids already
// recorded for the feature are skipped, so repeated identical calls are
// idempotent. The key is created even when ids is empty.
func (m *Map) Add(feature string, ids []Identifier) {
	t := m.entry(feature)
	for _, id := range ids {
		t.add(id.TestPath())
	}
}

// AddPaths is Add for plain path strings.
func (m *Map) AddPaths(feature string, paths ...string) {
	t := m.entry(feature)
	for _, p := range paths {
		t.add(p)
	}
}

// Merge adds every entry of other, in other's order.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	for _, feature := range other.order {
		m.AddPaths(feature, other.entries[feature].paths...)
	}
}

func (m *Map) entry(feature string) *tests {
	t, ok := m.entries[feature]
	if !ok {
		t = &tests{seen: make(map[string]struct{})}
		m.entries[feature] = t
		m.order = append(m.order, feature)
	}
	return t
}

func (t *tests) add(path string) {
	if _, dup := t.seen[path]; dup {
		return
	}
	t.seen[path] = struct{}{}
	t.paths = append(t.paths, path)
}

// Len returns the number of features.
func (m *Map) Len() int {
	return len(m.order)
}

// Features returns the feature identifiers in insertion order.
func (m *Map) Features() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Tests returns the tests recorded for feature, or nil if it is unknown.
func (m *Map) Tests(feature string) []string {
	t, ok := m.entries[feature]
	if !ok {
		return nil
	}
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// Entries returns the serializable form of the map.
func (m *Map) Entries() []Entry {
	out := make([]Entry, 0, len(m.order))
	for _, feature := range m.order {
		out = append(out, Entry{Feature: feature, Tests: m.Tests(feature)})
	}
	return out
}

// MarshalJSON encodes the map as a JSON object whose keys appear in insertion
// order. Empty features encode as [] rather than null.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, feature := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(feature)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		paths := m.entries[feature].paths
		if paths == nil {
			paths = []string{}
		}
		val, err := json.Marshal(paths)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of feature → test paths, keeping the
// document's key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("feature map must be a JSON object, got %v", tok)
	}

	fresh := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		feature, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected feature key %v", tok)
		}
		var paths []string
		if err := dec.Decode(&paths); err != nil {
			return fmt.Errorf("feature %q: %w", feature, err)
		}
		fresh.AddPaths(feature, paths...)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *fresh
	return nil
}
