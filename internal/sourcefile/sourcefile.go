// Package sourcefile classifies files in a test repository as tests or
// support files, following the naming conventions used by web-platform-tests.
package sourcefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind tags what a file is as far as the test runner is concerned.
type Kind string

const (
	KindTestharness  Kind = "testharness"
	KindReftest      Kind = "reftest"
	KindPrintReftest Kind = "print-reftest"
	KindCrashtest    Kind = "crashtest"
	KindManual       Kind = "manual"
	KindVisual       Kind = "visual"
	KindWdspec       Kind = "wdspec"
	KindSupport      Kind = "support"
)

// sniffLimit bounds how much of a markup file is read to find its kind.
const sniffLimit = 64 * 1024

var (
	// Directory names that never contain tests, anywhere in the tree.
	nonTestDirs = map[string]bool{"resources": true, "support": true, "tools": true}

	// Directory names that never contain tests at the top level.
	rootNonTestDirs = map[string]bool{"common": true}

	markupExts = map[string]bool{".html": true, ".htm": true, ".xht": true, ".xhtml": true, ".svg": true}

	multiGlobalSuffixes = []string{".any.js", ".window.js", ".worker.js", ".extension.js"}

	testharnessScript = regexp.MustCompile(`(?i)<script[^>]+src=["']?[^"'>]*/resources/testharness\.js`)
	referenceLink     = regexp.MustCompile(`(?i)<link[^>]+rel=["']?(match|mismatch)\b`)
)

// SourceFile is one file in the repository with its classification.
type SourceFile struct {
	// RelPath is the path relative to the repository root, "/"-separated.
	RelPath string
	// URL is the URL the file is served at under the URL base.
	URL string
	// NameIsNonTest is set when the name or location alone rules the file out.
	NameIsNonTest bool
	Kind          Kind
}

// TestPath returns the canonical identifier used in the manifest.
func (f SourceFile) TestPath() string {
	return f.RelPath
}

// IsTest reports whether the file should be associated with features.
func (f SourceFile) IsTest() bool {
	return !f.NameIsNonTest && f.Kind != KindSupport
}

// Classifier lists and classifies the files of a directory.
type Classifier struct{}

// Classify classifies every regular file among entries, the listing of
// root/relDir, in listing order. Subdirectories are not included.
func (Classifier) Classify(root, relDir, urlBase string, entries []os.DirEntry) ([]SourceFile, error) {
	dir := filepath.Join(root, relDir)

	var files []SourceFile
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		info, err := os.Stat(full)
		if err != nil {
			// Dangling symlinks have nothing to classify.
			if entry.Type()&os.ModeSymlink != 0 {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", full, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		sf, err := New(root, filepath.Join(relDir, entry.Name()), urlBase)
		if err != nil {
			return nil, err
		}
		files = append(files, sf)
	}
	return files, nil
}

// New classifies the file at root/relPath.
func New(root, relPath, urlBase string) (SourceFile, error) {
	rel := filepath.ToSlash(filepath.Clean(relPath))
	sf := SourceFile{
		RelPath: rel,
		URL:     URL(urlBase, rel),
	}

	sf.NameIsNonTest = nameIsNonTest(rel)
	if sf.NameIsNonTest || nameIsReference(rel) {
		sf.Kind = KindSupport
		return sf, nil
	}

	kind, err := classify(filepath.Join(root, relPath), rel)
	if err != nil {
		return SourceFile{}, err
	}
	sf.Kind = kind
	return sf, nil
}

// URL joins urlBase and a "/"-separated relative path.
func URL(urlBase, rel string) string {
	if urlBase == "" {
		urlBase = "/"
	}
	if !strings.HasSuffix(urlBase, "/") {
		urlBase += "/"
	}
	return urlBase + strings.TrimPrefix(rel, "/")
}

func nameIsNonTest(rel string) bool {
	dir, base := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")

	switch {
	case strings.HasPrefix(base, "."),
		strings.HasPrefix(base, "MANIFEST"),
		strings.HasPrefix(base, "WEB_FEATURES"),
		base == "META.yml",
		strings.HasSuffix(base, ".headers"),
		strings.HasSuffix(base, ".ini"):
		return true
	}

	// Files in the repository root are infrastructure, not tests.
	if dir == "" {
		return true
	}
	parts := strings.Split(dir, "/")
	if rootNonTestDirs[parts[0]] {
		return true
	}
	for _, p := range parts {
		if nonTestDirs[p] {
			return true
		}
	}
	return false
}

func nameIsReference(rel string) bool {
	dir, base := path.Split(rel)
	stem := stem(base)
	if strings.HasPrefix(stem, "ref-") || strings.HasPrefix(stem, "notref-") ||
		strings.HasSuffix(stem, "-ref") || strings.HasSuffix(stem, "-notref") {
		return true
	}
	return hasDir(dir, "reference")
}

func classify(full, rel string) (Kind, error) {
	dir, base := path.Split(rel)
	ext := strings.ToLower(path.Ext(base))
	stem := stem(base)

	if strings.HasSuffix(stem, "-manual") && ext != ".py" {
		return KindManual, nil
	}
	for _, suffix := range multiGlobalSuffixes {
		if strings.HasSuffix(base, suffix) {
			return KindTestharness, nil
		}
	}
	if ext == ".py" && strings.HasPrefix(dir, "webdriver/") &&
		base != "__init__.py" && base != "conftest.py" {
		return KindWdspec, nil
	}
	if !markupExts[ext] {
		return KindSupport, nil
	}
	if strings.HasSuffix(stem, "-crash") || hasDir(dir, "crashtests") {
		return KindCrashtest, nil
	}

	head, err := readHead(full)
	if err != nil {
		return "", err
	}
	switch {
	case testharnessScript.Match(head):
		return KindTestharness, nil
	case referenceLink.Match(head):
		if strings.HasSuffix(stem, "-print") || hasDir(dir, "print") {
			return KindPrintReftest, nil
		}
		return KindReftest, nil
	default:
		return KindVisual, nil
	}
}

func readHead(full string) ([]byte, error) {
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", full, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, sniffLimit)); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", full, err)
	}
	return buf.Bytes(), nil
}

// stem strips every extension, so "a.any.js" and "a-ref.html" give "a" and
// "a-ref".
func stem(base string) string {
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func hasDir(dir, name string) bool {
	for _, p := range strings.Split(strings.TrimSuffix(dir, "/"), "/") {
		if p == name {
			return true
		}
	}
	return false
}
