package conformance

import (
	"path"
	"strings"
	"testing"

	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/sourcefile"
)

// Tests builds test files for the given repository-relative paths.
func Tests(paths ...string) []sourcefile.SourceFile {
	out := make([]sourcefile.SourceFile, len(paths))
	for i, p := range paths {
		out[i] = sourcefile.SourceFile{
			RelPath: p,
			URL:     sourcefile.URL("/", p),
			Kind:    kindFor(p),
		}
	}
	return out
}

func kindFor(p string) sourcefile.Kind {
	if strings.HasSuffix(path.Base(p), ".any.js") {
		return sourcefile.KindTestharness
	}
	return sourcefile.KindVisual
}

// Declaration parses YAML declaration content, failing the test if it is
// invalid.
func Declaration(t *testing.T, content string) *declaration.File {
	t.Helper()
	decl, err := declaration.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("invalid declaration fixture: %v", err)
	}
	return decl
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
