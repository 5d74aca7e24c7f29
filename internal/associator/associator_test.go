package associator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/featuremap"
	"github.com/Quidge/webfeatures/internal/sourcefile"
)

func testFiles(paths ...string) []sourcefile.SourceFile {
	files := make([]sourcefile.SourceFile, len(paths))
	for i, p := range paths {
		files[i] = sourcefile.SourceFile{RelPath: p, Kind: sourcefile.KindTestharness}
	}
	return files
}

func recursive(name string) declaration.Feature {
	return declaration.Feature{Name: name, Files: declaration.FileSpec{Recursive: true}}
}

func patterns(name string, p ...string) declaration.Feature {
	return declaration.Feature{Name: name, Files: declaration.FileSpec{Patterns: p}}
}

func TestReplace(t *testing.T) {
	tests := testFiles("dir/a.html", "dir/b.html", "dir/legacy-c.html")

	t.Run("no declaration applies and propagates inherited", func(t *testing.T) {
		fm := featuremap.New()
		inherited := []string{"grid", "flexbox"}

		next, err := Replace{}.Associate(tests, nil, inherited, fm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(next, inherited) {
			t.Errorf("expected %v, got %v", inherited, next)
		}
		want := []featuremap.Entry{
			{Feature: "grid", Tests: []string{"dir/a.html", "dir/b.html", "dir/legacy-c.html"}},
			{Feature: "flexbox", Tests: []string{"dir/a.html", "dir/b.html", "dir/legacy-c.html"}},
		}
		if got := fm.Entries(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("declaration drops inherited features", func(t *testing.T) {
		fm := featuremap.New()
		decl := &declaration.File{Features: []declaration.Feature{recursive("subgrid")}}

		next, err := Replace{}.Associate(tests, decl, []string{"grid"}, fm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(next, []string{"subgrid"}) {
			t.Errorf("expected [subgrid], got %v", next)
		}
		if got := fm.Features(); !reflect.DeepEqual(got, []string{"subgrid"}) {
			t.Errorf("expected only subgrid, got %v", got)
		}
	})

	t.Run("pattern features apply locally only", func(t *testing.T) {
		fm := featuremap.New()
		decl := &declaration.File{Features: []declaration.Feature{
			patterns("grid", "*.html", "!legacy-*"),
			patterns("legacy", "legacy-*"),
		}}

		next, err := Replace{}.Associate(tests, decl, []string{"inherited"}, fm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(next) != 0 {
			t.Errorf("expected nothing to propagate, got %v", next)
		}
		want := []featuremap.Entry{
			{Feature: "grid", Tests: []string{"dir/a.html", "dir/b.html"}},
			{Feature: "legacy", Tests: []string{"dir/legacy-c.html"}},
		}
		if got := fm.Entries(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("does not modify inherited", func(t *testing.T) {
		inherited := []string{"grid"}
		next, err := Replace{}.Associate(tests, nil, inherited, featuremap.New())
		if err != nil {
			t.Fatal(err)
		}
		next[0] = "changed"
		if inherited[0] != "grid" {
			t.Error("returned list aliases the inherited list")
		}
	})

	t.Run("recursive feature with no tests still creates key", func(t *testing.T) {
		fm := featuremap.New()
		decl := &declaration.File{Features: []declaration.Feature{recursive("grid")}}

		if _, err := (Replace{}).Associate(nil, decl, nil, fm); err != nil {
			t.Fatal(err)
		}
		if fm.Len() != 1 {
			t.Errorf("expected grid key, got %v", fm.Features())
		}
	})
}

func TestMerge(t *testing.T) {
	tests := testFiles("dir/a.html", "dir/b.html")
	fm := featuremap.New()
	decl := &declaration.File{Features: []declaration.Feature{
		recursive("subgrid"),
		recursive("grid"),
		patterns("masonry", "b.*"),
	}}

	next, err := Merge{}.Associate(tests, decl, []string{"grid"}, fm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(next, []string{"grid", "subgrid"}) {
		t.Errorf("expected [grid subgrid], got %v", next)
	}
	want := []featuremap.Entry{
		{Feature: "grid", Tests: []string{"dir/a.html", "dir/b.html"}},
		{Feature: "subgrid", Tests: []string{"dir/a.html", "dir/b.html"}},
		{Feature: "masonry", Tests: []string{"dir/b.html"}},
	}
	if got := fm.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRegistry(t *testing.T) {
	t.Run("default policy", func(t *testing.T) {
		a, err := Get("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := a.(Replace); !ok {
			t.Errorf("expected Replace, got %T", a)
		}
	})

	t.Run("merge policy", func(t *testing.T) {
		a, err := Get("merge")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := a.(Merge); !ok {
			t.Errorf("expected Merge, got %T", a)
		}
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := Get("nonexistent")
		if !errors.Is(err, ErrUnknownPolicy) {
			t.Errorf("expected ErrUnknownPolicy, got %v", err)
		}
	})

	t.Run("register", func(t *testing.T) {
		Register("test-only", func() Associator { return Merge{} })
		defer delete(registry, "test-only")

		if _, err := Get("test-only"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		found := false
		for _, name := range RegisteredPolicies() {
			if name == "test-only" {
				found = true
			}
		}
		if !found {
			t.Error("registered policy not listed")
		}
	})
}
