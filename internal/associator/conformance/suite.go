package conformance

import (
	"encoding/json"
	"testing"

	"github.com/Quidge/webfeatures/internal/associator"
	"github.com/Quidge/webfeatures/internal/featuremap"
)

// Suite defines all conformance tests for any Associator implementation.
type Suite struct {
	// Associator under test.
	Associator associator.Associator
}

// Run executes all conformance tests.
func (s *Suite) Run(t *testing.T) {
	t.Run("Inheritance", s.testInheritance)
	t.Run("Declarations", s.testDeclarations)
	t.Run("Aggregation", s.testAggregation)
}

func (s *Suite) testInheritance(t *testing.T) {
	t.Run("NoDeclarationAppliesInherited", func(t *testing.T) {
		fm := featuremap.New()
		tests := Tests("css/a.html", "css/b.html")

		next, err := s.Associator.Associate(tests, nil, []string{"grid", "subgrid"}, fm)
		if err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if !equal(next, []string{"grid", "subgrid"}) {
			t.Errorf("expected inherited list to propagate, got %v", next)
		}
		for _, feature := range []string{"grid", "subgrid"} {
			if got := fm.Tests(feature); !equal(got, []string{"css/a.html", "css/b.html"}) {
				t.Errorf("%s: expected both tests, got %v", feature, got)
			}
		}
	})

	t.Run("NoDeclarationNoInherited", func(t *testing.T) {
		fm := featuremap.New()
		next, err := s.Associator.Associate(Tests("a.html"), nil, nil, fm)
		if err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if len(next) != 0 {
			t.Errorf("expected empty propagated list, got %v", next)
		}
		if fm.Len() != 0 {
			t.Errorf("expected no features, got %v", fm.Features())
		}
	})

	t.Run("InheritedNotModified", func(t *testing.T) {
		inherited := []string{"grid", "flexbox"}
		decl := Declaration(t, "features:\n- name: avif\n  files: \"**\"\n")

		next, err := s.Associator.Associate(Tests("a.html"), decl, inherited, featuremap.New())
		if err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if !equal(inherited, []string{"grid", "flexbox"}) {
			t.Errorf("inherited list modified: %v", inherited)
		}

		// The returned list must not share storage with the input.
		if len(next) > 0 {
			next[0] = "clobbered"
			if contains(inherited, "clobbered") {
				t.Error("returned list aliases the inherited list")
			}
		}
	})

	t.Run("EmptyDirectory", func(t *testing.T) {
		fm := featuremap.New()
		next, err := s.Associator.Associate(nil, nil, []string{"grid"}, fm)
		if err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if !equal(next, []string{"grid"}) {
			t.Errorf("expected [grid], got %v", next)
		}
	})
}

func (s *Suite) testDeclarations(t *testing.T) {
	t.Run("RecursiveFeaturePropagates", func(t *testing.T) {
		fm := featuremap.New()
		decl := Declaration(t, "features:\n- name: avif\n  files: \"**\"\n")

		next, err := s.Associator.Associate(Tests("img/a.html"), decl, nil, fm)
		if err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if !contains(next, "avif") {
			t.Errorf("expected avif in propagated list, got %v", next)
		}
		if got := fm.Tests("avif"); !equal(got, []string{"img/a.html"}) {
			t.Errorf("expected [img/a.html], got %v", got)
		}
	})

	t.Run("PatternFeatureStaysLocal", func(t *testing.T) {
		fm := featuremap.New()
		decl := Declaration(t, `features:
- name: gap
  files:
  - "gap-*"
  - "!gap-legacy.html"
`)
		tests := Tests("css/gap-row.html", "css/other.html", "css/gap-legacy.html", "css/gap-col.html")

		next, err := s.Associator.Associate(tests, decl, nil, fm)
		if err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if contains(next, "gap") {
			t.Errorf("pattern feature must not propagate, got %v", next)
		}
		want := []string{"css/gap-row.html", "css/gap-col.html"}
		if got := fm.Tests("gap"); !equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("PatternWithoutMatchesCreatesKey", func(t *testing.T) {
		fm := featuremap.New()
		decl := Declaration(t, "features:\n- name: gap\n  files: [\"gap-*\"]\n")

		if _, err := s.Associator.Associate(Tests("css/other.html"), decl, nil, fm); err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if got := fm.Tests("gap"); got == nil || len(got) != 0 {
			t.Errorf("expected empty entry for gap, got %v", got)
		}
	})

	t.Run("MatchesBaseNames", func(t *testing.T) {
		fm := featuremap.New()
		decl := Declaration(t, "features:\n- name: any\n  files: [\"*.any.js\"]\n")

		if _, err := s.Associator.Associate(Tests("dom/nested/x.any.js", "dom/nested/y.html"), decl, nil, fm); err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if got := fm.Tests("any"); !equal(got, []string{"dom/nested/x.any.js"}) {
			t.Errorf("expected [dom/nested/x.any.js], got %v", got)
		}
	})
}

func (s *Suite) testAggregation(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		fm := featuremap.New()
		decl := Declaration(t, "features:\n- name: grid\n  files: \"**\"\n")
		tests := Tests("a.html", "b.html")

		for i := 0; i < 2; i++ {
			if _, err := s.Associator.Associate(tests, decl, []string{"flexbox"}, fm); err != nil {
				t.Fatalf("Associate() returned error: %v", err)
			}
		}
		if got := fm.Tests("grid"); !equal(got, []string{"a.html", "b.html"}) {
			t.Errorf("expected no duplicates, got %v", got)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		run := func() string {
			fm := featuremap.New()
			decl := Declaration(t, "features:\n- name: z\n  files: \"**\"\n- name: a\n  files: [\"*.html\"]\n")
			if _, err := s.Associator.Associate(Tests("c.html", "a.html"), decl, []string{"m"}, fm); err != nil {
				t.Fatalf("Associate() returned error: %v", err)
			}
			data, err := json.Marshal(fm)
			if err != nil {
				t.Fatal(err)
			}
			return string(data)
		}

		first := run()
		for i := 0; i < 5; i++ {
			if got := run(); got != first {
				t.Fatalf("output changed between runs:\n%s\n%s", first, got)
			}
		}
	})

	t.Run("KeepsTestOrder", func(t *testing.T) {
		fm := featuremap.New()
		decl := Declaration(t, "features:\n- name: grid\n  files: \"**\"\n")

		if _, err := s.Associator.Associate(Tests("z.html", "a.html", "m.html"), decl, nil, fm); err != nil {
			t.Fatalf("Associate() returned error: %v", err)
		}
		if got := fm.Tests("grid"); !equal(got, []string{"z.html", "a.html", "m.html"}) {
			t.Errorf("expected listing order, got %v", got)
		}
	})
}
