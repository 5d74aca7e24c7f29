package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Quidge/webfeatures/internal/index"
)

func TestSimilarFeatures(t *testing.T) {
	known := []index.FeatureSummary{
		{Name: "grid"},
		{Name: "subgrid"},
		{Name: "flexbox"},
		{Name: "flexbox-gap"},
		{Name: "avif"},
	}

	tests := []struct {
		name    string
		feature string
		want    []string
	}{
		{"substring", "grid", []string{"grid", "subgrid"}},
		{"case insensitive", "FLEX", []string{"flexbox", "flexbox-gap"}},
		{"known name inside query", "avif-images", []string{"avif"}},
		{"no match", "webgpu", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarFeatures(tt.feature, known)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("similarFeatures(%q) = %v, want %v", tt.feature, got, tt.want)
			}
		})
	}
}

func TestSimilarFeaturesCapped(t *testing.T) {
	var known []index.FeatureSummary
	for _, n := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"} {
		known = append(known, index.FeatureSummary{Name: n})
	}

	if got := similarFeatures("a", known); len(got) != maxSuggestions {
		t.Errorf("expected %d suggestions, got %v", maxSuggestions, got)
	}
}

func TestFormatFeatureNotFound(t *testing.T) {
	t.Run("with suggestions", func(t *testing.T) {
		err := FormatFeatureNotFound("gri", []index.FeatureSummary{{Name: "grid"}, {Name: "avif"}})
		msg := err.Error()

		if !strings.Contains(msg, `feature "gri" is not in the index`) {
			t.Errorf("expected header, got: %s", msg)
		}
		if !strings.Contains(msg, "Did you mean:\n  grid") {
			t.Errorf("expected grid suggestion, got: %s", msg)
		}
		if strings.Contains(msg, "avif") {
			t.Errorf("unexpected suggestion avif in: %s", msg)
		}
		if !errors.Is(err, index.ErrFeatureNotFound) {
			t.Error("expected error to match index.ErrFeatureNotFound")
		}
	})

	t.Run("without suggestions", func(t *testing.T) {
		err := FormatFeatureNotFound("webgpu", nil)
		msg := err.Error()

		if strings.Contains(msg, "Did you mean") {
			t.Errorf("unexpected suggestions in: %s", msg)
		}
		if !strings.Contains(msg, "webfeatures query features") {
			t.Errorf("expected hint, got: %s", msg)
		}
	})
}
