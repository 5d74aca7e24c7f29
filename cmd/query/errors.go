package query

import (
	"fmt"
	"strings"

	"github.com/Quidge/webfeatures/internal/index"
)

// maxSuggestions caps the names listed by FormatFeatureNotFound.
const maxSuggestions = 5

// featureNotFoundError is a lookup miss with similarly named features.
type featureNotFoundError struct {
	feature     string
	suggestions []string
}

func (e *featureNotFoundError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("feature %q is not in the index", e.feature))
	if len(e.suggestions) == 0 {
		sb.WriteString(" (list features with \"webfeatures query features\")")
		return sb.String()
	}

	sb.WriteString("\n\nDid you mean:\n")
	for _, s := range e.suggestions {
		sb.WriteString(fmt.Sprintf("  %s\n", s))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (e *featureNotFoundError) Unwrap() error {
	return index.ErrFeatureNotFound
}

// FormatFeatureNotFound formats a lookup miss into an error that lists
// indexed features with a similar name. The result matches
// index.ErrFeatureNotFound under errors.Is.
func FormatFeatureNotFound(feature string, known []index.FeatureSummary) error {
	return &featureNotFoundError{
		feature:     feature,
		suggestions: similarFeatures(feature, known),
	}
}

// similarFeatures returns known names that contain feature, or that feature
// contains, ignoring case. Manifest order is kept.
func similarFeatures(feature string, known []index.FeatureSummary) []string {
	needle := strings.ToLower(feature)
	if needle == "" {
		return nil
	}

	var out []string
	for _, k := range known {
		name := strings.ToLower(k.Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			out = append(out, k.Name)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}
