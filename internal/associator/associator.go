// Package associator decides, for one directory, which features apply to
// which tests and which features continue on to subdirectories.
//
// The inheritance rule is a policy. Two are provided:
//
//	| Policy  | Directory with a declaration              | Without one            |
//	|---------|-------------------------------------------|------------------------|
//	| replace | inherited list dropped; "**" features     | inherited features     |
//	|         | start a new list                          | apply and propagate    |
//	| merge   | inherited features still apply; "**"      | same as replace        |
//	|         | features are appended to the list         |                        |
package associator

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/featuremap"
	"github.com/Quidge/webfeatures/internal/sourcefile"
)

// Associator records the features that apply to a directory's tests.
type Associator interface {
	// Associate adds zero or more entries to fm for tests, given the
	// directory's declaration (nil if it has none) and the features inherited
	// from the parent. It returns the features to pass to subdirectories.
	// The inherited slice is not modified.
	Associate(tests []sourcefile.SourceFile, decl *declaration.File, inherited []string, fm *featuremap.Map) ([]string, error)
}

// Replace is the default policy: a declaration fully supersedes inheritance.
type Replace struct{}

// Associate implements Associator.
func (Replace) Associate(tests []sourcefile.SourceFile, decl *declaration.File, inherited []string, fm *featuremap.Map) ([]string, error) {
	if decl == nil {
		applyInherited(tests, inherited, fm)
		return clone(inherited), nil
	}

	var next []string
	for _, feat := range decl.Features {
		if feat.Recursive() {
			next = appendUnique(next, feat.Name)
			fm.Add(feat.Name, identifiers(tests))
			continue
		}
		matched, err := match(tests, feat.Files)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", feat.Name, err)
		}
		fm.Add(feat.Name, identifiers(matched))
	}
	return next, nil
}

// Merge keeps inherited features in force below a declaration.
type Merge struct{}

// Associate implements Associator.
func (Merge) Associate(tests []sourcefile.SourceFile, decl *declaration.File, inherited []string, fm *featuremap.Map) ([]string, error) {
	applyInherited(tests, inherited, fm)
	next := clone(inherited)
	if decl == nil {
		return next, nil
	}

	for _, feat := range decl.Features {
		if feat.Recursive() {
			next = appendUnique(next, feat.Name)
			fm.Add(feat.Name, identifiers(tests))
			continue
		}
		matched, err := match(tests, feat.Files)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", feat.Name, err)
		}
		fm.Add(feat.Name, identifiers(matched))
	}
	return next, nil
}

func applyInherited(tests []sourcefile.SourceFile, inherited []string, fm *featuremap.Map) {
	ids := identifiers(tests)
	for _, feature := range inherited {
		fm.Add(feature, ids)
	}
}

// match returns the tests, in order, whose base name matches an include
// pattern and no exclude pattern.
func match(tests []sourcefile.SourceFile, spec declaration.FileSpec) ([]sourcefile.SourceFile, error) {
	includes := spec.Includes()
	excludes := spec.Excludes()

	var out []sourcefile.SourceFile
	for _, tf := range tests {
		base := path.Base(tf.RelPath)
		in, err := matchAny(includes, base)
		if err != nil {
			return nil, err
		}
		if !in {
			continue
		}
		ex, err := matchAny(excludes, base)
		if err != nil {
			return nil, err
		}
		if !ex {
			out = append(out, tf)
		}
	}
	return out, nil
}

func matchAny(patterns []string, name string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return false, fmt.Errorf("pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func identifiers(tests []sourcefile.SourceFile) []featuremap.Identifier {
	ids := make([]featuremap.Identifier, len(tests))
	for i, tf := range tests {
		ids[i] = tf
	}
	return ids
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
