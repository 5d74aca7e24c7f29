// Package walker traverses a test repository depth-first, feeding each
// directory's tests and declaration to an associator and carrying inherited
// features down the tree.
//
// Every directory is identified by its canonical absolute path (symlinks
// resolved). A directory whose identity was already seen during the build is
// skipped along with its subtree, which keeps symlink cycles finite and makes
// overlapping entry points harmless.
package walker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/featuremap"
	"github.com/Quidge/webfeatures/internal/pathutil"
	"github.com/Quidge/webfeatures/internal/sourcefile"
)

// Config is the immutable per-run input to a walk.
type Config struct {
	// RepoRoot is the absolute repository root.
	RepoRoot string
	// URLBase is the mount point handed to the classifier.
	URLBase string
	// Exclude holds doublestar patterns matched against "/"-separated
	// directory paths relative to RepoRoot. Matching directories are not
	// entered.
	Exclude []string
}

// DeclarationLoader loads the optional declaration of a directory.
type DeclarationLoader interface {
	Load(absDir string) (*declaration.File, error)
}

// Classifier turns the listing of root/relDir into source files. entries is
// the single listing the walker also recurses from, so files and
// subdirectories always describe the same state of the directory.
type Classifier interface {
	Classify(root, relDir, urlBase string, entries []os.DirEntry) ([]sourcefile.SourceFile, error)
}

// Associator records a directory's associations and returns the features to
// propagate to its subdirectories.
type Associator interface {
	Associate(tests []sourcefile.SourceFile, decl *declaration.File, inherited []string, fm *featuremap.Map) ([]string, error)
}

// Walker holds the collaborators used at every node.
type Walker struct {
	Loader     DeclarationLoader
	Classifier Classifier
	Associator Associator
	Logger     *log.Logger
}

// New returns a Walker with the given collaborators and a discarding logger.
func New(loader DeclarationLoader, classifier Classifier, assoc Associator) *Walker {
	return &Walker{
		Loader:     loader,
		Classifier: classifier,
		Associator: assoc,
		Logger:     log.New(io.Discard),
	}
}

// Walk processes relDir and every directory below it that has not been
// visited yet, adding associations to fm. visited must be shared by every
// Walk call of one build. inherited is the feature list active for relDir; it
// is never modified.
//
// A malformed declaration is returned unmodified. Any other failure is
// wrapped with the directory it occurred in. Either aborts the whole walk.
func (w *Walker) Walk(ctx context.Context, cfg Config, relDir string, fm *featuremap.Map, visited Visited, inherited []string) error {
	children, next, err := w.visit(ctx, cfg, relDir, fm, visited, inherited)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := w.Walk(ctx, cfg, child, fm, visited, next); err != nil {
			return err
		}
	}
	return nil
}

// visit processes a single directory. It returns the relative paths of the
// subdirectories to recurse into and the feature list to give them. A
// directory that was already visited yields no children.
func (w *Walker) visit(ctx context.Context, cfg Config, relDir string, fm *featuremap.Map, visited Visited, inherited []string) ([]string, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	absDir := filepath.Join(cfg.RepoRoot, relDir)
	id, err := pathutil.Canonical(absDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", absDir, err)
	}
	if !visited.Visit(id) {
		w.logger().Debug("skipping visited directory", "dir", displayRel(relDir), "resolved", id)
		return nil, nil, nil
	}

	local := make([]string, len(inherited))
	copy(local, inherited)

	decl, err := w.Loader.Load(absDir)
	if err != nil {
		return nil, nil, err
	}
	if decl != nil {
		w.logger().Debug("found declaration", "dir", displayRel(relDir), "features", len(decl.Features))
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", absDir, err)
	}

	files, err := w.Classifier.Classify(cfg.RepoRoot, relDir, cfg.URLBase, entries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to classify %s: %w", absDir, err)
	}
	tests := make([]sourcefile.SourceFile, 0, len(files))
	for _, f := range files {
		if f.IsTest() {
			tests = append(tests, f)
		}
	}

	next, err := w.Associator.Associate(tests, decl, local, fm)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to associate %s: %w", absDir, err)
	}
	w.logger().Debug("visited directory", "dir", displayRel(relDir), "tests", len(tests), "inherited", next)

	children, err := subdirs(cfg, relDir, entries)
	if err != nil {
		return nil, nil, err
	}
	return children, next, nil
}

// subdirs picks relDir's immediate subdirectories out of its listing, in
// listing order, including symlinks that resolve to directories and leaving
// out excluded ones.
func subdirs(cfg Config, relDir string, entries []os.DirEntry) ([]string, error) {
	absDir := filepath.Join(cfg.RepoRoot, relDir)

	var out []string
	for _, entry := range entries {
		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			// Dangling links are not directories.
			isDir = pathutil.ExistsAndIsDir(filepath.Join(absDir, entry.Name()))
		}
		if !isDir {
			continue
		}

		child := filepath.Join(relDir, entry.Name())
		excluded, err := isExcluded(cfg.Exclude, child)
		if err != nil {
			return nil, err
		}
		if !excluded {
			out = append(out, child)
		}
	}
	return out, nil
}

func isExcluded(patterns []string, relDir string) (bool, error) {
	slashed := filepath.ToSlash(relDir)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return false, fmt.Errorf("invalid exclude pattern %q", p)
		}
		ok, err := doublestar.Match(p, slashed)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

var discard = log.New(io.Discard)

func (w *Walker) logger() *log.Logger {
	if w.Logger == nil {
		return discard
	}
	return w.Logger
}

func displayRel(relDir string) string {
	if relDir == "" {
		return "."
	}
	return filepath.ToSlash(relDir)
}
