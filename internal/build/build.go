// Package build runs one manifest build: it wires the default collaborators
// into a walker, traverses the repository and publishes the result.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Quidge/webfeatures/internal/associator"
	"github.com/Quidge/webfeatures/internal/config"
	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/featuremap"
	"github.com/Quidge/webfeatures/internal/gitutil"
	"github.com/Quidge/webfeatures/internal/index"
	"github.com/Quidge/webfeatures/internal/manifest"
	"github.com/Quidge/webfeatures/internal/sourcefile"
	"github.com/Quidge/webfeatures/internal/walker"
)

// Options configures a build.
type Options struct {
	Config config.RunConfig
	Logger *log.Logger // May be nil
}

// Result describes a published build.
type Result struct {
	Features     int
	ManifestPath string
	// Build is the recorded index build, or nil when no index was written.
	Build *index.Build
}

// Run walks the repository described by opts and returns the feature map.
// Every call starts from a fresh map and visited set, so repeated builds in
// one process never share state.
func Run(ctx context.Context, opts Options) (*featuremap.Map, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg := opts.Config

	assoc, err := associator.Get(cfg.Inheritance)
	if err != nil {
		return nil, err
	}

	w := walker.New(declaration.Loader{}, sourcefile.Classifier{}, assoc)
	w.Logger = logger

	wcfg := walker.Config{
		RepoRoot: cfg.RepoRoot,
		URLBase:  cfg.URLBase,
		Exclude:  cfg.Exclude,
	}

	start := time.Now()
	fm := featuremap.New()
	if cfg.Jobs > 1 {
		err = w.WalkParallel(ctx, wcfg, fm, cfg.Jobs)
	} else {
		err = w.Walk(ctx, wcfg, "", fm, walker.NewVisitedSet(), nil)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("walked repository", "root", cfg.RepoRoot, "features", fm.Len(), "jobs", cfg.Jobs, "elapsed", time.Since(start).Round(time.Millisecond))
	return fm, nil
}

// Publish writes fm as the manifest and, when an index path is configured,
// replaces the index contents with it.
func Publish(fm *featuremap.Map, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg := opts.Config

	if err := manifest.Write(cfg.ManifestPath, manifest.New(fm, cfg.URLBase)); err != nil {
		return nil, err
	}
	logger.Debug("wrote manifest", "path", cfg.ManifestPath)

	result := &Result{Features: fm.Len(), ManifestPath: cfg.ManifestPath}
	if cfg.IndexPath == "" {
		return result, nil
	}

	revision, err := gitutil.HeadRevision(cfg.RepoRoot)
	if err != nil {
		if !errors.Is(err, gitutil.ErrNotGitRepo) && !errors.Is(err, gitutil.ErrNoCommits) {
			logger.Warn("could not determine revision", "err", err)
		}
		revision = ""
	}

	db, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	build, err := db.Replace(fm, index.BuildInfo{
		Version:  manifest.Version,
		RepoRoot: cfg.RepoRoot,
		URLBase:  cfg.URLBase,
		Revision: revision,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update index: %w", err)
	}
	logger.Debug("updated index", "path", cfg.IndexPath, "build", build.ID)

	result.Build = build
	return result, nil
}

// RunAndPublish builds the manifest and publishes it. Nothing is written when
// the walk fails.
func RunAndPublish(ctx context.Context, opts Options) (*Result, error) {
	fm, err := Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	return Publish(fm, opts)
}
