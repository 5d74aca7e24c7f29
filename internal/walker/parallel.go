package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Quidge/webfeatures/internal/featuremap"
	"github.com/Quidge/webfeatures/internal/pathutil"
)

// WalkParallel walks the whole repository with up to jobs goroutines and
// produces the same map as a serial Walk from the root.
//
// A serial discovery pass first lists directories only and assigns every
// directory identity to the top-level partition a serial walk would reach it
// from. The root directory is then processed, and each of its subdirectories
// is walked as a partition into its own map, entering only the directories it
// owns. Partition maps are merged into fm in listing order once all
// partitions finish. The first failure cancels the remaining partitions.
func (w *Walker) WalkParallel(ctx context.Context, cfg Config, fm *featuremap.Map, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	owners, err := plan(ctx, cfg)
	if err != nil {
		return err
	}

	partitions, next, err := w.visit(ctx, cfg, "", fm, owners.partition(""), nil)
	if err != nil {
		return err
	}

	maps := make([]*featuremap.Map, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, rel := range partitions {
		maps[i] = featuremap.New()
		g.Go(func() error {
			return w.Walk(gctx, cfg, rel, maps[i], owners.partition(rel), next)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, m := range maps {
		fm.Merge(m)
	}
	w.logger().Debug("merged partitions", "partitions", len(partitions), "directories", len(owners))
	return nil
}

// ownership maps a directory identity to the top-level partition that owns
// it. The root directory is owned by the partition "".
type ownership map[string]string

// plan discovers every directory reachable from the repository root in serial
// depth-first order and records which partition reaches it first.
func plan(ctx context.Context, cfg Config) (ownership, error) {
	owners := make(ownership)
	rootID, err := pathutil.Canonical(cfg.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.RepoRoot, err)
	}
	owners[rootID] = ""

	partitions, err := listSubdirs(cfg, "")
	if err != nil {
		return nil, err
	}
	for _, rel := range partitions {
		if err := owners.claim(ctx, cfg, rel, rel); err != nil {
			return nil, err
		}
	}
	return owners, nil
}

// claim assigns relDir and its unclaimed subtree to partition.
func (o ownership) claim(ctx context.Context, cfg Config, relDir, partition string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absDir := filepath.Join(cfg.RepoRoot, relDir)
	id, err := pathutil.Canonical(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", absDir, err)
	}
	if _, ok := o[id]; ok {
		return nil
	}
	o[id] = partition

	children, err := listSubdirs(cfg, relDir)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := o.claim(ctx, cfg, child, partition); err != nil {
			return err
		}
	}
	return nil
}

// partition returns the Visited used while walking the named partition. It
// admits each directory the partition owns once and nothing else.
// Directories created after planning are not owned by anyone and are skipped.
func (o ownership) partition(name string) Visited {
	return &plannedVisited{owners: o, name: name, seen: NewVisitedSet()}
}

type plannedVisited struct {
	owners ownership
	name   string
	seen   VisitedSet
}

func (v *plannedVisited) Visit(id string) bool {
	if owner, ok := v.owners[id]; !ok || owner != v.name {
		return false
	}
	return v.seen.Visit(id)
}

func listSubdirs(cfg Config, relDir string) ([]string, error) {
	absDir := filepath.Join(cfg.RepoRoot, relDir)
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", absDir, err)
	}
	return subdirs(cfg, relDir, entries)
}
