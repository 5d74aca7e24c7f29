// Package gitutil provides utilities for git operations.
// It uses os/exec to call git commands rather than git libraries.
package gitutil

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrNotGitRepo is returned when the directory is not inside a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNoCommits is returned when the repository has no commits yet.
	ErrNoCommits = errors.New("repository has no commits")
)

// RepoRoot returns the root directory of the git repository containing dir.
// If dir is empty, the current working directory is used.
func RepoRoot(dir string) (string, error) {
	out, err := git(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", ErrNotGitRepo
		}
		return "", fmt.Errorf("failed to get repo root: %w", err)
	}
	return out, nil
}

// HeadRevision returns the full commit hash HEAD points to.
// Returns ErrNoCommits for a repository without commits and ErrNotGitRepo
// outside a work tree.
// If dir is empty, the current working directory is used.
func HeadRevision(dir string) (string, error) {
	out, err := git(dir, "rev-parse", "--verify", "-q", "HEAD")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if IsInsideWorkTree(dir) {
				return "", ErrNoCommits
			}
			return "", ErrNotGitRepo
		}
		return "", fmt.Errorf("failed to get HEAD revision: %w", err)
	}
	return out, nil
}

// IsInsideWorkTree returns true if dir is inside a git work tree.
// If dir is empty, the current working directory is used.
func IsInsideWorkTree(dir string) bool {
	out, err := git(dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return out == "true"
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
