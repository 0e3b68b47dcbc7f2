package git

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// WorkingCopy is the local clone the tool operates on. Every flow that
// switches branches takes a Checkpoint first and restores it on exit.
type WorkingCopy struct {
	repo   *git.Repository
	path   string
	client *Client
}

// OpenWorkingCopy opens the git repository containing path
func OpenWorkingCopy(path string, client *Client) (*WorkingCopy, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &WorkingCopy{repo: repo, path: absPath, client: client}, nil
}

// Root returns the top-level directory of the working copy
func (w *WorkingCopy) Root() (string, error) {
	wt, err := w.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// CurrentBranchOrRevision returns the checked out branch name, or the HEAD
// commit SHA when HEAD is detached.
func (w *WorkingCopy) CurrentBranchOrRevision() (string, error) {
	head, err := w.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}

// IsShallow reports whether the clone has shallow boundaries.
func (w *WorkingCopy) IsShallow() (bool, error) {
	shallow, err := w.repo.Storer.Shallow()
	if err != nil {
		return false, fmt.Errorf("failed to read shallow info: %w", err)
	}
	return len(shallow) > 0, nil
}

// OriginURL returns the first URL configured for the origin remote.
func (w *WorkingCopy) OriginURL() (string, error) {
	remote, err := w.repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("failed to read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}
	return urls[0], nil
}

// Checkpoint records the current branch or revision of a working copy.
type Checkpoint struct {
	ref    string
	client *Client
}

// Checkpoint records where HEAD currently points.
func (w *WorkingCopy) Checkpoint() (*Checkpoint, error) {
	ref, err := w.CurrentBranchOrRevision()
	if err != nil {
		return nil, err
	}
	return &Checkpoint{ref: ref, client: w.client}, nil
}

// Ref returns the recorded branch name or revision
func (c *Checkpoint) Ref() string {
	return c.ref
}

// Restore force-checks out the recorded branch or revision.
func (c *Checkpoint) Restore(ctx context.Context) error {
	return c.client.ForceCheckout(ctx, c.ref)
}
