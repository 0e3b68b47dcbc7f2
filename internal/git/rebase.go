package git

import (
	"context"
	"os"
	"path/filepath"
)

// RebaseResult represents the result of a rebase operation
type RebaseResult int

const (
	// RebaseDone indicates the rebase was successful
	RebaseDone RebaseResult = iota
	// RebaseConflict indicates the rebase stopped on a conflict
	RebaseConflict
)

// Rebase rebases HEAD onto upstream. A rebase that stops on a conflict is
// reported as RebaseConflict and left in progress for the caller to abort;
// any other failure is returned as an error.
func (c *Client) Rebase(ctx context.Context, upstream string) (RebaseResult, error) {
	if _, err := c.runner.Run(ctx, "rebase", upstream); err != nil {
		if c.IsRebaseInProgress(ctx) {
			return RebaseConflict, nil
		}
		return RebaseDone, err
	}
	return RebaseDone, nil
}

// RebaseAutosquash runs a non-interactive autosquash rebase of branch onto base.
func (c *Client) RebaseAutosquash(ctx context.Context, base, branch string) error {
	_, err := c.runner.RunWithEnv(ctx, []string{"GIT_SEQUENCE_EDITOR=true", "GIT_EDITOR=true"},
		"rebase", "--interactive", "--autosquash", base, branch)
	return err
}

// RebaseAbort aborts an in-progress rebase
func (c *Client) RebaseAbort(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "rebase", "--abort")
	return err
}

// IsRebaseInProgress checks if a rebase is currently in progress
func (c *Client) IsRebaseInProgress(ctx context.Context) bool {
	gitDir, err := c.runner.Run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(c.runner.workingDir, gitDir)
	}

	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(gitDir, dir)); err == nil {
			return true
		}
	}
	return false
}
