package git

import (
	"context"
	"fmt"
	"strings"
)

// Client runs git commands against the local working copy and a single
// upstream repository addressed by URL.
type Client struct {
	runner    *CommandRunner
	remoteURL string
}

// NewClient creates a Client for the working copy in dir. The token, if set,
// is masked out of every error message.
func NewClient(dir, remoteURL, token string) *Client {
	return &Client{
		runner:    &CommandRunner{workingDir: dir, secret: token},
		remoteURL: remoteURL,
	}
}

// Fetch fetches the given refspecs from upstream, forcibly updating local refs.
func (c *Client) Fetch(ctx context.Context, refspecs ...string) error {
	args := append([]string{"fetch", "-q", "-f", c.remoteURL}, refspecs...)
	if _, err := c.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", strings.Join(refspecs, " "), err)
	}
	return nil
}

// Checkout checks out a branch or revision
func (c *Client) Checkout(ctx context.Context, ref string) error {
	if _, err := c.runner.Run(ctx, "checkout", "-q", ref); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", ref, err)
	}
	return nil
}

// ForceCheckout checks out a branch or revision, discarding local modifications
func (c *Client) ForceCheckout(ctx context.Context, ref string) error {
	if _, err := c.runner.Run(ctx, "checkout", "-q", "-f", ref); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", ref, err)
	}
	return nil
}

// CheckoutDetached checks out a revision in detached HEAD state
func (c *Client) CheckoutDetached(ctx context.Context, revision string) error {
	if _, err := c.runner.Run(ctx, "checkout", "-q", "--detach", revision); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", revision, err)
	}
	return nil
}

// CheckoutNewBranch creates a branch at start and checks it out. It fails if the branch exists.
func (c *Client) CheckoutNewBranch(ctx context.Context, name, start string) error {
	if _, err := c.runner.Run(ctx, "checkout", "-q", "-b", name, start); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// CheckoutResetBranch creates or resets a branch to start and checks it out.
func (c *Client) CheckoutResetBranch(ctx context.Context, name, start string) error {
	if _, err := c.runner.Run(ctx, "checkout", "-q", "-B", name, start); err != nil {
		return fmt.Errorf("failed to reset branch %s: %w", name, err)
	}
	return nil
}

// CherryPick applies a revision range onto HEAD. With linkToOriginal the
// picked commits carry a "cherry picked from" trailer.
func (c *Client) CherryPick(ctx context.Context, revisionRange string, linkToOriginal bool) error {
	args := []string{"cherry-pick"}
	if linkToOriginal {
		args = append(args, "-x")
	}
	args = append(args, revisionRange)
	_, err := c.runner.Run(ctx, args...)
	return err
}

// CherryPickAbort aborts an in-progress cherry-pick.
func (c *Client) CherryPickAbort(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "cherry-pick", "--abort")
	return err
}

// FilterBranchMessages rewrites the messages of the commits in revisionRange with msgFilter.
func (c *Client) FilterBranchMessages(ctx context.Context, msgFilter, revisionRange string) error {
	_, err := c.runner.RunWithEnv(ctx, []string{"FILTER_BRANCH_SQUELCH_WARNING=1"},
		"filter-branch", "-f", "--msg-filter", msgFilter, revisionRange)
	if err != nil {
		return fmt.Errorf("failed to rewrite commit messages: %w", err)
	}
	return nil
}

// Push pushes refspecs to upstream atomically.
func (c *Client) Push(ctx context.Context, refspecs ...string) error {
	args := append([]string{"push", "-q", "--atomic", c.remoteURL}, refspecs...)
	if _, err := c.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to push %s: %w", strings.Join(refspecs, " "), err)
	}
	return nil
}

// RevParse resolves a revision to its SHA
func (c *Client) RevParse(ctx context.Context, rev string) (string, error) {
	return c.runner.Run(ctx, "rev-parse", rev)
}

// HasUncommittedChanges reports whether tracked files have staged or unstaged changes.
func (c *Client) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := c.runner.Run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// BranchExists reports whether a local branch exists.
func (c *Client) BranchExists(ctx context.Context, name string) bool {
	_, err := c.runner.Run(ctx, "rev-parse", "--verify", "-q", "refs/heads/"+name)
	return err == nil
}

// DeleteBranches force-deletes the local branches that exist.
func (c *Client) DeleteBranches(ctx context.Context, names ...string) error {
	var existing []string
	for _, name := range names {
		if c.BranchExists(ctx, name) {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	_, err := c.runner.Run(ctx, append([]string{"branch", "-D"}, existing...)...)
	return err
}

// DeleteRefs deletes the given refs, skipping the ones that do not exist.
func (c *Client) DeleteRefs(ctx context.Context, refs ...string) error {
	for _, ref := range refs {
		if _, err := c.runner.Run(ctx, "rev-parse", "--verify", "-q", ref); err != nil {
			continue
		}
		if _, err := c.runner.Run(ctx, "update-ref", "-d", ref); err != nil {
			return err
		}
	}
	return nil
}

// CommitFiles stages the given paths and commits them.
func (c *Client) CommitFiles(ctx context.Context, message string, paths ...string) error {
	if _, err := c.runner.Run(ctx, append([]string{"add", "--"}, paths...)...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	if _, err := c.runner.Run(ctx, "commit", "-q", "--no-verify", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
