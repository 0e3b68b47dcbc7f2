package merge

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"trainline.dev/trainline/internal/git"
	"trainline.dev/trainline/internal/tui"
)

const (
	tempBranchPrefix = "pr-merge-tmp-"
	// tempHeadBranch holds the fetched head of the pull request
	tempHeadBranch = tempBranchPrefix + "head"
)

// Strategy merges a pull request. Strategies own the working copy between
// Prepare and Cleanup; the caller restores the previous checkout.
type Strategy interface {
	// Prepare fetches what the merge needs
	Prepare(ctx context.Context, pr *PullRequest) error
	// Check fails when the strategy cannot merge the pull request
	Check(ctx context.Context, pr *PullRequest) error
	// Merge merges the pull request into all of its target branches
	Merge(ctx context.Context, pr *PullRequest) error
	// Cleanup removes temporary branches
	Cleanup(ctx context.Context, pr *PullRequest) error
}

// localTargetBranch is the local branch a target branch is fetched into
func localTargetBranch(branch string) string {
	return tempBranchPrefix + strings.ReplaceAll(branch, "/", "_")
}

// cascade fetches, cherry-picks and pushes into target branches
type cascade struct {
	git   *git.Client
	splog *tui.Splog
}

// fetchTargetBranches fetches target branches into their local temporary branches
func (c *cascade) fetchTargetBranches(ctx context.Context, branches []string, extra ...string) error {
	refspecs := make([]string, 0, len(branches)+len(extra))
	for _, b := range branches {
		refspecs = append(refspecs, fmt.Sprintf("refs/heads/%s:refs/heads/%s", b, localTargetBranch(b)))
	}
	refspecs = append(refspecs, extra...)
	if len(refspecs) == 0 {
		return nil
	}
	return c.git.Fetch(ctx, refspecs...)
}

// cherryPickIntoTargetBranches applies revisionRange to every branch. Branches
// it does not apply to cleanly are returned; their cherry-pick is aborted.
func (c *cascade) cherryPickIntoTargetBranches(ctx context.Context, revisionRange string, branches []string, linkToOriginal bool) ([]string, error) {
	var failed []string
	for _, branch := range branches {
		if err := c.git.ForceCheckout(ctx, localTargetBranch(branch)); err != nil {
			return nil, err
		}
		if err := c.git.CherryPick(ctx, revisionRange, linkToOriginal); err != nil {
			c.splog.Debug("Cherry-pick of %s into %s failed: %v", revisionRange, branch, err)
			if abortErr := c.git.CherryPickAbort(ctx); abortErr != nil {
				c.splog.Debug("Failed to abort cherry-pick: %v", abortErr)
			}
			failed = append(failed, branch)
			continue
		}
		c.splog.Debug("Cherry-picked %s into %s", revisionRange, branch)
	}
	return failed, nil
}

// pushTargetBranches pushes local temporary branches to their upstream branches
func (c *cascade) pushTargetBranches(ctx context.Context, branches []string) error {
	if len(branches) == 0 {
		return nil
	}
	refspecs := make([]string, len(branches))
	for i, b := range branches {
		refspecs[i] = fmt.Sprintf("refs/heads/%s:refs/heads/%s", localTargetBranch(b), b)
	}
	c.splog.Debug("Pushing %s", strings.Join(branches, ", "))
	return c.git.Push(ctx, refspecs...)
}

// cleanup deletes every temporary branch of a pull request
func (c *cascade) cleanup(ctx context.Context, pr *PullRequest) error {
	names := []string{tempHeadBranch}
	for _, b := range pr.TargetBranches {
		names = append(names, localTargetBranch(b))
	}
	return c.git.DeleteBranches(ctx, names...)
}

// without returns branches minus the excluded ones
func without(branches []string, excluded ...string) []string {
	var out []string
	for _, b := range branches {
		if !slices.Contains(excluded, b) {
			out = append(out, b)
		}
	}
	return out
}

// landedComment is posted once a pull request landed in every target branch
func landedComment(branches []string) string {
	var sb strings.Builder
	sb.WriteString("This PR was merged into the repository. The changes were merged into the following branches:\n\n")
	for _, b := range branches {
		sb.WriteString("- ")
		sb.WriteString(b)
		sb.WriteString("\n")
	}
	return sb.String()
}
