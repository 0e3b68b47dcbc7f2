// Package checkout checks out pull requests locally, either to amend them in
// place, to take them over on a new branch, or to replay them onto another
// target branch.
package checkout

import (
	"fmt"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/tui"
)

// Options select the checkout flow
type Options struct {
	// Takeover checks the pull request out on a new local branch
	Takeover bool
	// Target replays the pull request commits onto this branch
	Target string
	// AllowIfMaintainerCannotModify skips the maintainer access prompt
	AllowIfMaintainerCannotModify bool
}

// Result describes what was checked out
type Result struct {
	// Branch is empty when HEAD is detached
	Branch   string
	Revision string
	// PushCommand pushes local amendments back to the pull request
	PushCommand string
}

// TakeoverBranch is the local branch a taken over pull request is checked out on
func TakeoverBranch(prNumber int) string {
	return fmt.Sprintf("pr-takeover-%d", prNumber)
}

// TargetBranch is the local branch a pull request is replayed on for target
func TargetBranch(target string, prNumber int) string {
	return fmt.Sprintf("pr-%s-%d", target, prNumber)
}

// Checkout checks out a pull request. Any failure restores the previously
// checked out branch or revision; success leaves the new checkout in place.
func Checkout(rt *runtime.Context, prNumber int, opts Options) (result *Result, err error) {
	splog := rt.Splog

	dirty, err := rt.Git.HasUncommittedChanges(rt)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, trainerrors.ErrUncommittedChanges
	}

	pr, err := rt.GitHub.GetPullRequest(rt, prNumber)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, fmt.Errorf("pull request #%d: %w", prNumber, trainerrors.ErrPullRequestNotFound)
	}

	checkpoint, err := rt.WorkingCopy.Checkpoint()
	if err != nil {
		return nil, err
	}
	// created is the local branch this checkout made, removed again on failure
	var created string
	defer func() {
		if err == nil {
			return
		}
		if restoreErr := checkpoint.Restore(rt); restoreErr != nil {
			splog.Warn("Failed to restore %s: %v", checkpoint.Ref(), restoreErr)
			return
		}
		if created != "" {
			if deleteErr := rt.Git.DeleteBranches(rt, created); deleteErr != nil {
				splog.Debug("Failed to delete %s: %v", created, deleteErr)
			}
		}
	}()

	if err := rt.Git.Fetch(rt, fmt.Sprintf("refs/pull/%d/head", prNumber)); err != nil {
		return nil, err
	}
	headSHA, err := rt.Git.RevParse(rt, "FETCH_HEAD")
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Target != "":
		if branch := TargetBranch(opts.Target, prNumber); !rt.Git.BranchExists(rt, branch) {
			created = branch
		}
		result, err = checkoutForTarget(rt, pr, headSHA, opts.Target)
	case opts.Takeover:
		result, err = takeover(rt, pr, headSHA)
	default:
		result, err = checkoutInPlace(rt, pr, headSHA, opts)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkoutInPlace(rt *runtime.Context, pr *github.PullRequestInfo, headSHA string, opts Options) (*Result, error) {
	splog := rt.Splog
	if pr.HeadRepoURL == "" {
		return nil, fmt.Errorf("the source repository of pull request #%d no longer exists", pr.Number)
	}
	if !pr.MaintainerCanModify && !opts.AllowIfMaintainerCannotModify {
		splog.Warn("Pull request #%d does not allow maintainers to push to its branch.", pr.Number)
		ok, err := rt.Prompter.Confirm("Do you want to check it out anyway?", false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, trainerrors.ErrUserAborted
		}
	}

	if err := rt.Git.CheckoutDetached(rt, headSHA); err != nil {
		return nil, err
	}

	push := fmt.Sprintf("git push %s HEAD:%s", pr.HeadRepoURL, pr.HeadRef)
	splog.Success("Checked out pull request #%d at %s", pr.Number, shortSHA(headSHA))
	splog.Newline()
	splog.Info("Push amendments back to the pull request with:")
	splog.Info("  %s", tui.Cyan(push))
	splog.Tip("Add -f if the history was rewritten.")
	return &Result{Revision: headSHA, PushCommand: push}, nil
}

func takeover(rt *runtime.Context, pr *github.PullRequestInfo, headSHA string) (*Result, error) {
	branch := TakeoverBranch(pr.Number)
	if rt.Git.BranchExists(rt, branch) {
		return nil, fmt.Errorf("branch %s already exists; delete it to take over pull request #%d again", branch, pr.Number)
	}
	if err := rt.Git.CheckoutNewBranch(rt, branch, headSHA); err != nil {
		return nil, err
	}

	rt.Splog.Success("Checked out pull request #%d on %s", pr.Number, branch)
	rt.Splog.Tip("Open a new pull request from this branch to replace #%d, then close the original.", pr.Number)
	return &Result{Branch: branch, Revision: headSHA}, nil
}

func checkoutForTarget(rt *runtime.Context, pr *github.PullRequestInfo, headSHA, target string) (*Result, error) {
	commits, err := rt.GitHub.ListPullRequestCommits(rt, pr.Number)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 || len(commits[0].ParentSHAs) == 0 {
		return nil, fmt.Errorf("unable to determine the base of pull request #%d", pr.Number)
	}
	baseSHA := commits[0].ParentSHAs[0]

	branch := TargetBranch(target, pr.Number)
	if err := rt.Git.Fetch(rt, "refs/heads/"+target); err != nil {
		return nil, err
	}
	if err := rt.Git.CheckoutResetBranch(rt, branch, "FETCH_HEAD"); err != nil {
		return nil, err
	}

	revisionRange := baseSHA + ".." + headSHA
	if err := rt.Git.CherryPick(rt, revisionRange, false); err != nil {
		if abortErr := rt.Git.CherryPickAbort(rt); abortErr != nil {
			rt.Splog.Debug("Failed to abort cherry-pick: %v", abortErr)
		}
		return nil, fmt.Errorf("pull request #%d does not apply cleanly to %s: %w", pr.Number, target, err)
	}

	revision, err := rt.Git.RevParse(rt, "HEAD")
	if err != nil {
		return nil, err
	}
	rt.Splog.Success("Checked out pull request #%d onto %s as %s", pr.Number, target, branch)
	return &Result{Branch: branch, Revision: revision}, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
