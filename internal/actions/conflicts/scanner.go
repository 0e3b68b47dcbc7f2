// Package conflicts predicts which open pull requests would start to
// conflict once a given pull request is merged.
package conflicts

import (
	"context"
	"fmt"
	"time"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/git"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/tui"
)

// tempWorkingBranch holds the requested pull request rebased onto its base
const tempWorkingBranch = "__TrainlineRepoBaseAfterChange__"

// mergeableConflicting is GitHub's mergeable state for pull requests that
// already conflict with their base
const mergeableConflicting = "CONFLICTING"

// Scanner simulates rebases of open pull requests onto a pull request
type Scanner struct {
	git      *git.Client
	wc       *git.WorkingCopy
	github   github.Client
	splog    *tui.Splog
	progress tui.ScanProgress
}

// NewScanner creates a scanner reporting progress through the runtime's logger
func NewScanner(rt *runtime.Context) *Scanner {
	return &Scanner{
		git:      rt.Git,
		wc:       rt.WorkingCopy,
		github:   rt.GitHub,
		splog:    rt.Splog,
		progress: tui.NewScanProgress(rt.Splog),
	}
}

// WithProgress replaces the progress reporter
func (s *Scanner) WithProgress(progress tui.ScanProgress) *Scanner {
	s.progress = progress
	return s
}

// DiscoverNewConflicts returns the open pull requests against the same base
// that merge cleanly today but would conflict once prNumber is merged. Only
// pull requests updated after updatedAfter are checked. The checked out
// branch or revision is restored on every exit.
func (s *Scanner) DiscoverNewConflicts(ctx context.Context, prNumber int, updatedAfter time.Time) (conflicting []github.PendingPullRequest, err error) {
	dirty, err := s.git.HasUncommittedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, trainerrors.ErrUncommittedChanges
	}

	checkpoint, err := s.wc.Checkpoint()
	if err != nil {
		return nil, err
	}
	defer func() {
		if s.git.IsRebaseInProgress(ctx) {
			_ = s.git.RebaseAbort(ctx)
		}
		if restoreErr := checkpoint.Restore(ctx); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore %s: %w", checkpoint.Ref(), restoreErr)
		}
		if deleteErr := s.git.DeleteBranches(ctx, tempWorkingBranch); deleteErr != nil {
			s.splog.Debug("Failed to delete %s: %v", tempWorkingBranch, deleteErr)
		}
	}()

	pending, err := s.github.ListPendingPullRequests(ctx)
	if err != nil {
		return nil, err
	}

	var requested *github.PendingPullRequest
	for i := range pending {
		if pending[i].Number == prNumber {
			requested = &pending[i]
			break
		}
	}
	if requested == nil {
		return nil, fmt.Errorf("requested pull request #%d is not open: %w", prNumber, trainerrors.ErrPullRequestNotFound)
	}

	var candidates []github.PendingPullRequest
	for _, pr := range pending {
		if pr.Number != prNumber &&
			pr.BaseRef == requested.BaseRef &&
			pr.Mergeable != mergeableConflicting &&
			pr.UpdatedAt.After(updatedAfter) {
			candidates = append(candidates, pr)
		}
	}
	s.splog.Info("%d pull requests to check against #%d", len(candidates), prNumber)

	if err := s.git.Fetch(ctx, pullHeadRef(prNumber)); err != nil {
		return nil, err
	}
	if err := s.git.CheckoutResetBranch(ctx, tempWorkingBranch, "FETCH_HEAD"); err != nil {
		return nil, err
	}
	if err := s.git.Fetch(ctx, "refs/heads/"+requested.BaseRef); err != nil {
		return nil, err
	}
	result, err := s.git.Rebase(ctx, "FETCH_HEAD")
	if err != nil {
		return nil, err
	}
	if result == git.RebaseConflict {
		return nil, fmt.Errorf("pull request #%d currently has conflicts with %s. Please resolve them before checking for new conflicts",
			prNumber, requested.BaseRef)
	}

	s.progress.Start(len(candidates))
	defer s.progress.Finish()
	for i, pr := range candidates {
		s.progress.Step(i, fmt.Sprintf("#%d %s", pr.Number, pr.Title))
		if err := s.git.Fetch(ctx, pullHeadRef(pr.Number)); err != nil {
			return nil, err
		}
		if err := s.git.CheckoutDetached(ctx, "FETCH_HEAD"); err != nil {
			return nil, err
		}
		result, err := s.git.Rebase(ctx, tempWorkingBranch)
		if err != nil {
			return nil, err
		}
		if result == git.RebaseConflict {
			conflicting = append(conflicting, pr)
		}
		if s.git.IsRebaseInProgress(ctx) {
			if err := s.git.RebaseAbort(ctx); err != nil {
				return nil, err
			}
		}
	}
	return conflicting, nil
}

func pullHeadRef(number int) string {
	return fmt.Sprintf("refs/pull/%d/head", number)
}
