package merge

import (
	"context"
	"fmt"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
)

// AutosquashStrategy squashes fixup commits of the pull request locally,
// tags every commit with a "PR Close" line and cherry-picks the commits into
// every target branch
type AutosquashStrategy struct {
	cascade
	github     github.Client
	mainBranch string
}

var _ Strategy = (*AutosquashStrategy)(nil)

// NewAutosquashStrategy creates an autosquash strategy
func NewAutosquashStrategy(rt *runtime.Context) *AutosquashStrategy {
	return &AutosquashStrategy{
		cascade:    cascade{git: rt.Git, splog: rt.Splog},
		github:     rt.GitHub,
		mainBranch: rt.Config.GitHub.MainBranchName,
	}
}

// Prepare fetches the pull request head and every target branch
func (s *AutosquashStrategy) Prepare(ctx context.Context, pr *PullRequest) error {
	head := fmt.Sprintf("refs/pull/%d/head:refs/heads/%s", pr.Number, tempHeadBranch)
	return s.fetchTargetBranches(ctx, pr.TargetBranches, head)
}

// Check fails when the base of the pull request is unknown
func (s *AutosquashStrategy) Check(_ context.Context, pr *PullRequest) error {
	if pr.BaseSHA == "" {
		return trainerrors.NewFatalMergeToolError(
			fmt.Sprintf("unable to determine the base revision of pull request #%d", pr.Number), nil)
	}
	return nil
}

// Merge rebases the pull request head with autosquash and applies the
// result to every target branch
func (s *AutosquashStrategy) Merge(ctx context.Context, pr *PullRequest) error {
	if err := s.git.RebaseAutosquash(ctx, pr.BaseSHA, tempHeadBranch); err != nil {
		if abortErr := s.git.RebaseAbort(ctx); abortErr != nil {
			s.splog.Debug("Failed to abort rebase: %v", abortErr)
		}
		return trainerrors.NewFatalMergeToolError("failed to autosquash the pull request commits", err)
	}

	revisionRange := fmt.Sprintf("%s..%s", pr.BaseSHA, tempHeadBranch)
	msgFilter := fmt.Sprintf(`cat && printf '\nPR Close #%d\n'`, pr.Number)
	if err := s.git.FilterBranchMessages(ctx, msgFilter, revisionRange); err != nil {
		return trainerrors.NewFatalMergeToolError("failed to add the PR Close line to commit messages", err)
	}

	failed, err := s.cherryPickIntoTargetBranches(ctx, revisionRange, pr.TargetBranches, false)
	if err != nil {
		return err
	}
	if err := s.pushTargetBranches(ctx, without(pr.TargetBranches, failed...)); err != nil {
		return err
	}
	if len(failed) > 0 {
		return trainerrors.NewMergeConflictsFatalError(failed)
	}

	// Pushing to a branch other than the default branch does not close the
	// pull request through the "PR Close" line.
	if pr.GithubTargetBranch != s.mainBranch {
		if err := s.github.CreateComment(ctx, pr.Number, landedComment(pr.TargetBranches)); err != nil {
			return err
		}
		if err := s.github.ClosePullRequest(ctx, pr.Number); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup deletes the temporary branches and the backup ref left by filter-branch
func (s *AutosquashStrategy) Cleanup(ctx context.Context, pr *PullRequest) error {
	if err := s.cleanup(ctx, pr); err != nil {
		return err
	}
	return s.git.DeleteRefs(ctx, "refs/original/refs/heads/"+tempHeadBranch)
}
