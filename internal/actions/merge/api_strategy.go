package merge

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"trainline.dev/trainline/internal/commit"
	"trainline.dev/trainline/internal/config"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/tui"
)

const commitHeaderSeparator = "\n\n"

// GithubAPIStrategy merges through the GitHub merge endpoint and
// cherry-picks the resulting commits into the remaining target branches
type GithubAPIStrategy struct {
	cascade
	github   github.Client
	config   *config.GithubAPIMergeConfig
	prompter tui.Prompter
}

var _ Strategy = (*GithubAPIStrategy)(nil)

// NewGithubAPIStrategy creates a GitHub API strategy
func NewGithubAPIStrategy(rt *runtime.Context) *GithubAPIStrategy {
	return &GithubAPIStrategy{
		cascade:  cascade{git: rt.Git, splog: rt.Splog},
		github:   rt.GitHub,
		config:   rt.Config.PullRequest.GithubAPIMerge,
		prompter: rt.Prompter,
	}
}

// Prepare fetches the target branches other than the GitHub target branch,
// which is fetched after the merge
func (s *GithubAPIStrategy) Prepare(ctx context.Context, pr *PullRequest) error {
	return s.fetchTargetBranches(ctx, without(pr.TargetBranches, pr.GithubTargetBranch))
}

// Check fails for commit message fixups that cannot be applied
func (s *GithubAPIStrategy) Check(_ context.Context, pr *PullRequest) error {
	method, err := s.mergeMethod(pr.Labels)
	if err != nil {
		return err
	}
	if pr.NeedsCommitMessageFixup && method != github.MergeMethodSquash {
		return trainerrors.NewFatalMergeToolError(
			"unable to fixup commit message of pull request. Commit message can only be modified if the PR is merged using squash", nil)
	}
	return nil
}

// Merge merges the pull request into its GitHub target branch and cherry-picks
// the merged commits into the remaining target branches
func (s *GithubAPIStrategy) Merge(ctx context.Context, pr *PullRequest) error {
	method, err := s.mergeMethod(pr.Labels)
	if err != nil {
		return err
	}
	opts := github.MergeOptions{Method: method}
	if pr.NeedsCommitMessageFixup {
		if err := s.promptCommitMessageEdit(pr, &opts); err != nil {
			return err
		}
	}

	result, err := s.github.MergePullRequest(ctx, pr.Number, opts)
	if err != nil {
		return trainerrors.NewFatalMergeToolError(fmt.Sprintf("failed to merge pull request #%d", pr.Number), err)
	}
	switch result.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		// GitHub answers 404 instead of 403 to not leak the existence of private repositories.
		return trainerrors.NewFatalMergeToolError(
			"insufficient GitHub API permissions to merge pull request. Please ensure that your auth token has write access", nil)
	case http.StatusMethodNotAllowed:
		return trainerrors.NewMergeConflictsFatalError([]string{pr.GithubTargetBranch})
	default:
		return trainerrors.NewFatalMergeToolError(
			fmt.Sprintf("unexpected merge status code: %d: %s", result.StatusCode, result.Message), nil)
	}
	s.splog.Debug("Merged #%d into %s as %s", pr.Number, pr.GithubTargetBranch, result.SHA)

	remaining := without(pr.TargetBranches, pr.GithubTargetBranch)
	if len(remaining) > 0 {
		// The merge created commits upstream that the local clone does not know yet.
		if err := s.fetchTargetBranches(ctx, []string{pr.GithubTargetBranch}); err != nil {
			return err
		}
		count := pr.CommitCount
		if method == github.MergeMethodSquash {
			count = 1
		}
		revisionRange := fmt.Sprintf("%s~%d..%s", result.SHA, count, result.SHA)

		failed, err := s.cherryPickIntoTargetBranches(ctx, revisionRange, remaining, true)
		if err != nil {
			return err
		}
		if err := s.pushTargetBranches(ctx, without(remaining, failed...)); err != nil {
			return err
		}
		if len(failed) > 0 {
			return trainerrors.NewMergeConflictsFatalError(failed)
		}
	}

	if err := s.github.CreateComment(ctx, pr.Number, landedComment(pr.TargetBranches)); err != nil {
		s.splog.Warn("Failed to comment on pull request #%d: %v", pr.Number, err)
	}
	return nil
}

// Cleanup deletes the temporary branches
func (s *GithubAPIStrategy) Cleanup(ctx context.Context, pr *PullRequest) error {
	return s.cleanup(ctx, pr)
}

// mergeMethod returns the method of the first label pattern matching a label
// of the pull request, or the default method
func (s *GithubAPIStrategy) mergeMethod(labels []string) (github.MergeMethod, error) {
	for _, l := range s.config.Labels {
		re, err := l.Regexp()
		if err != nil {
			return "", err
		}
		if slices.ContainsFunc(labels, re.MatchString) {
			return l.Method, nil
		}
	}
	if s.config.Default == "" {
		return github.MergeMethodSquash, nil
	}
	return s.config.Default, nil
}

// promptCommitMessageEdit lets the operator edit the squash commit message.
// The first paragraph becomes the commit title.
func (s *GithubAPIStrategy) promptCommitMessageEdit(pr *PullRequest, opts *github.MergeOptions) error {
	edited, err := s.prompter.Editor("Please update the commit message", defaultSquashCommitMessage(pr))
	if err != nil {
		return err
	}
	title, message, _ := strings.Cut(strings.TrimSpace(edited), commitHeaderSeparator)
	opts.CommitTitle = fmt.Sprintf("%s (#%d)", title, pr.Number)
	opts.CommitMessage = message
	return nil
}

// defaultSquashCommitMessage is the pull request title followed by the body of
// its only commit, or by every commit message as a list
func defaultSquashCommitMessage(pr *PullRequest) string {
	base := pr.Title + commitHeaderSeparator
	switch len(pr.Commits) {
	case 0:
		return base
	case 1:
		return base + commit.Parse(pr.Commits[0].Message).Body
	}
	items := make([]string, len(pr.Commits))
	for i, c := range pr.Commits {
		items[i] = "* " + strings.TrimSpace(c.Message)
	}
	return base + strings.Join(items, commitHeaderSeparator)
}
