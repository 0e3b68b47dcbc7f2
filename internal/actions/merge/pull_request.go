package merge

import (
	"fmt"
	"slices"
	"strings"

	"trainline.dev/trainline/internal/commit"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/targeting"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/internal/validation"
)

// PullRequest is a pull request prepared for merging
type PullRequest struct {
	Number int
	Title  string
	URL    string
	Author string
	Labels []string
	// GithubTargetBranch is the branch the pull request was opened against
	GithubTargetBranch string
	// TargetBranches lists every branch the pull request lands in, starting
	// with GithubTargetBranch
	TargetBranches          []string
	TargetLabel             targeting.TargetLabel
	CommitCount             int
	Commits                 []github.CommitInfo
	BaseSHA                 string
	HeadSHA                 string
	NeedsCommitMessageFixup bool
	HasCaretakerNote        bool
	MaintainerCanModify     bool
	ValidationFailures      []validation.Failure
}

// LTSCheckerFor returns the LTS checker of a runtime, or nil when no
// release configuration is present
func LTSCheckerFor(rt *runtime.Context) *targeting.LTSChecker {
	if rt.Config.Release == nil || rt.Registry == nil {
		return nil
	}
	return &targeting.LTSChecker{
		Repo:     rt.VersionBranches(),
		Registry: rt.Registry,
		Package:  rt.Config.Release.RepresentativeNpmPackage,
		Prompter: rt.Prompter,
		Splog:    rt.Splog,
	}
}

// TargetBranches resolves the branches a pull request lands in
func TargetBranches(rt *runtime.Context, pr *github.PullRequestInfo) (*trains.ActiveReleaseTrains, []string, targeting.TargetLabel, error) {
	active, err := rt.FetchActiveReleaseTrains()
	if err != nil {
		return nil, nil, 0, err
	}
	branches, label, err := targeting.TargetBranchesAndLabelForPullRequest(rt, active, pr.Labels, pr.BaseRef, LTSCheckerFor(rt))
	if err != nil {
		return nil, nil, 0, err
	}
	if !slices.Contains(branches, pr.BaseRef) {
		return nil, nil, 0, trainerrors.NewInvalidTargetBranchError(
			"pull request is opened against %s, which is not one of the branches for %q: %s",
			pr.BaseRef, label.Name(), strings.Join(branches, ", "))
	}
	return active, orderTargetBranches(branches, pr.BaseRef), label, nil
}

// orderTargetBranches moves the GitHub target branch to the front
func orderTargetBranches(branches []string, githubTargetBranch string) []string {
	ordered := []string{githubTargetBranch}
	for _, b := range branches {
		if b != githubTargetBranch {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// LoadAndValidatePullRequest fetches a pull request, resolves its target
// branches and runs the enabled validations. Target resolution errors are
// returned directly; validation failures are collected on the result.
func LoadAndValidatePullRequest(rt *runtime.Context, number int) (*PullRequest, error) {
	info, err := rt.GitHub.GetPullRequest(rt, number)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("pull request #%d: %w", number, trainerrors.ErrPullRequestNotFound)
	}

	commits, err := rt.GitHub.ListPullRequestCommits(rt, number)
	if err != nil {
		return nil, err
	}

	active, branches, label, err := TargetBranches(rt, info)
	if err != nil {
		return nil, err
	}

	cfg := rt.Config.PullRequest
	parsed := make([]commit.Commit, len(commits))
	for i, c := range commits {
		parsed[i] = commit.Parse(c.Message)
	}

	checks := github.ChecksNone
	if cfg.ValidatorEnabled(validation.NameAssertPassingCi) {
		checks, err = rt.GitHub.GetChecksStatus(rt, info.HeadSHA)
		if err != nil {
			return nil, err
		}
	}

	pr := &PullRequest{
		Number:                  info.Number,
		Title:                   info.Title,
		URL:                     info.HTMLURL,
		Author:                  info.Author,
		Labels:                  info.Labels,
		GithubTargetBranch:      info.BaseRef,
		TargetBranches:          branches,
		TargetLabel:             label,
		CommitCount:             len(commits),
		Commits:                 commits,
		HeadSHA:                 info.HeadSHA,
		NeedsCommitMessageFixup: slices.Contains(info.Labels, cfg.CommitMessageFixupLabel),
		HasCaretakerNote:        slices.Contains(info.Labels, cfg.CaretakerNoteLabel),
		MaintainerCanModify:     info.MaintainerCanModify,
		ValidationFailures: validation.Run(validation.Input{
			PullRequest: info,
			Commits:     parsed,
			TargetLabel: label,
			Active:      active,
			Config:      cfg,
			Checks:      checks,
			Splog:       rt.Splog,
		}),
	}
	if len(commits) > 0 && len(commits[0].ParentSHAs) > 0 {
		pr.BaseSHA = commits[0].ParentSHAs[0]
	}
	return pr, nil
}
