// Package validation checks whether a pull request may be merged into the
// branches its target label resolves to.
package validation

import (
	"fmt"
	"slices"

	"trainline.dev/trainline/internal/commit"
	"trainline.dev/trainline/internal/config"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/targeting"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/internal/tui"
)

// Validation names, as used in the pullRequest.validators configuration
const (
	NameAssertPending                    = "assertPending"
	NameAssertNotDraft                   = "assertNotDraft"
	NameAssertMergeReady                 = "assertMergeReady"
	NameAssertPassingCi                  = "assertPassingCi"
	NameAssertChangesAllowForTargetLabel = "assertChangesAllowForTargetLabel"
	NameAssertBreakingChangeInfo         = "assertBreakingChangeInfo"
)

// Failure is a validation a pull request did not pass
type Failure struct {
	Message        string
	ValidationName string
	// CanBeForceIgnored marks failures the operator may override
	CanBeForceIgnored bool
}

func (f Failure) String() string {
	return fmt.Sprintf("%s (%s)", f.Message, f.ValidationName)
}

// Input is everything the validations look at
type Input struct {
	PullRequest *github.PullRequestInfo
	Commits     []commit.Commit
	TargetLabel targeting.TargetLabel
	Active      *trains.ActiveReleaseTrains
	Config      *config.PullRequestConfig
	Checks      github.ChecksStatus
	Splog       *tui.Splog
}

// Run runs every enabled validation and collects their failures
func Run(in Input) []Failure {
	var failures []Failure
	check := func(name string, fn func() *Failure) {
		if !in.Config.ValidatorEnabled(name) {
			return
		}
		if failure := fn(); failure != nil {
			failures = append(failures, *failure)
		}
	}

	pr := in.PullRequest
	check(NameAssertPending, func() *Failure { return AssertPending(pr) })
	check(NameAssertNotDraft, func() *Failure { return AssertNotDraft(pr) })
	check(NameAssertMergeReady, func() *Failure { return AssertMergeReady(pr, in.Config) })
	check(NameAssertPassingCi, func() *Failure { return AssertPassingCi(in.Checks) })
	check(NameAssertChangesAllowForTargetLabel, func() *Failure {
		return AssertChangesAllowForTargetLabel(in.Commits, in.TargetLabel, in.Config, in.Active, pr.Labels, pr.Author, in.Splog)
	})
	check(NameAssertBreakingChangeInfo, func() *Failure {
		return AssertBreakingChangeInfo(in.Commits, pr.Labels, in.Config)
	})
	return failures
}

// AssertPending fails for pull requests that are merged or closed
func AssertPending(pr *github.PullRequestInfo) *Failure {
	if pr.Merged {
		return &Failure{Message: "Pull request is already merged.", ValidationName: NameAssertPending}
	}
	if pr.State != "open" {
		return &Failure{Message: "Pull request is closed.", ValidationName: NameAssertPending}
	}
	return nil
}

// AssertNotDraft fails for draft pull requests
func AssertNotDraft(pr *github.PullRequestInfo) *Failure {
	if pr.Draft {
		return &Failure{Message: "Pull request is still a draft.", ValidationName: NameAssertNotDraft}
	}
	return nil
}

// AssertMergeReady fails when the merge-ready label is missing
func AssertMergeReady(pr *github.PullRequestInfo, cfg *config.PullRequestConfig) *Failure {
	if slices.Contains(pr.Labels, cfg.MergeReadyLabel) {
		return nil
	}
	return &Failure{
		Message:           fmt.Sprintf("Pull request is not marked as merge ready (missing %q label).", cfg.MergeReadyLabel),
		ValidationName:    NameAssertMergeReady,
		CanBeForceIgnored: true,
	}
}

// AssertPassingCi fails while checks are failing or still running
func AssertPassingCi(status github.ChecksStatus) *Failure {
	switch status {
	case github.ChecksFailing:
		return &Failure{Message: "Pull request has failing status checks.", ValidationName: NameAssertPassingCi, CanBeForceIgnored: true}
	case github.ChecksPending:
		return &Failure{Message: "Pull request has pending status checks.", ValidationName: NameAssertPassingCi, CanBeForceIgnored: true}
	}
	return nil
}

// AssertBreakingChangeInfo checks that the breaking change label is applied
// exactly when a commit carries a breaking change note
func AssertBreakingChangeInfo(commits []commit.Commit, labels []string, cfg *config.PullRequestConfig) *Failure {
	hasLabel := slices.Contains(labels, cfg.BreakingChangeLabel)
	hasBreaking := slices.ContainsFunc(commits, func(c commit.Commit) bool { return len(c.BreakingChanges) > 0 })

	switch {
	case hasLabel && !hasBreaking:
		return &Failure{
			Message:           fmt.Sprintf("Pull request has the %q label, but does not contain any commits with breaking changes.", cfg.BreakingChangeLabel),
			ValidationName:    NameAssertBreakingChangeInfo,
			CanBeForceIgnored: true,
		}
	case !hasLabel && hasBreaking:
		return &Failure{
			Message:           fmt.Sprintf("Pull request contains breaking changes without the %q label.", cfg.BreakingChangeLabel),
			ValidationName:    NameAssertBreakingChangeInfo,
			CanBeForceIgnored: true,
		}
	}
	return nil
}
