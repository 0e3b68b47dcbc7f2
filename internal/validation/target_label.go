package validation

import (
	"fmt"
	"slices"

	"trainline.dev/trainline/internal/commit"
	"trainline.dev/trainline/internal/config"
	"trainline.dev/trainline/internal/targeting"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/internal/tui"
)

// AutomationAuthors may open pull requests with the automation target label
var AutomationAuthors = []string{"renovate[bot]", "dependabot[bot]"}

// AssertChangesAllowForTargetLabel checks that the commits of a pull request
// may be released by the branches of its target label. Pull requests with the
// commit message fixup label are not checked.
func AssertChangesAllowForTargetLabel(
	commits []commit.Commit,
	label targeting.TargetLabel,
	cfg *config.PullRequestConfig,
	active *trains.ActiveReleaseTrains,
	labelsOnPR []string,
	author string,
	splog *tui.Splog,
) *Failure {
	if slices.Contains(labelsOnPR, cfg.CommitMessageFixupLabel) {
		if splog != nil {
			splog.Debug("Skipping commit message target label validation because the commit message fixup label is applied.")
		}
		return nil
	}

	exempt := cfg.TargetLabelExemptScopes
	var checked []commit.Commit
	for _, c := range commits {
		if !slices.Contains(exempt, c.Scope) {
			checked = append(checked, c)
		}
	}

	hasBreaking := slices.ContainsFunc(checked, func(c commit.Commit) bool { return len(c.BreakingChanges) > 0 })
	hasFeature := slices.ContainsFunc(checked, func(c commit.Commit) bool { return c.Type == "feat" })
	hasDeprecation := slices.ContainsFunc(checked, func(c commit.Commit) bool { return len(c.Deprecations) > 0 })

	switch label {
	case targeting.TargetMajor:
		return nil

	case targeting.TargetMinor:
		if hasBreaking {
			return changesFailure(label, "has a breaking change")
		}
		return nil

	case targeting.TargetRC, targeting.TargetLTS, targeting.TargetPatch:
		if hasBreaking {
			return changesFailure(label, "has a breaking change")
		}
		if hasFeature {
			return changesFailure(label, "has a commit with a type of \"feat\"")
		}
		// Deprecations are accepted while the release candidate train is in
		// feature freeze since it will not receive further feature work.
		if hasDeprecation && !active.IsFeatureFreeze() {
			return &Failure{
				Message: fmt.Sprintf("Cannot merge into branch for %q as the pull request contains deprecations. "+
					"Deprecations can only be merged with the %q or %q label.",
					label.Name(), targeting.TargetMinor.Name(), targeting.TargetMajor.Name()),
				ValidationName:    NameAssertChangesAllowForTargetLabel,
				CanBeForceIgnored: true,
			}
		}
		return nil

	case targeting.TargetAutomation:
		if !slices.Contains(AutomationAuthors, author) {
			return &Failure{
				Message: fmt.Sprintf("Cannot merge with %q as the pull request was not opened by an automation account (%s).",
					label.Name(), author),
				ValidationName:    NameAssertChangesAllowForTargetLabel,
				CanBeForceIgnored: true,
			}
		}
		return nil

	default:
		if splog != nil {
			splog.Warn("Unable to confirm all commits in the pull request are eligible to be merged into the target branches: %s", label.Name())
		}
		return nil
	}
}

func changesFailure(label targeting.TargetLabel, reason string) *Failure {
	return &Failure{
		Message:           fmt.Sprintf("Cannot merge into branch for %q as the pull request %s.", label.Name(), reason),
		ValidationName:    NameAssertChangesAllowForTargetLabel,
		CanBeForceIgnored: true,
	}
}
