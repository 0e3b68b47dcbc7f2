package targeting

import (
	"context"
	"slices"
	"strings"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/trains"
)

// BranchResolver maps the branch a pull request was opened against to the
// branches it must land in
type BranchResolver func(ctx context.Context, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error)

// Config pairs a target label with its branch resolution rule
type Config struct {
	Label    TargetLabel
	Branches BranchResolver
}

// ConfigsForActiveReleaseTrains returns the target labels available for the
// active release trains. The LTS label is only offered with an LTS checker,
// which requires release configuration.
func ConfigsForActiveReleaseTrains(lts *LTSChecker) []Config {
	configs := []Config{
		{Label: TargetMajor, Branches: majorBranches},
		{Label: TargetMinor, Branches: minorBranches},
		{Label: TargetPatch, Branches: patchBranches},
		{Label: TargetRC, Branches: rcBranches},
		{Label: TargetFeature, Branches: featureBranches},
		{Label: TargetAutomation, Branches: automationBranches},
	}
	if lts != nil {
		configs = append(configs, Config{Label: TargetLTS, Branches: newLTSResolver(lts)})
	}
	return configs
}

// MatchingConfigForPullRequest returns the config whose label is applied to
// the pull request. Exactly one target label must be applied.
func MatchingConfigForPullRequest(labels []string, configs []Config) (*Config, error) {
	var matches []Config
	for _, cfg := range configs {
		if slices.Contains(labels, cfg.Label.Name()) {
			matches = append(matches, cfg)
		}
	}
	switch len(matches) {
	case 0:
		return nil, trainerrors.NewInvalidTargetLabelError(
			"unable to determine target for the PR as it has no target label")
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Label.Name()
		}
		return nil, trainerrors.NewInvalidTargetLabelError(
			"unable to determine target for the PR as it has multiple target labels: %s", strings.Join(names, ", "))
	}
}

// BranchesForTargetLabel resolves the branches for a config
func BranchesForTargetLabel(ctx context.Context, cfg *Config, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
	return cfg.Branches(ctx, active, githubTargetBranch)
}

// TargetBranchesAndLabelForPullRequest picks the target label of a pull
// request and resolves its branches
func TargetBranchesAndLabelForPullRequest(ctx context.Context, active *trains.ActiveReleaseTrains, labels []string, githubTargetBranch string, lts *LTSChecker) ([]string, TargetLabel, error) {
	cfg, err := MatchingConfigForPullRequest(labels, ConfigsForActiveReleaseTrains(lts))
	if err != nil {
		return nil, 0, err
	}
	branches, err := BranchesForTargetLabel(ctx, cfg, active, githubTargetBranch)
	if err != nil {
		return nil, cfg.Label, err
	}
	return branches, cfg.Label, nil
}

func majorBranches(_ context.Context, active *trains.ActiveReleaseTrains, _ string) ([]string, error) {
	if !active.Next.IsMajor {
		return nil, trainerrors.NewInvalidTargetLabelError(
			"unable to merge pull request. The %q branch will be released as a minor version", active.Next.BranchName)
	}
	return []string{active.Next.BranchName}, nil
}

func minorBranches(_ context.Context, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
	if active.ExceptionalMinor != nil && githubTargetBranch == active.ExceptionalMinor.BranchName {
		return []string{active.ExceptionalMinor.BranchName}, nil
	}
	return []string{active.Next.BranchName}, nil
}

func patchBranches(_ context.Context, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
	if githubTargetBranch == active.Latest.BranchName {
		return []string{active.Latest.BranchName}, nil
	}
	branches := []string{active.Next.BranchName, active.Latest.BranchName}
	if active.ReleaseCandidate != nil {
		branches = append(branches, active.ReleaseCandidate.BranchName)
	}
	// The exceptional minor becomes the next latest, so it must not miss patches.
	if active.ExceptionalMinor != nil {
		branches = append(branches, active.ExceptionalMinor.BranchName)
	}
	return branches, nil
}

func rcBranches(_ context.Context, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
	if active.ReleaseCandidate == nil {
		return nil, trainerrors.NewInvalidTargetLabelError(
			"no active feature-freeze/release-candidate branch. Unable to merge pull request using %q label",
			TargetRC.Name())
	}
	if githubTargetBranch == active.ReleaseCandidate.BranchName {
		return []string{active.ReleaseCandidate.BranchName}, nil
	}
	return []string{active.Next.BranchName, active.ReleaseCandidate.BranchName}, nil
}

func featureBranches(_ context.Context, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
	if trains.IsVersionBranch(githubTargetBranch) || githubTargetBranch == active.Next.BranchName {
		return nil, trainerrors.NewInvalidTargetBranchError(
			"%q pull requests cannot target a releasable branch", TargetFeature.Name())
	}
	return []string{githubTargetBranch}, nil
}

func automationBranches(_ context.Context, _ *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
	if !trains.IsVersionBranch(githubTargetBranch) {
		return nil, trainerrors.NewInvalidTargetBranchError(
			"%q pull requests can only target a version branch, not %q", TargetAutomation.Name(), githubTargetBranch)
	}
	return []string{githubTargetBranch}, nil
}

func newLTSResolver(checker *LTSChecker) BranchResolver {
	return func(ctx context.Context, active *trains.ActiveReleaseTrains, githubTargetBranch string) ([]string, error) {
		if !trains.IsVersionBranch(githubTargetBranch) {
			return nil, trainerrors.NewInvalidTargetBranchError(
				"PR cannot be merged as it does not target a long-term support branch: %q", githubTargetBranch)
		}
		if githubTargetBranch == active.Latest.BranchName {
			return nil, trainerrors.NewInvalidTargetBranchError(
				"PR cannot be merged with %q into patch branch. Consider changing the label to %q if this is intentional",
				TargetLTS.Name(), TargetPatch.Name())
		}
		if active.ReleaseCandidate != nil && githubTargetBranch == active.ReleaseCandidate.BranchName {
			return nil, trainerrors.NewInvalidTargetBranchError(
				"PR cannot be merged with %q into feature-freeze/release-candidate branch. Consider changing the label to %q if this is intentional",
				TargetLTS.Name(), TargetRC.Name())
		}
		if err := checker.AssertActiveLTSBranch(ctx, githubTargetBranch); err != nil {
			return nil, err
		}
		return []string{githubTargetBranch}, nil
	}
}
