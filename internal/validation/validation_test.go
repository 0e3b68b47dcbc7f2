package validation_test

import (
	"bytes"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/commit"
	"trainline.dev/trainline/internal/config"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/targeting"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/internal/tui"
	"trainline.dev/trainline/internal/validation"
)

func pullRequestConfig() *config.PullRequestConfig {
	return &config.PullRequestConfig{
		CommitMessageFixupLabel: "merge: fix commit message",
		MergeReadyLabel:         "action: merge",
		BreakingChangeLabel:     "flag: breaking change",
		TargetLabelExemptScopes: []string{"dev-infra"},
	}
}

func activeTrains(rcVersion string) *trains.ActiveReleaseTrains {
	active := &trains.ActiveReleaseTrains{
		Next:   trains.NewReleaseTrain("main", semver.MustParse("16.1.0-next.0")),
		Latest: trains.NewReleaseTrain("15.2.x", semver.MustParse("15.2.4")),
	}
	if rcVersion != "" {
		active.ReleaseCandidate = trains.NewReleaseTrain("16.0.x", semver.MustParse(rcVersion))
	}
	return active
}

func commits(messages ...string) []commit.Commit {
	parsed := make([]commit.Commit, len(messages))
	for i, msg := range messages {
		parsed[i] = commit.Parse(msg)
	}
	return parsed
}

func TestAssertChangesAllowForTargetLabel(t *testing.T) {
	cfg := pullRequestConfig()
	breaking := commits("feat(core): drop legacy API\n\nBREAKING CHANGE: the legacy API is gone")
	feature := commits("feat(core): add signal inputs")
	deprecation := commits("fix(core): warn on old API\n\nDEPRECATED: use the new API")
	fix := commits("fix(core): handle empty input")

	assert := func(c []commit.Commit, label targeting.TargetLabel, active *trains.ActiveReleaseTrains) *validation.Failure {
		return validation.AssertChangesAllowForTargetLabel(c, label, cfg, active, nil, "contributor", nil)
	}

	t.Run("breaking changes need the major label", func(t *testing.T) {
		failure := assert(breaking, targeting.TargetMinor, activeTrains(""))
		require.NotNil(t, failure)
		require.Equal(t, validation.NameAssertChangesAllowForTargetLabel, failure.ValidationName)
		require.True(t, failure.CanBeForceIgnored)
		require.Contains(t, failure.Message, "breaking change")

		require.Nil(t, assert(breaking, targeting.TargetMajor, activeTrains("")))
	})

	t.Run("patch rejects features and breaking changes", func(t *testing.T) {
		for _, label := range []targeting.TargetLabel{targeting.TargetPatch, targeting.TargetRC, targeting.TargetLTS} {
			require.NotNil(t, assert(breaking, label, activeTrains("")), label.Name())
			require.NotNil(t, assert(feature, label, activeTrains("")), label.Name())
			require.Nil(t, assert(fix, label, activeTrains("")), label.Name())
		}
		require.Nil(t, assert(feature, targeting.TargetMinor, activeTrains("")))
	})

	t.Run("deprecations allowed in feature freeze", func(t *testing.T) {
		failure := assert(deprecation, targeting.TargetPatch, activeTrains("16.0.0-rc.1"))
		require.NotNil(t, failure)
		require.Contains(t, failure.Message, "deprecations")

		require.Nil(t, assert(deprecation, targeting.TargetPatch, activeTrains("16.0.0-next.4")))
		require.NotNil(t, assert(deprecation, targeting.TargetPatch, activeTrains("")))
	})

	t.Run("exempt scopes are ignored", func(t *testing.T) {
		c := commits("feat(dev-infra): new lint rule")
		require.Nil(t, assert(c, targeting.TargetPatch, activeTrains("")))
	})

	t.Run("fixup label skips the check", func(t *testing.T) {
		failure := validation.AssertChangesAllowForTargetLabel(breaking, targeting.TargetPatch, cfg, activeTrains(""),
			[]string{"merge: fix commit message"}, "contributor", nil)
		require.Nil(t, failure)
	})

	t.Run("automation requires a bot author", func(t *testing.T) {
		failure := validation.AssertChangesAllowForTargetLabel(fix, targeting.TargetAutomation, cfg, activeTrains(""), nil, "contributor", nil)
		require.NotNil(t, failure)

		failure = validation.AssertChangesAllowForTargetLabel(fix, targeting.TargetAutomation, cfg, activeTrains(""), nil, "renovate[bot]", nil)
		require.Nil(t, failure)
	})

	t.Run("unchecked labels only warn", func(t *testing.T) {
		var out bytes.Buffer
		splog := tui.NewSplogWithWriter(&out)
		failure := validation.AssertChangesAllowForTargetLabel(breaking, targeting.TargetFeature, cfg, activeTrains(""), nil, "contributor", splog)
		require.Nil(t, failure)
		require.Contains(t, out.String(), "Unable to confirm")
	})
}

func TestRun(t *testing.T) {
	pr := &github.PullRequestInfo{
		Number: 1,
		State:  "open",
		Author: "contributor",
		Labels: []string{"target: patch"},
	}

	t.Run("collects every failure", func(t *testing.T) {
		failures := validation.Run(validation.Input{
			PullRequest: pr,
			Commits:     commits("feat(core): add a thing"),
			TargetLabel: targeting.TargetPatch,
			Active:      activeTrains(""),
			Config:      pullRequestConfig(),
			Checks:      github.ChecksFailing,
		})

		var names []string
		for _, f := range failures {
			names = append(names, f.ValidationName)
		}
		require.Equal(t, []string{
			validation.NameAssertMergeReady,
			validation.NameAssertPassingCi,
			validation.NameAssertChangesAllowForTargetLabel,
		}, names)
	})

	t.Run("disabled validators are skipped", func(t *testing.T) {
		cfg := pullRequestConfig()
		cfg.Validators = map[string]bool{"assertmergeready": false, "assertpassingci": false}

		failures := validation.Run(validation.Input{
			PullRequest: pr,
			Commits:     commits("fix(core): handle empty input"),
			TargetLabel: targeting.TargetPatch,
			Active:      activeTrains(""),
			Config:      cfg,
			Checks:      github.ChecksPending,
		})
		require.Empty(t, failures)
	})

	t.Run("closed and draft pull requests cannot be ignored", func(t *testing.T) {
		closed := *pr
		closed.State = "closed"
		closed.Draft = true
		closed.Labels = []string{"action: merge", "target: patch"}

		failures := validation.Run(validation.Input{
			PullRequest: &closed,
			Commits:     commits("fix(core): handle empty input"),
			TargetLabel: targeting.TargetPatch,
			Active:      activeTrains(""),
			Config:      pullRequestConfig(),
			Checks:      github.ChecksPassing,
		})
		require.Len(t, failures, 2)
		for _, f := range failures {
			require.False(t, f.CanBeForceIgnored, f.ValidationName)
		}
	})
}

func TestAssertBreakingChangeInfo(t *testing.T) {
	cfg := pullRequestConfig()
	breaking := commits("feat(core)!: drop legacy API")

	require.Nil(t, validation.AssertBreakingChangeInfo(breaking, []string{"flag: breaking change"}, cfg))
	require.NotNil(t, validation.AssertBreakingChangeInfo(breaking, nil, cfg))
	require.NotNil(t, validation.AssertBreakingChangeInfo(commits("fix: x"), []string{"flag: breaking change"}, cfg))
	require.Nil(t, validation.AssertBreakingChangeInfo(commits("fix: x"), nil, cfg))
}
