package targeting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/targeting"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/testhelpers"
)

func activeTrains(rc, exceptional bool) *trains.ActiveReleaseTrains {
	active := &trains.ActiveReleaseTrains{
		Next:   testhelpers.Train("main", "16.1.0-next.0"),
		Latest: testhelpers.Train("15.2.x", "15.2.4"),
	}
	if rc {
		active.ReleaseCandidate = testhelpers.Train("16.0.x", "16.0.0-rc.1")
	}
	if exceptional {
		active.ExceptionalMinor = testhelpers.Train("15.3.x", "15.3.0-next.0")
	}
	return active
}

func resolve(t *testing.T, label targeting.TargetLabel, active *trains.ActiveReleaseTrains, target string) ([]string, error) {
	t.Helper()
	branches, resolved, err := targeting.TargetBranchesAndLabelForPullRequest(
		context.Background(), active, []string{label.Name(), "action: merge"}, target, nil)
	if err == nil {
		require.Equal(t, label, resolved)
	}
	return branches, err
}

func TestMatchingConfigForPullRequest(t *testing.T) {
	configs := targeting.ConfigsForActiveReleaseTrains(nil)

	t.Run("fails with two target labels", func(t *testing.T) {
		_, err := targeting.MatchingConfigForPullRequest([]string{"target: minor", "target: patch"}, configs)
		require.Equal(t, trainerrors.KindTargetLabel, trainerrors.KindOf(err))
	})

	t.Run("fails without a target label", func(t *testing.T) {
		_, err := targeting.MatchingConfigForPullRequest(nil, configs)
		require.Equal(t, trainerrors.KindTargetLabel, trainerrors.KindOf(err))
	})

	t.Run("matches labels exactly", func(t *testing.T) {
		_, err := targeting.MatchingConfigForPullRequest([]string{"target: patches"}, configs)
		require.Error(t, err)

		cfg, err := targeting.MatchingConfigForPullRequest([]string{"area: core", "target: rc"}, configs)
		require.NoError(t, err)
		require.Equal(t, targeting.TargetRC, cfg.Label)
	})

	t.Run("offers lts only with an lts checker", func(t *testing.T) {
		_, err := targeting.MatchingConfigForPullRequest([]string{"target: lts"}, configs)
		require.Error(t, err)

		withLTS := targeting.ConfigsForActiveReleaseTrains(&targeting.LTSChecker{})
		require.Equal(t, targeting.TargetLTS, withLTS[len(withLTS)-1].Label)
	})
}

func TestResolvers(t *testing.T) {
	t.Run("major requires a major next train", func(t *testing.T) {
		_, err := resolve(t, targeting.TargetMajor, activeTrains(false, false), "main")
		require.Equal(t, trainerrors.KindTargetLabel, trainerrors.KindOf(err))

		active := activeTrains(false, false)
		active.Next = testhelpers.Train("main", "17.0.0-next.0")
		branches, err := resolve(t, targeting.TargetMajor, active, "main")
		require.NoError(t, err)
		require.Equal(t, []string{"main"}, branches)
	})

	t.Run("minor lands in next or the targeted exceptional minor", func(t *testing.T) {
		branches, err := resolve(t, targeting.TargetMinor, activeTrains(true, true), "main")
		require.NoError(t, err)
		require.Equal(t, []string{"main"}, branches)

		branches, err = resolve(t, targeting.TargetMinor, activeTrains(true, true), "15.3.x")
		require.NoError(t, err)
		require.Equal(t, []string{"15.3.x"}, branches)

		branches, err = resolve(t, targeting.TargetMinor, activeTrains(true, false), "15.3.x")
		require.NoError(t, err)
		require.Equal(t, []string{"main"}, branches)
	})

	t.Run("patch targeting latest does not fan out", func(t *testing.T) {
		branches, err := resolve(t, targeting.TargetPatch, activeTrains(true, true), "15.2.x")
		require.NoError(t, err)
		require.Equal(t, []string{"15.2.x"}, branches)
	})

	t.Run("patch fans out in order", func(t *testing.T) {
		branches, err := resolve(t, targeting.TargetPatch, activeTrains(true, true), "main")
		require.NoError(t, err)
		require.Equal(t, []string{"main", "15.2.x", "16.0.x", "15.3.x"}, branches)

		branches, err = resolve(t, targeting.TargetPatch, activeTrains(false, false), "main")
		require.NoError(t, err)
		require.Equal(t, []string{"main", "15.2.x"}, branches)
	})

	t.Run("rc requires a release candidate", func(t *testing.T) {
		_, err := resolve(t, targeting.TargetRC, activeTrains(false, false), "main")
		require.Equal(t, trainerrors.KindTargetLabel, trainerrors.KindOf(err))

		branches, err := resolve(t, targeting.TargetRC, activeTrains(true, false), "main")
		require.NoError(t, err)
		require.Equal(t, []string{"main", "16.0.x"}, branches)

		branches, err = resolve(t, targeting.TargetRC, activeTrains(true, false), "16.0.x")
		require.NoError(t, err)
		require.Equal(t, []string{"16.0.x"}, branches)
	})

	t.Run("feature rejects releasable branches", func(t *testing.T) {
		for _, target := range []string{"main", "15.2.x", "14.0.x"} {
			_, err := resolve(t, targeting.TargetFeature, activeTrains(false, false), target)
			require.Equal(t, trainerrors.KindTargetBranch, trainerrors.KindOf(err), target)
		}
		branches, err := resolve(t, targeting.TargetFeature, activeTrains(false, false), "feature-signals")
		require.NoError(t, err)
		require.Equal(t, []string{"feature-signals"}, branches)
	})

	t.Run("automation requires a version branch", func(t *testing.T) {
		_, err := resolve(t, targeting.TargetAutomation, activeTrains(false, false), "main")
		require.Equal(t, trainerrors.KindTargetBranch, trainerrors.KindOf(err))

		branches, err := resolve(t, targeting.TargetAutomation, activeTrains(false, false), "14.2.x")
		require.NoError(t, err)
		require.Equal(t, []string{"14.2.x"}, branches)
	})
}
