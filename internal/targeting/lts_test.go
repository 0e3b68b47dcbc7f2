package targeting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/registry"
	"trainline.dev/trainline/internal/targeting"
	"trainline.dev/trainline/testhelpers"
)

func newLTSChecker(t *testing.T, prompter *testhelpers.FakePrompter, now time.Time) *targeting.LTSChecker {
	t.Helper()
	server := testhelpers.NewMockRegistryServer(t, map[string]testhelpers.MockPackage{
		"@angular/core": {
			DistTags: map[string]string{"latest": "16.1.0", "v15-lts": "15.2.9", "v14-lts": "14.3.0"},
			Time: map[string]time.Time{
				"14.0.0": time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC),
				"15.0.0": time.Date(2022, 11, 16, 0, 0, 0, 0, time.UTC),
			},
		},
	})
	return &targeting.LTSChecker{
		Repo: testhelpers.FakeVersionBranchRepository{
			"15.2.x": {Version: "15.2.9"},
			"15.1.x": {Version: "15.1.5"},
			"14.3.x": {Version: "14.3.0"},
			"13.3.x": {Version: "13.3.12"},
		},
		Registry: registry.NewClient(server.URL),
		Package:  "@angular/core",
		Prompter: prompter,
		Now:      func() time.Time { return now },
	}
}

func TestAssertActiveLTSBranch(t *testing.T) {
	ctx := context.Background()
	during := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("accepts the last minor of an active LTS major", func(t *testing.T) {
		checker := newLTSChecker(t, &testhelpers.FakePrompter{}, during)
		require.NoError(t, checker.AssertActiveLTSBranch(ctx, "15.2.x"))
	})

	t.Run("rejects an older minor of the LTS major", func(t *testing.T) {
		checker := newLTSChecker(t, &testhelpers.FakePrompter{}, during)
		err := checker.AssertActiveLTSBranch(ctx, "15.1.x")
		require.Equal(t, trainerrors.KindTargetBranch, trainerrors.KindOf(err))
		require.Contains(t, err.Error(), "15.2.x")
	})

	t.Run("rejects majors without an LTS tag", func(t *testing.T) {
		checker := newLTSChecker(t, &testhelpers.FakePrompter{}, during)
		err := checker.AssertActiveLTSBranch(ctx, "13.3.x")
		require.Equal(t, trainerrors.KindTargetBranch, trainerrors.KindOf(err))
	})

	t.Run("asks before merging into an expired LTS branch", func(t *testing.T) {
		prompter := &testhelpers.FakePrompter{Confirms: []bool{false}}
		checker := newLTSChecker(t, prompter, during)
		err := checker.AssertActiveLTSBranch(ctx, "14.3.x")
		require.Equal(t, trainerrors.KindTargetBranch, trainerrors.KindOf(err))
		require.Len(t, prompter.Asked, 1)

		prompter = &testhelpers.FakePrompter{Confirms: []bool{true}}
		checker = newLTSChecker(t, prompter, during)
		require.NoError(t, checker.AssertActiveLTSBranch(ctx, "14.3.x"))
	})

	t.Run("lts resolver rejects latest and release candidate branches", func(t *testing.T) {
		checker := newLTSChecker(t, &testhelpers.FakePrompter{}, during)
		active := activeTrains(true, false)
		for _, target := range []string{"main", "15.2.x", "16.0.x"} {
			_, _, err := targeting.TargetBranchesAndLabelForPullRequest(ctx, active, []string{"target: lts"}, target, checker)
			require.Equal(t, trainerrors.KindTargetBranch, trainerrors.KindOf(err), target)
		}
	})
}

func TestLTSEndDate(t *testing.T) {
	released := time.Date(2022, 11, 16, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), targeting.LTSEndDate(released))
}
