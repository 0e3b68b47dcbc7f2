package conflicts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/actions/conflicts"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/testhelpers"
)

var cutoff = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// newConflictScene publishes pull request heads branching off main:
// #1 and #2 both edit core.txt, #3 edits a different file
func newConflictScene(t *testing.T) *testhelpers.Scene {
	t.Helper()
	return testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Repo.CommitFile("core.txt", "base\n", "feat(core): add core"); err != nil {
			return err
		}
		if err := s.PublishBranch("main"); err != nil {
			return err
		}
		heads := []struct {
			number  int
			file    string
			content string
		}{
			{1, "core.txt", "requested\n"},
			{2, "core.txt", "competing\n"},
			{3, "docs.txt", "docs\n"},
			{4, "core.txt", "stale\n"},
		}
		for _, head := range heads {
			if err := s.Repo.RunGitCommand("checkout", "-q", "-B", "pr", "main"); err != nil {
				return err
			}
			if err := s.Repo.CommitFile(head.file, head.content, "fix: change "+head.file); err != nil {
				return err
			}
			if err := s.PublishPullRequestHead(head.number, "pr"); err != nil {
				return err
			}
		}
		if err := s.Repo.CheckoutBranch("main"); err != nil {
			return err
		}
		return s.Repo.RunGitCommand("branch", "-D", "pr")
	})
}

func pendingPR(number int, updatedAt time.Time) testhelpers.MockPendingPR {
	return testhelpers.MockPendingPR{
		Number:    number,
		Title:     "change",
		Mergeable: "MERGEABLE",
		UpdatedAt: updatedAt,
		BaseRef:   "main",
	}
}

func defaultPendingPRs() []testhelpers.MockPendingPR {
	recent := cutoff.Add(24 * time.Hour)
	prs := []testhelpers.MockPendingPR{
		pendingPR(1, recent),
		pendingPR(2, recent),
		pendingPR(3, recent),
		pendingPR(4, cutoff.Add(-24*time.Hour)),
		pendingPR(5, recent),
		pendingPR(6, recent),
	}
	prs[4].BaseRef = "15.2.x"
	prs[5].Mergeable = "CONFLICTING"
	return prs
}

func requireRestored(t *testing.T, scene *testhelpers.Scene, branch string) {
	t.Helper()
	testhelpers.ExpectCurrentBranch(t, scene.Repo, branch)
	require.False(t, scene.Repo.RebaseInProgress())
	testhelpers.ExpectBranches(t, scene.Repo, []string{"main"})
}

func TestDiscoverNewConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("reports pull requests that would conflict", func(t *testing.T) {
		scene := newConflictScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.PendingPRs = defaultPendingPRs()
		rt := testhelpers.NewTestRuntime(t, scene, nil, gh, nil)

		found, err := conflicts.NewScanner(rt).DiscoverNewConflicts(ctx, 1, cutoff)
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, 2, found[0].Number)
		requireRestored(t, scene, "main")
	})

	t.Run("finds nothing when no candidate was updated recently", func(t *testing.T) {
		scene := newConflictScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.PendingPRs = defaultPendingPRs()
		rt := testhelpers.NewTestRuntime(t, scene, nil, gh, nil)

		found, err := conflicts.NewScanner(rt).DiscoverNewConflicts(ctx, 1, cutoff.Add(48*time.Hour))
		require.NoError(t, err)
		require.Empty(t, found)
		requireRestored(t, scene, "main")
	})

	t.Run("restores a detached head", func(t *testing.T) {
		scene := newConflictScene(t)
		sha, err := scene.Repo.GetRevision("main")
		require.NoError(t, err)
		require.NoError(t, scene.Repo.CheckoutDetached(sha))
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.PendingPRs = defaultPendingPRs()
		rt := testhelpers.NewTestRuntime(t, scene, nil, gh, nil)

		_, err = conflicts.NewScanner(rt).DiscoverNewConflicts(ctx, 1, cutoff)
		require.NoError(t, err)
		head, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, sha, head)
		testhelpers.ExpectBranches(t, scene.Repo, []string{"main"})
	})

	t.Run("refuses to run with uncommitted changes", func(t *testing.T) {
		scene := newConflictScene(t)
		require.NoError(t, scene.Repo.WriteFile("core.txt", "dirty\n"))
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.PendingPRs = defaultPendingPRs()
		rt := testhelpers.NewTestRuntime(t, scene, nil, gh, nil)

		_, err := conflicts.NewScanner(rt).DiscoverNewConflicts(ctx, 1, cutoff)
		require.ErrorIs(t, err, trainerrors.ErrUncommittedChanges)
	})

	t.Run("fails when the requested pull request is not open", func(t *testing.T) {
		scene := newConflictScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.PendingPRs = defaultPendingPRs()
		rt := testhelpers.NewTestRuntime(t, scene, nil, gh, nil)

		_, err := conflicts.NewScanner(rt).DiscoverNewConflicts(ctx, 42, cutoff)
		require.ErrorIs(t, err, trainerrors.ErrPullRequestNotFound)
		requireRestored(t, scene, "main")
	})

	t.Run("fails when the requested pull request conflicts with its base", func(t *testing.T) {
		scene := newConflictScene(t)
		require.NoError(t, scene.Repo.CommitFile("core.txt", "moved\n", "fix(core): move on"))
		require.NoError(t, scene.PublishBranch("main"))
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.PendingPRs = defaultPendingPRs()
		rt := testhelpers.NewTestRuntime(t, scene, nil, gh, nil)

		_, err := conflicts.NewScanner(rt).DiscoverNewConflicts(ctx, 1, cutoff)
		require.ErrorContains(t, err, "#1 currently has conflicts with main")
		requireRestored(t, scene, "main")
	})
}
