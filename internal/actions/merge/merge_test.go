package merge_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/actions/merge"
	"trainline.dev/trainline/internal/config"
	trainerrors "trainline.dev/trainline/internal/errors"
	githubpkg "trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/testhelpers"
)

// prScene has version branches 15.2.x (clean) and 16.0.x (conflicting with
// the pull request) upstream, and a pull request commit on "feature"
type prScene struct {
	*testhelpers.Scene
	baseSHA string
	headSHA string
}

func newPRScene(t *testing.T) *prScene {
	t.Helper()
	ps := &prScene{}
	ps.Scene = testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Repo.CommitFile("core.txt", "base\n", "feat(core): add core"); err != nil {
			return err
		}
		if err := s.PublishBranch("main"); err != nil {
			return err
		}
		if err := s.PublishVersionBranch("15.2.x", "", ""); err != nil {
			return err
		}
		if err := s.PublishVersionBranch("16.0.x", "core.txt", "rc\n"); err != nil {
			return err
		}
		if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
			return err
		}
		if err := s.Repo.CommitFile("core.txt", "fixed\n", "fix(core): handle empty input"); err != nil {
			return err
		}
		return s.Repo.CheckoutBranch("main")
	})
	var err error
	ps.baseSHA, err = ps.Repo.GetRevision("main")
	require.NoError(t, err)
	ps.headSHA, err = ps.Repo.GetRevision("feature")
	require.NoError(t, err)
	return ps
}

// landPullRequest simulates GitHub merging the pull request into main by
// pushing its head commit upstream
func (ps *prScene) landPullRequest(t *testing.T) testhelpers.MergeHandler {
	return func(testhelpers.MergeRequest) (int, string) {
		if err := ps.Repo.Push("upstream", ps.headSHA+":refs/heads/main"); err != nil {
			t.Errorf("failed to land pull request: %v", err)
			return http.StatusInternalServerError, ""
		}
		return http.StatusOK, ps.headSHA
	}
}

func (ps *prScene) pullRequest(targets ...string) *merge.PullRequest {
	return &merge.PullRequest{
		Number:             123,
		Title:              "fix(core): handle empty input",
		Labels:             []string{"action: merge", "target: patch"},
		GithubTargetBranch: targets[0],
		TargetBranches:     targets,
		CommitCount:        1,
		BaseSHA:            ps.baseSHA,
		HeadSHA:            ps.headSHA,
	}
}

func runStrategy(t *testing.T, rt *runtime.Context, strategy merge.Strategy, pr *merge.PullRequest) error {
	t.Helper()
	ctx := context.Background()
	checkpoint, err := rt.WorkingCopy.Checkpoint()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, checkpoint.Restore(ctx))
		require.NoError(t, strategy.Cleanup(ctx, pr))
	}()

	if err := strategy.Prepare(ctx, pr); err != nil {
		return err
	}
	if err := strategy.Check(ctx, pr); err != nil {
		return err
	}
	return strategy.Merge(ctx, pr)
}

func TestGithubAPIStrategy(t *testing.T) {
	t.Run("pushes healthy branches and reports the conflicting one", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, nil)

		err := runStrategy(t, rt, merge.NewGithubAPIStrategy(rt), ps.pullRequest("main", "15.2.x", "16.0.x"))

		var conflicts *trainerrors.MergeConflictsFatalError
		require.ErrorAs(t, err, &conflicts)
		require.Equal(t, []string{"16.0.x"}, conflicts.Branches)

		content, err := testhelpers.RemoteFile(ps.UpstreamDir, "15.2.x", "core.txt")
		require.NoError(t, err)
		require.Equal(t, "fixed\n", content)
		content, err = testhelpers.RemoteFile(ps.UpstreamDir, "16.0.x", "core.txt")
		require.NoError(t, err)
		require.Equal(t, "rc\n", content)

		require.False(t, ps.Repo.CherryPickInProgress())
		require.Empty(t, gh.RecordedComments(123))
		require.False(t, ps.Repo.BranchExists("pr-merge-tmp-15.2.x"))
		require.False(t, ps.Repo.BranchExists("pr-merge-tmp-16.0.x"))
	})

	t.Run("cherry-picks with a link to the merged commit", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, nil)

		require.NoError(t, runStrategy(t, rt, merge.NewGithubAPIStrategy(rt), ps.pullRequest("main", "15.2.x")))

		tip, err := testhelpers.RemoteRevision(ps.UpstreamDir, "15.2.x")
		require.NoError(t, err)
		require.NoError(t, ps.Repo.RunGitCommand("fetch", "-q", "upstream"))
		messages, err := ps.Repo.CommitMessages(ps.baseSHA + ".." + tip)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		require.Contains(t, messages[0], "(cherry picked from commit "+ps.headSHA+")")

		merges := gh.RecordedMerges()
		require.Len(t, merges, 1)
		require.Equal(t, "squash", merges[0].MergeMethod)

		comments := gh.RecordedComments(123)
		require.Len(t, comments, 1)
		require.Contains(t, comments[0], "- main\n- 15.2.x")
	})

	t.Run("maps merge status codes", func(t *testing.T) {
		for status, kind := range map[int]trainerrors.Kind{
			http.StatusForbidden:           trainerrors.KindFatalMerge,
			http.StatusNotFound:            trainerrors.KindFatalMerge,
			http.StatusMethodNotAllowed:    trainerrors.KindMergeConflict,
			http.StatusUnprocessableEntity: trainerrors.KindFatalMerge,
		} {
			ps := newPRScene(t)
			gh := testhelpers.NewMockGitHubServerConfig()
			gh.MergeHandler = func(testhelpers.MergeRequest) (int, string) { return status, "" }
			rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, nil)

			err := runStrategy(t, rt, merge.NewGithubAPIStrategy(rt), ps.pullRequest("main", "15.2.x"))
			require.Equal(t, kind, trainerrors.KindOf(err), "status %d", status)

			var conflicts *trainerrors.MergeConflictsFatalError
			if errors.As(err, &conflicts) {
				require.Equal(t, []string{"main"}, conflicts.Branches)
			}
		}
	})

	t.Run("merge method from labels", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		cfg := testhelpers.NewTestConfig(ps.Scene)
		cfg.PullRequest.GithubAPIMerge.Labels = []config.MergeMethodLabel{{Pattern: "merge: preserve.*", Method: "rebase"}}
		rt := testhelpers.NewTestRuntime(t, ps.Scene, cfg, gh, nil)

		pr := ps.pullRequest("main")
		pr.Labels = append(pr.Labels, "merge: preserve commits")
		require.NoError(t, runStrategy(t, rt, merge.NewGithubAPIStrategy(rt), pr))
		require.Equal(t, "rebase", gh.RecordedMerges()[0].MergeMethod)
	})

	t.Run("commit message fixup", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		prompter := &testhelpers.FakePrompter{Edit: func(initial string) string {
			require.Contains(t, initial, "* fix(core): one")
			return "fix(core): better title\n\nBetter body."
		}}
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, prompter)

		pr := ps.pullRequest("main")
		pr.NeedsCommitMessageFixup = true
		pr.Commits = []githubpkg.CommitInfo{{Message: "fix(core): one"}, {Message: "fix(core): two"}}
		require.NoError(t, runStrategy(t, rt, merge.NewGithubAPIStrategy(rt), pr))

		merges := gh.RecordedMerges()
		require.Len(t, merges, 1)
		require.Equal(t, "fix(core): better title (#123)", merges[0].CommitTitle)
		require.Equal(t, "Better body.", merges[0].CommitMessage)
	})

	t.Run("commit message fixup requires squash", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		cfg := testhelpers.NewTestConfig(ps.Scene)
		cfg.PullRequest.GithubAPIMerge.Default = "merge"
		rt := testhelpers.NewTestRuntime(t, ps.Scene, cfg, gh, nil)

		pr := ps.pullRequest("main")
		pr.NeedsCommitMessageFixup = true
		err := runStrategy(t, rt, merge.NewGithubAPIStrategy(rt), pr)
		require.Equal(t, trainerrors.KindFatalMerge, trainerrors.KindOf(err))
		require.Empty(t, gh.RecordedMerges())
	})
}

func TestAutosquashStrategy(t *testing.T) {
	newAutosquashScene := func(t *testing.T) *prScene {
		ps := newPRScene(t)
		require.NoError(t, ps.Repo.CheckoutBranch("feature"))
		require.NoError(t, ps.Repo.CommitFile("core.txt", "fixed twice\n", "fixup! fix(core): handle empty input"))
		require.NoError(t, ps.Repo.CheckoutBranch("main"))
		head, err := ps.Repo.GetRevision("feature")
		require.NoError(t, err)
		ps.headSHA = head
		require.NoError(t, ps.PublishPullRequestHead(123, head))
		return ps
	}
	autosquashConfig := func(ps *prScene) *config.Config {
		cfg := testhelpers.NewTestConfig(ps.Scene)
		cfg.PullRequest.GithubAPIMerge = nil
		return cfg
	}

	t.Run("squashes fixups and lands in every branch", func(t *testing.T) {
		ps := newAutosquashScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		rt := testhelpers.NewTestRuntime(t, ps.Scene, autosquashConfig(ps), gh, nil)

		require.NoError(t, runStrategy(t, rt, merge.NewAutosquashStrategy(rt), ps.pullRequest("main", "15.2.x")))

		for _, branch := range []string{"main", "15.2.x"} {
			content, err := testhelpers.RemoteFile(ps.UpstreamDir, branch, "core.txt")
			require.NoError(t, err)
			require.Equal(t, "fixed twice\n", content, branch)

			tip, err := testhelpers.RemoteRevision(ps.UpstreamDir, branch)
			require.NoError(t, err)
			messages, err := ps.Repo.CommitMessages(ps.baseSHA + ".." + tip)
			require.NoError(t, err)
			require.Len(t, messages, 1, branch)
			require.Contains(t, messages[0], "fix(core): handle empty input")
			require.Contains(t, messages[0], "PR Close #123")
		}

		require.Empty(t, gh.RecordedComments(123))
		require.Empty(t, gh.RecordedClosed())

		backups, err := ps.Repo.RunGitCommandAndGetOutput("for-each-ref", "refs/original")
		require.NoError(t, err)
		require.Empty(t, backups)
		require.False(t, ps.Repo.BranchExists("pr-merge-tmp-head"))
	})

	t.Run("closes pull requests not targeting main", func(t *testing.T) {
		ps := newAutosquashScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		rt := testhelpers.NewTestRuntime(t, ps.Scene, autosquashConfig(ps), gh, nil)

		require.NoError(t, runStrategy(t, rt, merge.NewAutosquashStrategy(rt), ps.pullRequest("15.2.x")))

		require.Equal(t, []int{123}, gh.RecordedClosed())
		require.Len(t, gh.RecordedComments(123), 1)
	})

	t.Run("reports conflicting branches", func(t *testing.T) {
		ps := newAutosquashScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		rt := testhelpers.NewTestRuntime(t, ps.Scene, autosquashConfig(ps), gh, nil)

		err := runStrategy(t, rt, merge.NewAutosquashStrategy(rt), ps.pullRequest("main", "16.0.x"))
		var conflicts *trainerrors.MergeConflictsFatalError
		require.ErrorAs(t, err, &conflicts)
		require.Equal(t, []string{"16.0.x"}, conflicts.Branches)

		content, err := testhelpers.RemoteFile(ps.UpstreamDir, "main", "core.txt")
		require.NoError(t, err)
		require.Equal(t, "fixed twice\n", content)
	})
}

// registerPullRequest publishes version metadata for next 16.1.0-next.0 and
// latest 16.0.x and registers pull request #123 with the mock server
func registerPullRequest(ps *prScene, gh *testhelpers.MockGitHubServerConfig, mutate func(*testhelpers.SamplePRData)) {
	gh.Branches = []string{"main", "16.0.x"}
	gh.Files["main:package.json"] = `{"version": "16.1.0-next.0"}`
	gh.Files["16.0.x:package.json"] = `{"version": "16.0.3"}`

	data := testhelpers.DefaultPRData()
	data.HeadSHA = ps.headSHA
	if mutate != nil {
		mutate(&data)
	}
	c := testhelpers.NewSampleCommit(ps.headSHA, "fix(core): handle empty input")
	c.Parents = []*github.Commit{{SHA: github.String(ps.baseSHA)}}
	gh.AddPullRequest(testhelpers.NewSamplePullRequest(data), c)
}

func TestToolMerge(t *testing.T) {
	t.Run("merges into every target branch", func(t *testing.T) {
		ps := newPRScene(t)
		require.NoError(t, ps.Repo.RunGitCommand("push", "-q", "-f", "upstream", "15.2.x:refs/heads/16.0.x"))
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		registerPullRequest(ps, gh, nil)
		prompter := &testhelpers.FakePrompter{Confirms: []bool{true}}
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, prompter)

		require.NoError(t, merge.NewTool(rt, merge.Options{}).Merge(123))

		content, err := testhelpers.RemoteFile(ps.UpstreamDir, "16.0.x", "core.txt")
		require.NoError(t, err)
		require.Equal(t, "fixed\n", content)
		require.Equal(t, []string{"Pull request #123 will merge into: main, 16.0.x. Do you want to proceed?"}, prompter.Asked)

		testhelpers.ExpectCurrentBranch(t, ps.Repo, "main")
		require.False(t, ps.Repo.BranchExists("pr-merge-tmp-16.0.x"))
	})

	t.Run("restores the checkout when cherry-picks conflict", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		registerPullRequest(ps, gh, nil)
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, &testhelpers.FakePrompter{Confirms: []bool{true}})

		err := merge.NewTool(rt, merge.Options{}).Merge(123)
		require.Equal(t, trainerrors.KindMergeConflict, trainerrors.KindOf(err))

		testhelpers.ExpectCurrentBranch(t, ps.Repo, "main")
	})

	t.Run("blocks on validation failures that cannot be ignored", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		registerPullRequest(ps, gh, func(d *testhelpers.SamplePRData) { d.Draft = true })
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, nil)

		err := merge.NewTool(rt, merge.Options{}).Merge(123)
		var validationErr *trainerrors.PullRequestValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, 123, validationErr.PRNumber)
		require.Empty(t, gh.RecordedMerges())
	})

	t.Run("ignorable failures need confirmation", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		registerPullRequest(ps, gh, func(d *testhelpers.SamplePRData) { d.Labels = []string{"target: patch"} })
		prompter := &testhelpers.FakePrompter{Confirms: []bool{false}}
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, prompter)

		err := merge.NewTool(rt, merge.Options{}).Merge(123)
		require.ErrorIs(t, err, trainerrors.ErrUserAborted)
		require.Equal(t, []string{"Do you want to forcibly ignore these validation failures?"}, prompter.Asked)
		require.Empty(t, gh.RecordedMerges())
	})

	t.Run("rejects pull requests without a target label", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		registerPullRequest(ps, gh, func(d *testhelpers.SamplePRData) { d.Labels = []string{"action: merge"} })
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, nil)

		err := merge.NewTool(rt, merge.Options{}).Merge(123)
		require.Equal(t, trainerrors.KindTargetLabel, trainerrors.KindOf(err))
	})

	t.Run("manual branch selection", func(t *testing.T) {
		ps := newPRScene(t)
		gh := testhelpers.NewMockGitHubServerConfig()
		gh.MergeHandler = ps.landPullRequest(t)
		registerPullRequest(ps, gh, nil)
		prompter := &testhelpers.FakePrompter{Confirms: []bool{true}, Selection: []string{}}
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, gh, prompter)

		require.NoError(t, merge.NewTool(rt, merge.Options{ForceManualBranches: true}).Merge(123))
		require.Contains(t, prompter.Asked[1], "will merge into: main. Do you want to proceed?")

		content, err := testhelpers.RemoteFile(ps.UpstreamDir, "16.0.x", "core.txt")
		require.NoError(t, err)
		require.Equal(t, "rc\n", content)
	})

	t.Run("refuses a dirty working copy", func(t *testing.T) {
		ps := newPRScene(t)
		require.NoError(t, ps.Repo.WriteFile("README.md", "local edit"))
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, nil, nil)

		err := merge.NewTool(rt, merge.Options{}).Merge(123)
		require.ErrorIs(t, err, trainerrors.ErrUncommittedChanges)
	})

	t.Run("missing pull request", func(t *testing.T) {
		ps := newPRScene(t)
		rt := testhelpers.NewTestRuntime(t, ps.Scene, nil, nil, nil)

		err := merge.NewTool(rt, merge.Options{}).Merge(999)
		require.ErrorIs(t, err, trainerrors.ErrPullRequestNotFound)
	})
}
