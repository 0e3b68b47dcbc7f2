package testhelpers

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/config"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/tui"
)

// NewTestConfig returns a configuration for the mock GitHub repository whose
// git remote is the scene's upstream repository
func NewTestConfig(scene *Scene) *config.Config {
	return &config.Config{
		GitHub: config.GitHubConfig{
			Hostname:       "github.com",
			Owner:          "owner",
			Name:           "repo",
			MainBranchName: "main",
			RemoteURL:      scene.UpstreamDir,
		},
		PullRequest: &config.PullRequestConfig{
			GithubAPIMerge:          &config.GithubAPIMergeConfig{Default: "squash"},
			CommitMessageFixupLabel: "merge: fix commit message",
			MergeReadyLabel:         "action: merge",
			CaretakerNoteLabel:      "merge: caretaker note",
			BreakingChangeLabel:     "flag: breaking change",
		},
	}
}

// NewTestRuntime creates a runtime context operating on the scene's
// repository, backed by a mock GitHub server and a scripted prompter
func NewTestRuntime(t *testing.T, scene *Scene, cfg *config.Config, gh *MockGitHubServerConfig, prompter *FakePrompter) *runtime.Context {
	t.Helper()
	if cfg == nil {
		cfg = NewTestConfig(scene)
	}
	if prompter == nil {
		prompter = &FakePrompter{}
	}
	rt, err := runtime.New(context.Background(), cfg, scene.Dir, NewMockGitHubClient(t, gh), tui.NewSplogWithWriter(io.Discard), "")
	require.NoError(t, err)
	rt.Prompter = prompter
	return rt
}

// PublishVersionBranch creates a branch from main, optionally committing a
// file change, and pushes it upstream. The repository is left on main.
func (s *Scene) PublishVersionBranch(name, file, content string) error {
	if err := s.Repo.CreateAndCheckoutBranch(name); err != nil {
		return err
	}
	if file != "" {
		if err := s.Repo.CommitFile(file, content, "build: prepare "+name); err != nil {
			return err
		}
	}
	if err := s.PublishBranch(name); err != nil {
		return err
	}
	return s.Repo.CheckoutBranch("main")
}
