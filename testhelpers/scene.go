package testhelpers

import (
	"os"
	"strconv"
	"testing"
)

// Scene represents a test scene with a temporary directory, a Git repository
// and a bare "upstream" repository standing in for the hosted repository.
type Scene struct {
	Dir         string
	Repo        *GitRepo
	UpstreamDir string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene. The repository has one commit on main,
// pushed to upstream. It automatically handles cleanup using t.Cleanup().
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "trainline-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	upstream, err := repo.CreateBareRemote("upstream")
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create upstream: %v", err)
	}

	scene := &Scene{
		Dir:         tmpDir,
		Repo:        repo,
		UpstreamDir: upstream,
	}

	t.Cleanup(func() {
		if os.Getenv("DEBUG") == "" {
			os.RemoveAll(tmpDir)
			os.RemoveAll(upstream)
		}
	})

	if err := BasicSceneSetup(scene); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	return scene
}

// BasicSceneSetup creates a single commit on main and pushes it upstream.
func BasicSceneSetup(scene *Scene) error {
	if err := scene.Repo.CommitFile("README.md", "# project\n", "chore: initial commit"); err != nil {
		return err
	}
	return scene.Repo.Push("upstream", "main:refs/heads/main")
}

// PublishBranch pushes a local branch to the same name upstream.
func (s *Scene) PublishBranch(branch string) error {
	return s.Repo.Push("upstream", branch+":refs/heads/"+branch)
}

// PublishPullRequestHead pushes a revision upstream as the head ref of a pull request.
func (s *Scene) PublishPullRequestHead(number int, rev string) error {
	return s.Repo.Push("upstream", rev+":refs/pull/"+strconv.Itoa(number)+"/head")
}
