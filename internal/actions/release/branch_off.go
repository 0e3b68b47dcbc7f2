package release

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/Masterminds/semver/v3"

	"trainline.dev/trainline/internal/config"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/trains"
)

var _ Performer = (*branchOff)(nil)

// stagingBranchPrefix prefixes the local branches release commits are staged on
const stagingBranchPrefix = "release-stage-"

// branchOff creates a version branch from next, either in feature freeze or
// directly as a release candidate, and bumps next to the following minor
type branchOff struct {
	id            string
	featureFreeze bool
}

func (b *branchOff) ID() string { return b.id }

// IsActive holds when there is no release-candidate train. Only majors go
// through feature freeze; minors are branched off as release candidates.
func (b *branchOff) IsActive(active *trains.ActiveReleaseTrains) bool {
	return active.ReleaseCandidate == nil && active.Next.IsMajor == b.featureFreeze
}

func (b *branchOff) Describe(active *trains.ActiveReleaseTrains) string {
	branch := trains.BranchNameFromVersion(active.Next.Version)
	version, err := b.branchVersion(active.Next.Version)
	if err != nil {
		return fmt.Sprintf("Move the %q branch into a new version branch %q.", active.Next.BranchName, branch)
	}
	if b.featureFreeze {
		return fmt.Sprintf("Move the %q branch into feature-freeze phase by creating %q (v%s).",
			active.Next.BranchName, branch, version)
	}
	return fmt.Sprintf("Move the %q branch into release-candidate phase by creating %q (v%s).",
		active.Next.BranchName, branch, version)
}

// branchVersion is the version the new version branch starts with
func (b *branchOff) branchVersion(next *semver.Version) (*semver.Version, error) {
	if b.featureFreeze {
		return nextPrerelease(next)
	}
	return withPrerelease(next, "rc.0"), nil
}

// Perform pushes the new version branch and opens a pull request bumping
// next. The previously checked out branch or revision is restored.
func (b *branchOff) Perform(rt *runtime.Context, active *trains.ActiveReleaseTrains) (err error) {
	splog := rt.Splog
	nextBranch := active.Next.BranchName
	newBranch := trains.BranchNameFromVersion(active.Next.Version)

	branchVersion, err := b.branchVersion(active.Next.Version)
	if err != nil {
		return err
	}
	bumpedNext := nextMinorPrerelease(active.Next.Version)

	dirty, err := rt.Git.HasUncommittedChanges(rt)
	if err != nil {
		return err
	}
	if dirty {
		return trainerrors.ErrUncommittedChanges
	}

	existing, err := rt.GitHub.ListMatchingBranches(rt, newBranch)
	if err != nil {
		return err
	}
	if slices.Contains(existing, newBranch) {
		return fmt.Errorf("version branch %s already exists", newBranch)
	}

	branchStage := stagingBranchPrefix + branchVersion.String()
	nextStage := stagingBranchPrefix + bumpedNext.String()

	checkpoint, err := rt.WorkingCopy.Checkpoint()
	if err != nil {
		return err
	}
	defer func() {
		if restoreErr := checkpoint.Restore(rt); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore %s: %w", checkpoint.Ref(), restoreErr)
		}
		if deleteErr := rt.Git.DeleteBranches(rt, branchStage, nextStage); deleteErr != nil {
			splog.Debug("Failed to delete staging branches: %v", deleteErr)
		}
	}()

	splog.Info("Creating %s at v%s from %s", newBranch, branchVersion, nextBranch)
	if err := b.stageFromNext(rt, nextBranch, branchStage); err != nil {
		return err
	}
	if err := writeManifestVersion(rt, branchVersion); err != nil {
		return err
	}
	if err := rt.Git.CommitFiles(rt, fmt.Sprintf("release: bump the %s branch to v%s", newBranch, branchVersion),
		rt.Config.ManifestPath()); err != nil {
		return err
	}
	if err := rt.Git.Push(rt, "HEAD:refs/heads/"+newBranch); err != nil {
		return err
	}
	splog.Success("Pushed %s", newBranch)

	splog.Info("Bumping %s to v%s", nextBranch, bumpedNext)
	if err := b.stageFromNext(rt, nextBranch, nextStage); err != nil {
		return err
	}
	if err := writeManifestVersion(rt, bumpedNext); err != nil {
		return err
	}
	paths := []string{rt.Config.ManifestPath()}
	updated, err := updateRenovateConfig(rt, nextBranch, newBranch)
	if err != nil {
		return err
	}
	if updated {
		paths = append(paths, config.RenovateConfigPath)
	}
	title := fmt.Sprintf("release: bump the %s branch to v%s", nextBranch, bumpedNext)
	if err := rt.Git.CommitFiles(rt, title, paths...); err != nil {
		return err
	}
	if err := rt.Git.Push(rt, "HEAD:refs/heads/"+nextStage); err != nil {
		return err
	}

	pr, err := rt.GitHub.CreatePullRequest(rt, github.CreatePROptions{
		Title: title,
		Body:  fmt.Sprintf("The previous next release-train has moved into the %s phase. This PR updates the %s branch to the subsequent release-train.\n\nAlso updates the dependency bot to target the %s branch.", b.phase(), nextBranch, newBranch),
		Head:  nextStage,
		Base:  nextBranch,
	})
	if err != nil {
		return err
	}
	splog.Success("Created pull request #%d to bump %s: %s", pr.Number, nextBranch, pr.HTMLURL)
	return nil
}

func (b *branchOff) phase() string {
	if b.featureFreeze {
		return "feature-freeze"
	}
	return "release-candidate"
}

// stageFromNext checks out a fresh local staging branch at the remote next branch
func (b *branchOff) stageFromNext(rt *runtime.Context, nextBranch, stage string) error {
	if err := rt.Git.Fetch(rt, "refs/heads/"+nextBranch); err != nil {
		return err
	}
	return rt.Git.CheckoutResetBranch(rt, stage, "FETCH_HEAD")
}

func writeManifestVersion(rt *runtime.Context, version *semver.Version) error {
	path := filepath.Join(rt.RepoRoot, rt.Config.ManifestPath())
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	updated, err := SetManifestVersion(content, version)
	if err != nil {
		return fmt.Errorf("%s: %w", rt.Config.ManifestPath(), err)
	}
	return os.WriteFile(path, updated, 0o644)
}

// updateRenovateConfig points the dependency bot at next and the new
// branch. It reports whether the file changed.
func updateRenovateConfig(rt *runtime.Context, nextBranch, newBranch string) (bool, error) {
	path := filepath.Join(rt.RepoRoot, config.RenovateConfigPath)
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		rt.Splog.Debug("No %s found, skipping", config.RenovateConfigPath)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	updated, changed, err := config.UpdateRenovateConfig(content, nextBranch, newBranch)
	if err != nil {
		return false, err
	}
	if !changed {
		rt.Splog.Warn("Skipped updating %s: baseBranchPatterns does not list exactly two branches.", config.RenovateConfigPath)
		return false, nil
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
