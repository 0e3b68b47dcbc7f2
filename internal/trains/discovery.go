package trains

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	trainerrors "trainline.dev/trainline/internal/errors"
)

// discoveryMode holds the rules that depend on which minor the next branch
// is at. The set of implementations is closed; see modeFor.
type discoveryMode interface {
	majorsToFetch() []uint64
	isValidReleaseCandidateVersion(v *semver.Version) bool
	canHaveExceptionalMinor(rc *ReleaseTrain) bool
	isValidExceptionalMinorVersion(rc *ReleaseTrain, v *semver.Version) bool
}

// newMajorMode applies when next is at minor 0 and will release a new major
type newMajorMode struct{ next *semver.Version }

func (m newMajorMode) majorsToFetch() []uint64 {
	var majors []uint64
	for offset := uint64(1); offset <= 2; offset++ {
		if m.next.Major() >= offset {
			majors = append(majors, m.next.Major()-offset)
		}
	}
	return majors
}

func (m newMajorMode) isValidReleaseCandidateVersion(v *semver.Version) bool {
	return m.next.Major() > 0 && v.Major() == m.next.Major()-1
}

func (m newMajorMode) canHaveExceptionalMinor(rc *ReleaseTrain) bool {
	return rc == nil || rc.IsMajor
}

func (m newMajorMode) isValidExceptionalMinorVersion(rc *ReleaseTrain, v *semver.Version) bool {
	major := m.next.Major()
	if rc != nil {
		major = rc.Version.Major()
	}
	return major > 0 && v.Major() == major-1
}

// firstMinorMode applies when next is at minor 1, right after a major
type firstMinorMode struct{ next *semver.Version }

func (m firstMinorMode) majorsToFetch() []uint64 {
	if m.next.Major() == 0 {
		return []uint64{0}
	}
	return []uint64{m.next.Major(), m.next.Major() - 1}
}

func (m firstMinorMode) isValidReleaseCandidateVersion(v *semver.Version) bool {
	return v.Major() == m.next.Major()
}

func (m firstMinorMode) canHaveExceptionalMinor(rc *ReleaseTrain) bool {
	return rc != nil && rc.IsMajor
}

func (m firstMinorMode) isValidExceptionalMinorVersion(rc *ReleaseTrain, v *semver.Version) bool {
	return rc != nil && rc.Version.Major() > 0 && v.Major() == rc.Version.Major()-1
}

// regularMode applies to every other minor of next
type regularMode struct{ next *semver.Version }

func (m regularMode) majorsToFetch() []uint64 {
	return []uint64{m.next.Major()}
}

func (m regularMode) isValidReleaseCandidateVersion(v *semver.Version) bool {
	return v.Major() == m.next.Major()
}

func (m regularMode) canHaveExceptionalMinor(*ReleaseTrain) bool {
	return false
}

func (m regularMode) isValidExceptionalMinorVersion(*ReleaseTrain, *semver.Version) bool {
	return false
}

func modeFor(next *semver.Version) discoveryMode {
	switch next.Minor() {
	case 0:
		return newMajorMode{next: next}
	case 1:
		return firstMinorMode{next: next}
	default:
		return regularMode{next: next}
	}
}

// MajorsToFetch returns the majors whose version branches can hold active
// release trains when next is at the given version
func MajorsToFetch(next *semver.Version) []uint64 {
	return modeFor(next).majorsToFetch()
}

// Fetch determines the active release trains from the version branches
// of the repository and the version in the next branch.
func Fetch(ctx context.Context, repo VersionBranchRepository, nextBranchName string) (*ActiveReleaseTrains, error) {
	nextInfo, err := repo.BranchVersion(ctx, nextBranchName)
	if err != nil {
		return nil, fmt.Errorf("failed to read the version of the %s branch: %w", nextBranchName, err)
	}
	next := NewReleaseTrain(nextBranchName, nextInfo.Version)
	mode := modeFor(next.Version)

	branches, err := repo.VersionBranches(ctx, mode.majorsToFetch())
	if err != nil {
		return nil, fmt.Errorf("failed to list version branches: %w", err)
	}

	trains := &ActiveReleaseTrains{Next: next}
	floor := semver.New(next.Version.Major(), next.Version.Minor(), 0, "", "")

	for _, branch := range branches {
		if !branch.Parsed.LessThan(floor) {
			return nil, trainerrors.NewReleaseTrainsError(
				"discovered unexpected version-branch %q for a release-train that is more recent than "+
					"the release-train currently in the %q branch. Please either delete the branch if "+
					"created by accident, or update the outdated version in the next branch (%s)",
				branch.Name, nextBranchName, next.Version)
		}

		info, err := repo.BranchVersion(ctx, branch.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read the version of the %s branch: %w", branch.Name, err)
		}
		train := NewReleaseTrain(branch.Name, info.Version)

		switch {
		case info.IsExceptionalMinor:
			if trains.ExceptionalMinor != nil {
				return nil, trainerrors.NewReleaseTrainsError(
					"unable to determine latest release-train. Found two consecutive exceptional minor "+
						"branches: %s and %s", trains.ExceptionalMinor.BranchName, branch.Name)
			}
			if !mode.canHaveExceptionalMinor(trains.ReleaseCandidate) {
				return nil, trainerrors.NewReleaseTrainsError(
					"unable to determine latest release-train. Found an exceptional minor version branch "+
						"(%s) in an invalid phase of the release pipeline", branch.Name)
			}
			if !mode.isValidExceptionalMinorVersion(trains.ReleaseCandidate, info.Version) {
				return nil, trainerrors.NewReleaseTrainsError(
					"unable to determine latest release-train. Found an exceptional minor version branch "+
						"(%s) with an invalid version (%s)", branch.Name, info.Version)
			}
			trains.ExceptionalMinor = train
			continue

		case IsPrerelease(info.Version):
			if trains.ExceptionalMinor != nil {
				return nil, trainerrors.NewReleaseTrainsError(
					"unable to determine latest release-train. Found a feature-freeze/release-candidate "+
						"branch (%s) older than the exceptional minor branch (%s)",
					branch.Name, trains.ExceptionalMinor.BranchName)
			}
			if trains.ReleaseCandidate != nil {
				return nil, trainerrors.NewReleaseTrainsError(
					"unable to determine latest release-train. Found two consecutive branches in "+
						"feature-freeze/release-candidate phase. Did not expect both %q and %q to be "+
						"in feature-freeze/release-candidate mode",
					trains.ReleaseCandidate.BranchName, branch.Name)
			}
			if !mode.isValidReleaseCandidateVersion(info.Version) {
				return nil, trainerrors.NewReleaseTrainsError(
					"discovered unexpected old feature-freeze/release-candidate branch %q. Expected no "+
						"version-branch in feature-freeze/release-candidate mode for v%d",
					branch.Name, info.Version.Major())
			}
			trains.ReleaseCandidate = train
			continue
		}

		trains.Latest = train
		break
	}

	if trains.Latest == nil {
		return nil, trainerrors.NewReleaseTrainsError(
			"unable to determine the latest release-train. The following branches have been considered: [%s]",
			branchNames(branches))
	}
	return trains, nil
}

func branchNames(branches []VersionBranch) string {
	names := ""
	for i, b := range branches {
		if i > 0 {
			names += ", "
		}
		names += b.Name
	}
	return names
}
