package targeting

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/registry"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/internal/tui"
)

// Support windows of a major, counted from its first stable release
const (
	activeSupportMonths = 6
	ltsSupportMonths    = 12
)

// LTSChecker verifies that a branch is the active long-term support branch
// of its major
type LTSChecker struct {
	Repo     trains.VersionBranchRepository
	Registry registry.Client
	// Package is the npm package whose dist-tags describe LTS versions
	Package  string
	Prompter tui.Prompter
	Splog    *tui.Splog
	Now      func() time.Time
}

// AssertActiveLTSBranch checks the branch against the registry's LTS
// dist-tag of its major. A branch past its LTS end date is only accepted
// when the operator confirms.
func (c *LTSChecker) AssertActiveLTSBranch(ctx context.Context, branch string) error {
	info, err := c.Repo.BranchVersion(ctx, branch)
	if err != nil {
		return err
	}
	major := info.Version.Major()

	pkg, err := c.Registry.FetchPackageInfo(ctx, c.Package)
	if err != nil {
		return err
	}

	ltsTag := fmt.Sprintf("v%d-lts", major)
	ltsVersion, ok := pkg.DistTags[ltsTag]
	if !ok {
		return trainerrors.NewInvalidTargetBranchError(
			"no LTS version tagged for v%d in the registry. Are you sure this branch targets an active LTS version?", major)
	}
	parsed, err := semver.NewVersion(ltsVersion)
	if err != nil {
		return fmt.Errorf("invalid version %q for dist-tag %s: %w", ltsVersion, ltsTag, err)
	}
	if expected := trains.BranchNameFromVersion(parsed); expected != branch {
		return trainerrors.NewInvalidTargetBranchError(
			"not using last-minor branch for v%d LTS version. PR should be updated to target: %s", major, expected)
	}

	released, ok := pkg.Time[fmt.Sprintf("%d.0.0", major)]
	if !ok {
		return fmt.Errorf("no publish time recorded for %d.0.0 of %s", major, c.Package)
	}
	end := LTSEndDate(released)

	if c.now().After(end) {
		endText := end.Format("2006-01-02")
		if c.Splog != nil {
			c.Splog.Warn("Long-term support ended for v%d on %s.", major, endText)
		}
		confirmed, err := c.Prompter.Confirm("Do you want to override this and merge the PR into an inactive LTS branch?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			return trainerrors.NewInvalidTargetBranchError("long-term support ended for v%d on %s", major, endText)
		}
	}
	return nil
}

// LTSEndDate returns when long-term support ends for a major first
// released at the given time
func LTSEndDate(released time.Time) time.Time {
	return released.AddDate(0, activeSupportMonths+ltsSupportMonths, 0)
}

func (c *LTSChecker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
