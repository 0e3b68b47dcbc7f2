package merge

import (
	"fmt"
	"slices"
	"strings"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/tui"
)

// Options control a merge
type Options struct {
	// ForceManualBranches lets the operator pick the target branches
	ForceManualBranches bool
}

// Tool merges pull requests
type Tool struct {
	rt   *runtime.Context
	opts Options
}

// NewTool creates a merge tool
func NewTool(rt *runtime.Context, opts Options) *Tool {
	return &Tool{rt: rt, opts: opts}
}

// Merge merges a pull request into every branch its target label resolves
// to. The previously checked out branch or revision is restored afterwards.
func (t *Tool) Merge(prNumber int) error {
	rt := t.rt
	splog := rt.Splog

	dirty, err := rt.Git.HasUncommittedChanges(rt)
	if err != nil {
		return err
	}
	if dirty {
		return trainerrors.ErrUncommittedChanges
	}
	shallow, err := rt.WorkingCopy.IsShallow()
	if err != nil {
		return err
	}
	if shallow {
		return trainerrors.ErrShallowRepository
	}

	splog.Info("Loading pull request #%d", prNumber)
	pr, err := LoadAndValidatePullRequest(rt, prNumber)
	if err != nil {
		return err
	}

	if err := t.confirmValidationFailures(pr); err != nil {
		return err
	}

	if t.opts.ForceManualBranches {
		if err := t.promptTargetBranches(pr); err != nil {
			return err
		}
	}

	if pr.HasCaretakerNote {
		splog.Warn("Pull request #%d has a caretaker note: %s", pr.Number, pr.URL)
		ok, err := rt.Prompter.Confirm("Do you want to proceed merging?", false)
		if err != nil {
			return err
		}
		if !ok {
			return trainerrors.ErrUserAborted
		}
	}

	ok, err := rt.Prompter.Confirm(fmt.Sprintf("Pull request #%d will merge into: %s. Do you want to proceed?",
		pr.Number, strings.Join(pr.TargetBranches, ", ")), true)
	if err != nil {
		return err
	}
	if !ok {
		return trainerrors.ErrUserAborted
	}

	strategy := t.strategy()
	checkpoint, err := rt.WorkingCopy.Checkpoint()
	if err != nil {
		return err
	}
	defer func() {
		if err := checkpoint.Restore(rt); err != nil {
			splog.Warn("Failed to restore %s: %v", checkpoint.Ref(), err)
		}
		if err := strategy.Cleanup(rt, pr); err != nil {
			splog.Debug("Failed to delete temporary branches: %v", err)
		}
	}()

	if err := strategy.Prepare(rt, pr); err != nil {
		return err
	}
	if err := strategy.Check(rt, pr); err != nil {
		return err
	}
	if err := strategy.Merge(rt, pr); err != nil {
		return err
	}

	splog.Success("Successfully merged the pull request: #%d", pr.Number)
	return nil
}

func (t *Tool) strategy() Strategy {
	if t.rt.Config.PullRequest.GithubAPIMerge != nil {
		return NewGithubAPIStrategy(t.rt)
	}
	return NewAutosquashStrategy(t.rt)
}

// confirmValidationFailures blocks on failures that cannot be ignored and
// asks the operator to confirm the rest
func (t *Tool) confirmValidationFailures(pr *PullRequest) error {
	if len(pr.ValidationFailures) == 0 {
		return nil
	}
	splog := t.rt.Splog

	var blocking []string
	for _, f := range pr.ValidationFailures {
		if !f.CanBeForceIgnored {
			blocking = append(blocking, f.Message)
		}
	}
	if len(blocking) > 0 {
		return &trainerrors.PullRequestValidationError{PRNumber: pr.Number, Messages: blocking}
	}

	splog.Warn("Pull request #%d did not pass validation:", pr.Number)
	for _, f := range pr.ValidationFailures {
		splog.Info("  - %s", tui.Yellow(f.Message))
	}
	ok, err := t.rt.Prompter.Confirm("Do you want to forcibly ignore these validation failures?", false)
	if err != nil {
		return err
	}
	if !ok {
		return trainerrors.ErrUserAborted
	}
	return nil
}

// promptTargetBranches lets the operator choose the target branches. The
// GitHub target branch is always kept.
func (t *Tool) promptTargetBranches(pr *PullRequest) error {
	active, err := t.rt.FetchActiveReleaseTrains()
	if err != nil {
		return err
	}
	options := []string{active.Next.BranchName, active.Latest.BranchName}
	if active.ReleaseCandidate != nil {
		options = append(options, active.ReleaseCandidate.BranchName)
	}
	if active.ExceptionalMinor != nil {
		options = append(options, active.ExceptionalMinor.BranchName)
	}
	options = without(options, pr.GithubTargetBranch)
	for _, b := range pr.TargetBranches {
		if b != pr.GithubTargetBranch && !slices.Contains(options, b) {
			options = append(options, b)
		}
	}
	if len(options) == 0 {
		return nil
	}

	selected, err := t.rt.Prompter.MultiSelect(
		fmt.Sprintf("Pull request #%d is merged into %s. Select the branches to cherry-pick into:", pr.Number, pr.GithubTargetBranch),
		options, without(pr.TargetBranches, pr.GithubTargetBranch))
	if err != nil {
		return err
	}
	pr.TargetBranches = append([]string{pr.GithubTargetBranch}, without(selected, pr.GithubTargetBranch)...)
	return nil
}
