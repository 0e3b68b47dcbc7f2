// Package errors provides sentinel errors, typed errors and error kinds for the trainline application.
// Use errors.Is() and errors.As() to check for specific error types, or KindOf to classify an error.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrUserAborted indicates that the operator declined a confirmation prompt
	ErrUserAborted = errors.New("aborted by user")

	// ErrUncommittedChanges indicates that the working copy has local modifications
	ErrUncommittedChanges = errors.New("local working repository has uncommitted changes")

	// ErrShallowRepository indicates that the local clone is shallow
	ErrShallowRepository = errors.New("local repository is configured as shallow")

	// ErrPullRequestNotFound indicates that a pull request does not exist upstream
	ErrPullRequestNotFound = errors.New("pull request not found")

	// ErrInteractiveDisabled is returned when a prompt is required but prompts are disabled
	ErrInteractiveDisabled = errors.New("interactive prompts are disabled")
)

// Kind classifies an error for reporting at the command boundary.
type Kind int

// Error kinds
const (
	KindUnknown Kind = iota
	KindConfig
	KindTargetLabel
	KindTargetBranch
	KindReleaseTrains
	KindValidation
	KindMergeConflict
	KindFatalMerge
	KindGitCommand
	KindUserAborted
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTargetLabel:
		return "target-label"
	case KindTargetBranch:
		return "target-branch"
	case KindReleaseTrains:
		return "release-trains"
	case KindValidation:
		return "validation"
	case KindMergeConflict:
		return "merge-conflict"
	case KindFatalMerge:
		return "fatal-merge"
	case KindGitCommand:
		return "git-command"
	case KindUserAborted:
		return "user-aborted"
	default:
		return "unknown"
	}
}

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, ErrUserAborted) {
		return KindUserAborted
	}
	return KindUnknown
}

// ConfigError lists problems found in the project configuration
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return "invalid configuration:\n  - " + strings.Join(e.Problems, "\n  - ")
}

// Kind implements kinded
func (e *ConfigError) Kind() Kind { return KindConfig }

// NewConfigError creates a new ConfigError
func NewConfigError(problems ...string) *ConfigError {
	return &ConfigError{Problems: problems}
}

// InvalidTargetLabelError indicates that the target label of a pull request cannot be used
type InvalidTargetLabelError struct {
	Message string
}

func (e *InvalidTargetLabelError) Error() string {
	return e.Message
}

// Kind implements kinded
func (e *InvalidTargetLabelError) Kind() Kind { return KindTargetLabel }

// NewInvalidTargetLabelError creates a new InvalidTargetLabelError
func NewInvalidTargetLabelError(format string, args ...any) *InvalidTargetLabelError {
	return &InvalidTargetLabelError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTargetBranchError indicates that a pull request points at a branch its label does not allow
type InvalidTargetBranchError struct {
	Message string
}

func (e *InvalidTargetBranchError) Error() string {
	return e.Message
}

// Kind implements kinded
func (e *InvalidTargetBranchError) Kind() Kind { return KindTargetBranch }

// NewInvalidTargetBranchError creates a new InvalidTargetBranchError
func NewInvalidTargetBranchError(format string, args ...any) *InvalidTargetBranchError {
	return &InvalidTargetBranchError{Message: fmt.Sprintf(format, args...)}
}

// ReleaseTrainsError indicates that the version branches do not describe a consistent set of release trains
type ReleaseTrainsError struct {
	Message string
}

func (e *ReleaseTrainsError) Error() string {
	return e.Message
}

// Kind implements kinded
func (e *ReleaseTrainsError) Kind() Kind { return KindReleaseTrains }

// NewReleaseTrainsError creates a new ReleaseTrainsError
func NewReleaseTrainsError(format string, args ...any) *ReleaseTrainsError {
	return &ReleaseTrainsError{Message: fmt.Sprintf(format, args...)}
}

// PullRequestValidationError is returned when a pull request fails validations that cannot be ignored
type PullRequestValidationError struct {
	PRNumber int
	Messages []string
}

func (e *PullRequestValidationError) Error() string {
	return fmt.Sprintf("pull request #%d did not pass validation: %s", e.PRNumber, strings.Join(e.Messages, "; "))
}

// Kind implements kinded
func (e *PullRequestValidationError) Kind() Kind { return KindValidation }

// FatalMergeToolError is an unrecoverable error raised while merging
type FatalMergeToolError struct {
	Message string
	Err     error
}

func (e *FatalMergeToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FatalMergeToolError) Unwrap() error {
	return e.Err
}

// Kind implements kinded
func (e *FatalMergeToolError) Kind() Kind { return KindFatalMerge }

// NewFatalMergeToolError creates a new FatalMergeToolError
func NewFatalMergeToolError(message string, err error) *FatalMergeToolError {
	return &FatalMergeToolError{Message: message, Err: err}
}

// MergeConflictsFatalError reports the branches a pull request could not be applied to
type MergeConflictsFatalError struct {
	Branches []string
}

func (e *MergeConflictsFatalError) Error() string {
	return fmt.Sprintf("could not merge pull request into the following branches due to merge conflicts: %s. Please manually cherry-pick the pull request", strings.Join(e.Branches, ", "))
}

// Kind implements kinded
func (e *MergeConflictsFatalError) Kind() Kind { return KindMergeConflict }

// NewMergeConflictsFatalError creates a new MergeConflictsFatalError
func NewMergeConflictsFatalError(branches []string) *MergeConflictsFatalError {
	return &MergeConflictsFatalError{Branches: branches}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// Kind implements kinded
func (e *GitCommandError) Kind() Kind { return KindGitCommand }

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// Redact returns a copy of the error with every occurrence of secret masked.
func (e *GitCommandError) Redact(secret string) *GitCommandError {
	if secret == "" {
		return e
	}
	mask := func(s string) string { return strings.ReplaceAll(s, secret, "<TOKEN>") }
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = mask(a)
	}
	return &GitCommandError{
		Command: e.Command,
		Args:    args,
		Stdout:  mask(e.Stdout),
		Stderr:  mask(e.Stderr),
		Err:     e.Err,
	}
}
