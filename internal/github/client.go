// Package github provides a client for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"time"
)

// PullRequestInfo contains information about a pull request
// This is a simplified struct to avoid coupling to go-github library
type PullRequestInfo struct {
	Number              int
	Title               string
	Body                string
	HTMLURL             string
	Author              string
	State               string // open, closed
	Merged              bool
	Draft               bool
	Labels              []string
	BaseRef             string
	HeadRef             string
	HeadSHA             string
	HeadRepoURL         string
	CommitCount         int
	MaintainerCanModify bool
}

// CommitInfo is a commit that is part of a pull request
type CommitInfo struct {
	SHA        string
	Message    string
	ParentSHAs []string
}

// PendingPullRequest is an open pull request as returned by the GraphQL API
type PendingPullRequest struct {
	Number      int
	Title       string
	URL         string
	Mergeable   string // MERGEABLE, CONFLICTING, UNKNOWN
	UpdatedAt   time.Time
	BaseRef     string
	HeadRef     string
	HeadSHA     string
	HeadRepoURL string
}

// MergeMethod is the method GitHub uses to merge a pull request
type MergeMethod string

// Merge methods supported by the GitHub merge endpoint
const (
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodRebase MergeMethod = "rebase"
)

// UnmarshalText parses a merge method from configuration
func (m *MergeMethod) UnmarshalText(text []byte) error {
	switch method := MergeMethod(text); method {
	case MergeMethodMerge, MergeMethodSquash, MergeMethodRebase:
		*m = method
		return nil
	}
	return fmt.Errorf("invalid merge method %q, expected merge, squash or rebase", string(text))
}

// MergeOptions contains options for merging a pull request
type MergeOptions struct {
	Method        MergeMethod
	CommitTitle   string
	CommitMessage string
}

// MergeResult is the outcome of a merge request. StatusCode carries the HTTP
// status so callers can branch on 403/404/405 themselves.
type MergeResult struct {
	StatusCode int
	SHA        string
	Message    string
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// ChecksStatus is the combined state of CI checks on a commit
type ChecksStatus int

// Check states
const (
	ChecksNone ChecksStatus = iota
	ChecksPassing
	ChecksPending
	ChecksFailing
)

func (s ChecksStatus) String() string {
	switch s {
	case ChecksPassing:
		return "passing"
	case ChecksPending:
		return "pending"
	case ChecksFailing:
		return "failing"
	default:
		return "none"
	}
}

// Client is an interface for GitHub API interactions
type Client interface {
	// GetPullRequest returns a pull request, or nil if it does not exist
	GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error)

	// ListPullRequestCommits returns every commit of a pull request, oldest first
	ListPullRequestCommits(ctx context.Context, number int) ([]CommitInfo, error)

	// MergePullRequest merges a pull request through the merge endpoint
	MergePullRequest(ctx context.Context, number int, opts MergeOptions) (*MergeResult, error)

	// CreateComment posts a comment on a pull request
	CreateComment(ctx context.Context, number int, body string) error

	// ClosePullRequest closes a pull request without merging it
	ClosePullRequest(ctx context.Context, number int) error

	// CreatePullRequest creates a new pull request
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error)

	// ListMatchingBranches returns the branch names starting with prefix
	ListMatchingBranches(ctx context.Context, prefix string) ([]string, error)

	// GetFileContents returns the content of a file at a ref
	GetFileContents(ctx context.Context, path, ref string) ([]byte, error)

	// GetChecksStatus returns the combined CI status of a commit
	GetChecksStatus(ctx context.Context, sha string) (ChecksStatus, error)

	// ListPendingPullRequests returns every open pull request
	ListPendingPullRequests(ctx context.Context) ([]PendingPullRequest, error)

	// GetOwnerRepo returns the repository owner and name
	GetOwnerRepo() (owner, repo string)
}
