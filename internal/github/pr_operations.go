package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
)

// Check run conclusions and commit states that count as failing or pending
const (
	checkConclusionFailure        = "FAILURE"
	checkConclusionCanceled       = "CANCELLED"
	checkConclusionTimedOut       = "TIMED_OUT"
	checkConclusionActionRequired = "ACTION_REQUIRED"
	checkStatePending             = "PENDING"
	checkStateFailure             = "FAILURE"
	checkStateError               = "ERROR"
)

const perPage = 100

// GetPullRequest returns a pull request, or nil if it does not exist
func (c *RESTClient) GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return toPullRequestInfo(pr), nil
}

// ListPullRequestCommits returns every commit of a pull request, oldest first
func (c *RESTClient) ListPullRequestCommits(ctx context.Context, number int) ([]CommitInfo, error) {
	var commits []CommitInfo
	opts := &github.ListOptions{PerPage: perPage}
	for {
		page, resp, err := c.gh.PullRequests.ListCommits(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits of pull request #%d: %w", number, err)
		}
		for _, rc := range page {
			info := CommitInfo{
				SHA:     rc.GetSHA(),
				Message: rc.GetCommit().GetMessage(),
			}
			for _, parent := range rc.Parents {
				info.ParentSHAs = append(info.ParentSHAs, parent.GetSHA())
			}
			commits = append(commits, info)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return commits, nil
}

// MergePullRequest merges a pull request through the merge endpoint. HTTP
// failures are reported through MergeResult.StatusCode rather than as errors.
func (c *RESTClient) MergePullRequest(ctx context.Context, number int, opts MergeOptions) (*MergeResult, error) {
	result, resp, err := c.gh.PullRequests.Merge(ctx, c.owner, c.repo, number, opts.CommitMessage, &github.PullRequestOptions{
		CommitTitle: opts.CommitTitle,
		MergeMethod: string(opts.Method),
	})
	if err != nil {
		if resp == nil {
			return nil, fmt.Errorf("failed to merge pull request #%d: %w", number, err)
		}
		message := err.Error()
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) {
			message = errResp.Message
		}
		return &MergeResult{StatusCode: resp.StatusCode, Message: message}, nil
	}
	return &MergeResult{
		StatusCode: resp.StatusCode,
		SHA:        result.GetSHA(),
		Message:    result.GetMessage(),
	}, nil
}

// CreateComment posts a comment on a pull request
func (c *RESTClient) CreateComment(ctx context.Context, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to comment on pull request #%d: %w", number, err)
	}
	return nil
}

// ClosePullRequest closes a pull request without merging it
func (c *RESTClient) ClosePullRequest(ctx context.Context, number int) error {
	_, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, &github.PullRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return fmt.Errorf("failed to close pull request #%d: %w", number, err)
	}
	return nil
}

// CreatePullRequest creates a new pull request
func (c *RESTClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error) {
	pr := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(opts.Head),
		Base:  github.String(opts.Base),
	}
	if opts.Body != "" {
		pr.Body = github.String(opts.Body)
	}

	created, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return toPullRequestInfo(created), nil
}

// ListMatchingBranches returns the branch names starting with prefix
func (c *RESTClient) ListMatchingBranches(ctx context.Context, prefix string) ([]string, error) {
	var branches []string
	opts := &github.ReferenceListOptions{
		Ref:         "heads/" + prefix,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		refs, resp, err := c.gh.Git.ListMatchingRefs(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list branches matching %q: %w", prefix, err)
		}
		for _, ref := range refs {
			branches = append(branches, strings.TrimPrefix(ref.GetRef(), "refs/heads/"))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return branches, nil
}

// GetFileContents returns the content of a file at a ref
func (c *RESTClient) GetFileContents(ctx context.Context, path, ref string) ([]byte, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", path, ref, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s at %s is not a file", path, ref)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s at %s: %w", path, ref, err)
	}
	return []byte(content), nil
}

// GetChecksStatus returns the combined CI status of a commit. Check runs are
// the primary source; the legacy combined status is used for failures, and
// for pending only when there are no check runs.
func (c *RESTClient) GetChecksStatus(ctx context.Context, sha string) (ChecksStatus, error) {
	checkRuns, _, err := c.gh.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, sha, &github.ListCheckRunsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return ChecksNone, fmt.Errorf("failed to list check runs for %s: %w", sha, err)
	}
	combined, _, err := c.gh.Repositories.GetCombinedStatus(ctx, c.owner, c.repo, sha, nil)
	if err != nil {
		return ChecksNone, fmt.Errorf("failed to get combined status for %s: %w", sha, err)
	}

	hasPending := false
	hasFailing := false
	for _, run := range checkRuns.CheckRuns {
		status := strings.ToUpper(run.GetStatus())
		if status == "QUEUED" || status == "IN_PROGRESS" {
			hasPending = true
		}
		switch strings.ToUpper(run.GetConclusion()) {
		case checkConclusionFailure, checkConclusionCanceled, checkConclusionTimedOut, checkConclusionActionRequired:
			hasFailing = true
		}
	}

	state := strings.ToUpper(combined.GetState())
	if state == checkStateFailure || state == checkStateError {
		hasFailing = true
	}
	// A commit without any statuses reports "pending" as its combined state.
	if len(checkRuns.CheckRuns) == 0 && state == checkStatePending && combined.GetTotalCount() > 0 {
		hasPending = true
	}

	switch {
	case hasFailing:
		return ChecksFailing, nil
	case hasPending:
		return ChecksPending, nil
	case len(checkRuns.CheckRuns) == 0 && combined.GetTotalCount() == 0:
		return ChecksNone, nil
	default:
		return ChecksPassing, nil
	}
}

func toPullRequestInfo(pr *github.PullRequest) *PullRequestInfo {
	info := &PullRequestInfo{
		Number:              pr.GetNumber(),
		Title:               pr.GetTitle(),
		Body:                pr.GetBody(),
		HTMLURL:             pr.GetHTMLURL(),
		Author:              pr.GetUser().GetLogin(),
		State:               pr.GetState(),
		Merged:              pr.GetMerged(),
		Draft:               pr.GetDraft(),
		BaseRef:             pr.GetBase().GetRef(),
		HeadRef:             pr.GetHead().GetRef(),
		HeadSHA:             pr.GetHead().GetSHA(),
		HeadRepoURL:         pr.GetHead().GetRepo().GetCloneURL(),
		CommitCount:         pr.GetCommits(),
		MaintainerCanModify: pr.GetMaintainerCanModify(),
	}
	for _, label := range pr.Labels {
		info.Labels = append(info.Labels, label.GetName())
	}
	return info
}
