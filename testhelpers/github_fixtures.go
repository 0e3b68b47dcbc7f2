package testhelpers

import (
	"strconv"

	"github.com/google/go-github/v62/github"
)

// SamplePRData provides common PR data for testing
type SamplePRData struct {
	Number              int
	Title               string
	Body                string
	Author              string
	Head                string
	HeadSHA             string
	HeadRepoURL         string
	Base                string
	Draft               bool
	State               string
	Labels              []string
	MaintainerCanModify bool
}

// NewSamplePullRequest creates a github.PullRequest from sample data
func NewSamplePullRequest(data SamplePRData) *github.PullRequest {
	pr := &github.PullRequest{
		Number:              github.Int(data.Number),
		Title:               github.String(data.Title),
		Body:                github.String(data.Body),
		User:                &github.User{Login: github.String(data.Author)},
		Head:                &github.PullRequestBranch{Ref: github.String(data.Head), SHA: github.String(data.HeadSHA)},
		Base:                &github.PullRequestBranch{Ref: github.String(data.Base)},
		HTMLURL:             github.String("https://github.com/owner/repo/pull/" + strconv.Itoa(data.Number)),
		Draft:               github.Bool(data.Draft),
		State:               github.String(data.State),
		MaintainerCanModify: github.Bool(data.MaintainerCanModify),
	}
	if data.HeadRepoURL != "" {
		pr.Head.Repo = &github.Repository{CloneURL: github.String(data.HeadRepoURL)}
	}
	for _, label := range data.Labels {
		pr.Labels = append(pr.Labels, &github.Label{Name: github.String(label)})
	}
	return pr
}

// DefaultPRData returns a default PR data structure for testing
func DefaultPRData() SamplePRData {
	return SamplePRData{
		Number:              123,
		Title:               "fix(core): handle empty input",
		Body:                "This is a test pull request",
		Author:              "contributor",
		Head:                "feature-branch",
		HeadRepoURL:         "https://github.com/contributor/repo.git",
		Base:                "main",
		State:               "open",
		Labels:              []string{"action: merge", "target: patch"},
		MaintainerCanModify: true,
	}
}

// DraftPRData returns PR data for a draft PR
func DraftPRData() SamplePRData {
	data := DefaultPRData()
	data.Draft = true
	return data
}

// ClosedPRData returns PR data for a closed PR
func ClosedPRData() SamplePRData {
	data := DefaultPRData()
	data.State = "closed"
	return data
}

// NewSampleCommit creates a pull request commit with the given message
func NewSampleCommit(sha, message string) *github.RepositoryCommit {
	return &github.RepositoryCommit{
		SHA:    github.String(sha),
		Commit: &github.Commit{Message: github.String(message)},
	}
}
