package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"

	githubpkg "trainline.dev/trainline/internal/github"
)

// MergeRequest is a recorded call to the merge endpoint
type MergeRequest struct {
	Number        int
	CommitTitle   string `json:"commit_title"`
	CommitMessage string `json:"commit_message"`
	MergeMethod   string `json:"merge_method"`
}

// MergeHandler decides the outcome of a merge request. It returns the HTTP
// status and, on success, the SHA of the merge commit.
type MergeHandler func(req MergeRequest) (status int, sha string)

// MockPendingPR is an open pull request returned by the GraphQL endpoint
type MockPendingPR struct {
	Number      int
	Title       string
	Mergeable   string
	UpdatedAt   time.Time
	BaseRef     string
	HeadRef     string
	HeadSHA     string
	HeadRepoURL string
}

// MockGitHubServerConfig configures the behavior of a mock GitHub server.
// Fields below the mutex are recorded by the server and can be inspected
// after the code under test has run.
type MockGitHubServerConfig struct {
	Owner string
	Repo  string

	// PRs maps pull request numbers to their REST representation
	PRs map[int]*github.PullRequest
	// Commits maps pull request numbers to their commits
	Commits map[int][]*github.RepositoryCommit
	// Branches lists the branch names known to the server
	Branches []string
	// Files maps "<ref>:<path>" to file content
	Files map[string]string
	// CheckRuns maps commit SHAs to their check runs
	CheckRuns map[string][]*github.CheckRun
	// Statuses maps commit SHAs to their legacy statuses
	Statuses map[string][]*github.RepoStatus
	// PendingPRs is returned by the GraphQL open pull request query
	PendingPRs []MockPendingPR
	// PageSize splits list responses into pages when non-zero
	PageSize int
	// MergeHandler defaults to a successful merge with a fixed SHA
	MergeHandler MergeHandler

	mu         sync.Mutex
	Merges     []MergeRequest
	Comments   map[int][]string
	ClosedPRs  []int
	CreatedPRs []*github.NewPullRequest
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		Owner:     "owner",
		Repo:      "repo",
		PRs:       make(map[int]*github.PullRequest),
		Commits:   make(map[int][]*github.RepositoryCommit),
		Files:     make(map[string]string),
		CheckRuns: make(map[string][]*github.CheckRun),
		Statuses:  make(map[string][]*github.RepoStatus),
		Comments:  make(map[int][]string),
	}
}

// AddPullRequest registers a pull request and its commits with the server
func (c *MockGitHubServerConfig) AddPullRequest(pr *github.PullRequest, commits ...*github.RepositoryCommit) {
	if pr.Commits == nil {
		pr.Commits = github.Int(len(commits))
	}
	c.PRs[pr.GetNumber()] = pr
	c.Commits[pr.GetNumber()] = commits
}

// RecordedMerges returns the merge requests received so far
func (c *MockGitHubServerConfig) RecordedMerges() []MergeRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MergeRequest(nil), c.Merges...)
}

// RecordedComments returns the comments posted on a pull request
func (c *MockGitHubServerConfig) RecordedComments(number int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Comments[number]...)
}

// RecordedClosed returns the pull requests that were closed
func (c *MockGitHubServerConfig) RecordedClosed() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.ClosedPRs...)
}

// RecordedCreated returns the pull requests that were created
func (c *MockGitHubServerConfig) RecordedCreated() []*github.NewPullRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*github.NewPullRequest(nil), c.CreatedPRs...)
}

// NewMockGitHubServer creates an httptest server that mocks the GitHub
// endpoints used by the trainline client
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	t.Helper()
	if config == nil {
		config = NewMockGitHubServerConfig()
	}

	mux := http.NewServeMux()
	base := "/repos/" + config.Owner + "/" + config.Repo

	mux.HandleFunc("GET "+base+"/pulls/{number}", func(w http.ResponseWriter, r *http.Request) {
		pr, ok := config.PRs[pathNumber(r)]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, pr)
	})

	mux.HandleFunc("GET "+base+"/pulls/{number}/commits", func(w http.ResponseWriter, r *http.Request) {
		commits := config.Commits[pathNumber(r)]
		writePage(w, r, config.PageSize, len(commits), func(lo, hi int) any { return commits[lo:hi] })
	})

	mux.HandleFunc("PUT "+base+"/pulls/{number}/merge", func(w http.ResponseWriter, r *http.Request) {
		var req MergeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		req.Number = pathNumber(r)

		config.mu.Lock()
		config.Merges = append(config.Merges, req)
		config.mu.Unlock()

		status, sha := http.StatusOK, "0000000000000000000000000000000000000000"
		if config.MergeHandler != nil {
			status, sha = config.MergeHandler(req)
		}
		if status != http.StatusOK {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		writeJSON(w, http.StatusOK, &github.PullRequestMergeResult{
			SHA:     github.String(sha),
			Merged:  github.Bool(true),
			Message: github.String("Pull Request successfully merged"),
		})
	})

	mux.HandleFunc("PATCH "+base+"/pulls/{number}", func(w http.ResponseWriter, r *http.Request) {
		var update struct {
			State *string `json:"state,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		number := pathNumber(r)
		config.mu.Lock()
		if update.State != nil && *update.State == "closed" {
			config.ClosedPRs = append(config.ClosedPRs, number)
		}
		config.mu.Unlock()
		writeJSON(w, http.StatusOK, &github.PullRequest{Number: github.Int(number), State: update.State})
	})

	mux.HandleFunc("POST "+base+"/pulls", func(w http.ResponseWriter, r *http.Request) {
		var newPR github.NewPullRequest
		if err := json.NewDecoder(r.Body).Decode(&newPR); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		config.mu.Lock()
		config.CreatedPRs = append(config.CreatedPRs, &newPR)
		number := 1000 + len(config.CreatedPRs)
		config.mu.Unlock()
		writeJSON(w, http.StatusCreated, &github.PullRequest{
			Number:  github.Int(number),
			Title:   newPR.Title,
			Body:    newPR.Body,
			Head:    &github.PullRequestBranch{Ref: newPR.Head},
			Base:    &github.PullRequestBranch{Ref: newPR.Base},
			HTMLURL: github.String("https://github.com/" + config.Owner + "/" + config.Repo + "/pull/" + strconv.Itoa(number)),
		})
	})

	mux.HandleFunc("POST "+base+"/issues/{number}/comments", func(w http.ResponseWriter, r *http.Request) {
		var comment github.IssueComment
		if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		number := pathNumber(r)
		config.mu.Lock()
		config.Comments[number] = append(config.Comments[number], comment.GetBody())
		config.mu.Unlock()
		writeJSON(w, http.StatusCreated, &comment)
	})

	mux.HandleFunc("GET "+base+"/git/matching-refs/{ref...}", func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.TrimPrefix(r.PathValue("ref"), "heads/")
		var refs []*github.Reference
		for _, branch := range config.Branches {
			if strings.HasPrefix(branch, prefix) {
				refs = append(refs, &github.Reference{Ref: github.String("refs/heads/" + branch)})
			}
		}
		writePage(w, r, config.PageSize, len(refs), func(lo, hi int) any { return refs[lo:hi] })
	})

	mux.HandleFunc("GET "+base+"/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		path := r.PathValue("path")
		content, ok := config.Files[r.URL.Query().Get("ref")+":"+path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, &github.RepositoryContent{
			Type:     github.String("file"),
			Path:     github.String(path),
			Encoding: github.String("base64"),
			Content:  github.String(base64.StdEncoding.EncodeToString([]byte(content))),
		})
	})

	mux.HandleFunc("GET "+base+"/commits/{ref}/check-runs", func(w http.ResponseWriter, r *http.Request) {
		runs := config.CheckRuns[r.PathValue("ref")]
		writeJSON(w, http.StatusOK, &github.ListCheckRunsResults{
			Total:     github.Int(len(runs)),
			CheckRuns: runs,
		})
	})

	mux.HandleFunc("GET "+base+"/commits/{ref}/status", func(w http.ResponseWriter, r *http.Request) {
		statuses := config.Statuses[r.PathValue("ref")]
		state := "pending"
		if len(statuses) > 0 {
			state = "success"
			for _, s := range statuses {
				switch s.GetState() {
				case "failure", "error":
					state = s.GetState()
				case "pending":
					if state == "success" {
						state = "pending"
					}
				}
			}
		}
		writeJSON(w, http.StatusOK, &github.CombinedStatus{
			State:      github.String(state),
			TotalCount: github.Int(len(statuses)),
			Statuses:   statuses,
		})
	})

	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				After *string `json:"after"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, graphqlPendingPage(config, req.Variables.After))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// NewMockGitHubClient creates a trainline GitHub client backed by a mock server
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) *githubpkg.RESTClient {
	t.Helper()
	if config == nil {
		config = NewMockGitHubServerConfig()
	}
	server := NewMockGitHubServer(t, config)
	client, err := githubpkg.NewClientWithHTTPClient(server.Client(), server.URL, config.Owner, config.Repo)
	require.NoError(t, err)
	return client
}

func graphqlPendingPage(config *MockGitHubServerConfig, after *string) map[string]any {
	start := 0
	if after != nil {
		start, _ = strconv.Atoi(*after)
	}
	end := len(config.PendingPRs)
	if config.PageSize > 0 && start+config.PageSize < end {
		end = start + config.PageSize
	}

	nodes := make([]map[string]any, 0, end-start)
	for _, pr := range config.PendingPRs[start:end] {
		node := map[string]any{
			"number":      pr.Number,
			"title":       pr.Title,
			"url":         "https://github.com/" + config.Owner + "/" + config.Repo + "/pull/" + strconv.Itoa(pr.Number),
			"mergeable":   pr.Mergeable,
			"updatedAt":   pr.UpdatedAt.UTC().Format(time.RFC3339),
			"baseRefName": pr.BaseRef,
			"headRefName": pr.HeadRef,
			"headRefOid":  pr.HeadSHA,
		}
		if pr.HeadRepoURL != "" {
			node["headRepository"] = map[string]string{"url": pr.HeadRepoURL}
		}
		nodes = append(nodes, node)
	}

	return map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"pullRequests": map[string]any{
					"nodes": nodes,
					"pageInfo": map[string]any{
						"hasNextPage": end < len(config.PendingPRs),
						"endCursor":   strconv.Itoa(end),
					},
				},
			},
		},
	}
}

// writePage writes one page of a list response and sets the Link header
// go-github reads NextPage from.
func writePage(w http.ResponseWriter, r *http.Request, pageSize, total int, slice func(lo, hi int) any) {
	if pageSize <= 0 {
		writeJSON(w, http.StatusOK, slice(0, total))
		return
	}
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	lo := min((page-1)*pageSize, total)
	hi := min(lo+pageSize, total)
	if hi < total {
		next := *r.URL
		q := next.Query()
		q.Set("page", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		w.Header().Set("Link", `<http://`+r.Host+next.String()+`>; rel="next"`)
	}
	writeJSON(w, http.StatusOK, slice(lo, hi))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathNumber(r *http.Request) int {
	n, _ := strconv.Atoi(r.PathValue("number"))
	return n
}
