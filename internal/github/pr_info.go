package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"trainline.dev/trainline/internal/git"
)

// ClientOptions configure a RESTClient
type ClientOptions struct {
	Hostname string
	Owner    string
	Repo     string
	Token    string
}

// RESTClient implements Client with go-github for REST calls and a raw
// GraphQL endpoint for queries the REST API cannot answer in one round trip.
type RESTClient struct {
	gh         *github.Client
	httpClient *http.Client
	owner      string
	repo       string
	graphqlURL string
}

var _ Client = (*RESTClient)(nil)

// NewClient creates a GitHub client configured for the given hostname.
// Requests go through the secondary rate limit middleware and are
// authenticated with the token.
func NewClient(ctx context.Context, opts ClientOptions) (*RESTClient, error) {
	rateLimited := github_ratelimit.NewClient(http.DefaultTransport)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, rateLimited)
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: opts.Token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	hostname := opts.Hostname
	if hostname == "" {
		hostname = "github.com"
	}

	graphqlURL := "https://api.github.com/graphql"
	// Configure for GitHub Enterprise if not github.com
	if hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
		}
		client.BaseURL = baseURL
		client.UploadURL = uploadURL
		graphqlURL = fmt.Sprintf("https://%s/api/graphql", hostname)
	}

	return &RESTClient{
		gh:         client,
		httpClient: tc,
		owner:      opts.Owner,
		repo:       opts.Repo,
		graphqlURL: graphqlURL,
	}, nil
}

// NewClientWithHTTPClient creates a RESTClient against a custom base URL.
// GraphQL requests go to <baseURL>/graphql. Used with httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) (*RESTClient, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := github.NewClient(httpClient)

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u
	client.UploadURL = u

	graphqlU := *u
	graphqlU.Path = strings.TrimSuffix(u.Path, "/") + "/graphql"

	return &RESTClient{
		gh:         client,
		httpClient: httpClient,
		owner:      owner,
		repo:       repo,
		graphqlURL: graphqlU.String(),
	}, nil
}

// GetOwnerRepo returns the repository owner and name
func (c *RESTClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// ResolveToken returns the configured token, falling back to GITHUB_TOKEN
// and finally to the gh CLI.
func ResolveToken(ctx context.Context, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	output, err := git.RunGHCommand(ctx, "auth", "token")
	if err != nil {
		return "", fmt.Errorf("no GitHub token: pass --github-token, set GITHUB_TOKEN or log in with gh: %w", err)
	}

	token := strings.TrimSpace(output)
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}

// RepoInfo contains parsed information from a git remote URL
type RepoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseGitHubRemoteURL parses a git remote URL and extracts hostname, owner, and repo
// Examples:
//   - https://github.com/owner/repo.git
//   - git@github.com:owner/repo.git
//   - ssh://git@github.company.com/owner/repo.git
func ParseGitHubRemoteURL(remoteURL string) (*RepoInfo, error) {
	remoteURL = strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")

	var hostname, path string
	switch {
	case strings.Contains(remoteURL, "://"):
		u, err := url.Parse(remoteURL)
		if err != nil {
			return nil, fmt.Errorf("invalid remote URL: %w", err)
		}
		hostname = u.Hostname()
		path = strings.TrimPrefix(u.Path, "/")
	case strings.Contains(remoteURL, "@") && strings.Contains(remoteURL, ":"):
		// scp-like syntax: git@hostname:owner/repo
		hostAndPath := remoteURL[strings.Index(remoteURL, "@")+1:]
		parts := strings.SplitN(hostAndPath, ":", 2)
		hostname, path = parts[0], parts[1]
	default:
		return nil, fmt.Errorf("unsupported remote URL format: %s", remoteURL)
	}

	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return nil, fmt.Errorf("invalid remote URL: path must be owner/repo")
	}
	owner := segments[len(segments)-2]
	repo := segments[len(segments)-1]

	if hostname == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("failed to parse hostname, owner, or repo from remote URL")
	}

	return &RepoInfo{
		Hostname: hostname,
		Owner:    owner,
		Repo:     repo,
	}, nil
}
