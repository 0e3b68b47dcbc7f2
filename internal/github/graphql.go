package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const pendingPullRequestsQuery = `query($owner: String!, $name: String!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(first: 100, after: $after, states: OPEN) {
      nodes {
        number
        title
        url
        mergeable
        updatedAt
        baseRefName
        headRefName
        headRefOid
        headRepository { url }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type pendingPullRequestsResponse struct {
	Data struct {
		Repository struct {
			PullRequests struct {
				Nodes []struct {
					Number         int       `json:"number"`
					Title          string    `json:"title"`
					URL            string    `json:"url"`
					Mergeable      string    `json:"mergeable"`
					UpdatedAt      time.Time `json:"updatedAt"`
					BaseRefName    string    `json:"baseRefName"`
					HeadRefName    string    `json:"headRefName"`
					HeadRefOid     string    `json:"headRefOid"`
					HeadRepository *struct {
						URL string `json:"url"`
					} `json:"headRepository"`
				} `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"pullRequests"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// ListPendingPullRequests returns every open pull request
func (c *RESTClient) ListPendingPullRequests(ctx context.Context) ([]PendingPullRequest, error) {
	var prs []PendingPullRequest
	var after *string
	for {
		var resp pendingPullRequestsResponse
		err := c.graphql(ctx, pendingPullRequestsQuery, map[string]any{
			"owner": c.owner,
			"name":  c.repo,
			"after": after,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("failed to list open pull requests: %w", err)
		}
		if len(resp.Errors) > 0 {
			messages := make([]string, 0, len(resp.Errors))
			for _, e := range resp.Errors {
				messages = append(messages, e.Message)
			}
			return nil, fmt.Errorf("failed to list open pull requests: %s", strings.Join(messages, "; "))
		}

		page := resp.Data.Repository.PullRequests
		for _, node := range page.Nodes {
			pr := PendingPullRequest{
				Number:    node.Number,
				Title:     node.Title,
				URL:       node.URL,
				Mergeable: node.Mergeable,
				UpdatedAt: node.UpdatedAt,
				BaseRef:   node.BaseRefName,
				HeadRef:   node.HeadRefName,
				HeadSHA:   node.HeadRefOid,
			}
			if node.HeadRepository != nil {
				pr.HeadRepoURL = node.HeadRepository.URL
			}
			prs = append(prs, pr)
		}

		if !page.PageInfo.HasNextPage {
			break
		}
		cursor := page.PageInfo.EndCursor
		after = &cursor
	}
	return prs, nil
}

func (c *RESTClient) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
