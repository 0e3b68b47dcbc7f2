// Package registry reads package metadata from an npm registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
)

// DefaultURL is the public npm registry
const DefaultURL = "https://registry.npmjs.org"

// PackageInfo is the subset of a registry package document the release
// tooling reads.
type PackageInfo struct {
	DistTags map[string]string    `json:"dist-tags"`
	Time     map[string]time.Time `json:"time"`
}

// Client fetches package documents from a registry
type Client interface {
	FetchPackageInfo(ctx context.Context, name string) (*PackageInfo, error)
}

// HTTPClient is a Client backed by an in-memory HTTP cache, so repeated
// lookups of the same package within one invocation hit the network once.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewClient creates a registry client for baseURL. An empty baseURL
// selects the public npm registry.
func NewClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpcache.NewMemoryCacheTransport().Client(),
	}
}

// FetchPackageInfo returns the dist-tags and publish times of a package
func (c *HTTPClient) FetchPackageInfo(ctx context.Context, name string) (*PackageInfo, error) {
	// Scoped packages keep their "@" but the separator must be escaped.
	url := c.baseURL + "/" + strings.ReplaceAll(name, "/", "%2F")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from the registry: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s from the registry: status %d", name, resp.StatusCode)
	}

	// The cache only stores bodies that were read to EOF.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry document for %s: %w", name, err)
	}
	var info PackageInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode registry document for %s: %w", name, err)
	}
	return &info, nil
}
