package git

import (
	"fmt"
	"net/url"
)

// RemoteURLOptions describe how to address the upstream repository
type RemoteURLOptions struct {
	Hostname string
	Owner    string
	Name     string
	Token    string
	UseSSH   bool
	// Override replaces the computed URL entirely (mirrors, local paths in tests)
	Override string
}

// AuthenticatedRemoteURL returns the URL git commands use to reach upstream.
// HTTPS URLs embed the access token so fetch and push work without a credential helper.
func AuthenticatedRemoteURL(opts RemoteURLOptions) string {
	if opts.Override != "" {
		return opts.Override
	}
	hostname := opts.Hostname
	if hostname == "" {
		hostname = "github.com"
	}
	if opts.UseSSH {
		return fmt.Sprintf("git@%s:%s/%s.git", hostname, opts.Owner, opts.Name)
	}
	u := url.URL{
		Scheme: "https",
		Host:   hostname,
		Path:   fmt.Sprintf("/%s/%s.git", opts.Owner, opts.Name),
	}
	if opts.Token != "" {
		u.User = url.UserPassword("x-access-token", opts.Token)
	}
	return u.String()
}
