// Package runtime provides a context type that holds the configuration,
// clients and logger for use throughout the application. This avoids
// passing multiple parameters.
package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"trainline.dev/trainline/internal/config"
	"trainline.dev/trainline/internal/git"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/registry"
	"trainline.dev/trainline/internal/trains"
	"trainline.dev/trainline/internal/tui"
)

// Context provides access to configuration, clients and output for commands.
// It is created once per invocation and passed explicitly to every action.
type Context struct {
	context.Context
	Config      *config.Config
	Splog       *tui.Splog
	Prompter    tui.Prompter
	Git         *git.Client
	WorkingCopy *git.WorkingCopy
	GitHub      github.Client
	Registry    registry.Client
	RepoRoot    string
}

// Options control how a Context is assembled
type Options struct {
	// ConfigPath overrides the configuration file location
	ConfigPath string
	// Flags carries persistent command line flags bound into the configuration
	Flags *pflag.FlagSet
	// RequirePullRequest requires the pullRequest configuration section
	RequirePullRequest bool
}

type contextKey struct{}

// WithContext attaches a prepared Context to parent. GetContext returns it
// instead of assembling a new one.
func WithContext(parent context.Context, rt *Context) context.Context {
	return context.WithValue(parent, contextKey{}, rt)
}

// GetContext returns the Context attached to ctx, or assembles one for the
// repository containing the current directory
func GetContext(ctx context.Context, opts Options) (*Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if rt, ok := ctx.Value(contextKey{}).(*Context); ok {
		if opts.RequirePullRequest {
			if err := rt.Config.Validate(true); err != nil {
				return nil, err
			}
		}
		return rt, nil
	}
	return NewContext(ctx, opts)
}

// NewContext assembles a Context for the repository containing the current
// directory. Configuration is validated before any network access.
func NewContext(ctx context.Context, opts Options) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	probe, err := git.OpenWorkingCopy(cwd, nil)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	repoRoot, err := probe.Root()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repoRoot, opts.ConfigPath, opts.Flags)
	if err != nil {
		return nil, err
	}
	if origin, err := probe.OriginURL(); err == nil {
		cfg.ApplyRemote(origin)
	}
	if err := cfg.Validate(opts.RequirePullRequest); err != nil {
		return nil, err
	}

	token, err := github.ResolveToken(ctx, cfg.GitHubToken)
	if err != nil {
		return nil, err
	}

	gh, err := github.NewClient(ctx, github.ClientOptions{
		Hostname: cfg.GitHub.Hostname,
		Owner:    cfg.GitHub.Owner,
		Repo:     cfg.GitHub.Name,
		Token:    token,
	})
	if err != nil {
		return nil, err
	}

	splog, err := tui.NewSplogWithLogFile(tui.LogFilePath(filepath.Join(repoRoot, ".git")))
	if err != nil {
		splog = tui.NewSplog()
		splog.Debug("File logging disabled: %v", err)
	}

	return New(ctx, cfg, repoRoot, gh, splog, token)
}

// New assembles a Context from an already loaded configuration
func New(ctx context.Context, cfg *config.Config, repoRoot string, gh github.Client, splog *tui.Splog, token string) (*Context, error) {
	remoteURL := git.AuthenticatedRemoteURL(git.RemoteURLOptions{
		Hostname: cfg.GitHub.Hostname,
		Owner:    cfg.GitHub.Owner,
		Name:     cfg.GitHub.Name,
		Token:    token,
		UseSSH:   cfg.GitHub.UseSSH,
		Override: cfg.GitHub.RemoteURL,
	})
	client := git.NewClient(repoRoot, remoteURL, token)
	wc, err := git.OpenWorkingCopy(repoRoot, client)
	if err != nil {
		return nil, err
	}

	rt := &Context{
		Context:     ctx,
		Config:      cfg,
		Splog:       splog,
		Prompter:    tui.SurveyPrompter{},
		Git:         client,
		WorkingCopy: wc,
		GitHub:      gh,
		RepoRoot:    repoRoot,
	}
	if cfg.Release != nil {
		rt.Registry = registry.NewClient(cfg.Release.RegistryURL)
	}
	return rt, nil
}

// VersionBranches returns the repository of version branches read through the GitHub API
func (c *Context) VersionBranches() trains.VersionBranchRepository {
	return trains.NewGitHubVersionBranchRepository(c.GitHub, c.Config.ManifestPath())
}

// FetchActiveReleaseTrains discovers the active release trains
func (c *Context) FetchActiveReleaseTrains() (*trains.ActiveReleaseTrains, error) {
	return trains.Fetch(c, c.VersionBranches(), c.Config.GitHub.MainBranchName)
}

// Close releases resources held by the context
func (c *Context) Close() {
	if c.Splog != nil {
		_ = c.Splog.Close()
	}
}
