package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
	"trainline.dev/trainline/internal/registry"
)

// FileName is the project configuration file in the repository root
const FileName = ".trainline.yaml"

// DefaultExceptionalMinorDistTag is the npm dist-tag exceptional minors are published under
const DefaultExceptionalMinorDistTag = "do-not-use-exceptional-minor"

// Config is the project configuration
type Config struct {
	GitHub      GitHubConfig       `mapstructure:"github"`
	PullRequest *PullRequestConfig `mapstructure:"pullRequest"`
	Release     *ReleaseConfig     `mapstructure:"release"`
	GitHubToken string             `mapstructure:"githubToken"`
}

// GitHubConfig describes the upstream repository
type GitHubConfig struct {
	Hostname       string `mapstructure:"hostname"`
	Owner          string `mapstructure:"owner"`
	Name           string `mapstructure:"name"`
	MainBranchName string `mapstructure:"mainBranchName"`
	UseSSH         bool   `mapstructure:"useSsh"`
	RemoteURL      string `mapstructure:"remoteUrl"`
}

// PullRequestConfig configures merging of pull requests
type PullRequestConfig struct {
	// GithubAPIMerge selects the GitHub API merge strategy when set;
	// otherwise pull requests are merged locally with autosquash
	GithubAPIMerge          *GithubAPIMergeConfig `mapstructure:"githubApiMerge"`
	CommitMessageFixupLabel string                `mapstructure:"commitMessageFixupLabel"`
	MergeReadyLabel         string                `mapstructure:"mergeReadyLabel"`
	CaretakerNoteLabel      string                `mapstructure:"caretakerNoteLabel"`
	BreakingChangeLabel     string                `mapstructure:"breakingChangeLabel"`
	TargetLabelExemptScopes []string              `mapstructure:"targetLabelExemptScopes"`
	Validators              map[string]bool       `mapstructure:"validators"`
}

// GithubAPIMergeConfig maps labels to merge methods
type GithubAPIMergeConfig struct {
	Default github.MergeMethod `mapstructure:"default"`
	Labels  []MergeMethodLabel `mapstructure:"labels"`
}

// MergeMethodLabel selects a merge method for pull requests with a label
// matching Pattern
type MergeMethodLabel struct {
	Pattern string             `mapstructure:"pattern"`
	Method  github.MergeMethod `mapstructure:"method"`
}

// ReleaseConfig configures release trains and published packages
type ReleaseConfig struct {
	RepresentativeNpmPackage   string   `mapstructure:"representativeNpmPackage"`
	NpmPackages                []string `mapstructure:"npmPackages"`
	RegistryURL                string   `mapstructure:"registryUrl"`
	ManifestPath               string   `mapstructure:"manifestPath"`
	ExceptionalMinorNpmDistTag string   `mapstructure:"exceptionalMinorNpmDistTag"`
}

// ValidatorEnabled reports whether a validation is enabled. Validations are
// enabled unless explicitly turned off.
func (c *PullRequestConfig) ValidatorEnabled(name string) bool {
	if c == nil {
		return true
	}
	enabled, ok := c.Validators[strings.ToLower(name)]
	return !ok || enabled
}

// Regexp compiles a merge method label pattern. Patterns match
// the whole label.
func (l MergeMethodLabel) Regexp() (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + l.Pattern + ")$")
}

// Load reads the configuration of the repository at repoRoot. An empty
// path selects FileName in the repository root; a missing default file is
// not an error. Environment variables prefixed with TRAINLINE_ and the
// given flags override file values.
func Load(repoRoot, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRAINLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("githubToken", "TRAINLINE_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, err
	}
	if flags != nil {
		if flag := flags.Lookup("github-token"); flag != nil {
			if err := v.BindPFlag("githubToken", flag); err != nil {
				return nil, err
			}
		}
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(repoRoot, FileName)
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.GitHub.Hostname == "" {
		c.GitHub.Hostname = "github.com"
	}
	if c.GitHub.MainBranchName == "" {
		c.GitHub.MainBranchName = "main"
	}
	if pr := c.PullRequest; pr != nil {
		if pr.GithubAPIMerge != nil && pr.GithubAPIMerge.Default == "" {
			pr.GithubAPIMerge.Default = github.MergeMethodSquash
		}
		if pr.CommitMessageFixupLabel == "" {
			pr.CommitMessageFixupLabel = "merge: fix commit message"
		}
		if pr.MergeReadyLabel == "" {
			pr.MergeReadyLabel = "action: merge"
		}
		if pr.CaretakerNoteLabel == "" {
			pr.CaretakerNoteLabel = "merge: caretaker note"
		}
		if pr.BreakingChangeLabel == "" {
			pr.BreakingChangeLabel = "flag: breaking change"
		}
	}
	if r := c.Release; r != nil {
		if r.RegistryURL == "" {
			r.RegistryURL = registry.DefaultURL
		}
		if r.ManifestPath == "" {
			r.ManifestPath = "package.json"
		}
		if r.ExceptionalMinorNpmDistTag == "" {
			r.ExceptionalMinorNpmDistTag = DefaultExceptionalMinorDistTag
		}
	}
}

// ManifestPath returns the manifest read on every branch
func (c *Config) ManifestPath() string {
	if c.Release != nil {
		return c.Release.ManifestPath
	}
	return "package.json"
}

// Validate checks required configuration. Pull request configuration is
// only required by commands that merge or check pull requests.
func (c *Config) Validate(requirePullRequest bool) error {
	var problems []string
	if c.GitHub.Owner == "" {
		problems = append(problems, `"github.owner" is not set and could not be derived from the origin remote`)
	}
	if c.GitHub.Name == "" {
		problems = append(problems, `"github.name" is not set and could not be derived from the origin remote`)
	}
	if requirePullRequest {
		if c.PullRequest == nil {
			problems = append(problems, `no "pullRequest" configuration found`)
		} else if merge := c.PullRequest.GithubAPIMerge; merge != nil {
			for i, label := range merge.Labels {
				if _, err := label.Regexp(); err != nil {
					problems = append(problems, fmt.Sprintf(`"pullRequest.githubApiMerge.labels[%d].pattern" is invalid: %v`, i, err))
				}
				if label.Method == "" {
					problems = append(problems, fmt.Sprintf(`"pullRequest.githubApiMerge.labels[%d].method" is not set`, i))
				}
			}
		}
	}
	if c.Release != nil && c.Release.RepresentativeNpmPackage == "" {
		problems = append(problems, `"release.representativeNpmPackage" is not set`)
	}
	if len(problems) > 0 {
		return trainerrors.NewConfigError(problems...)
	}
	return nil
}

// ApplyRemote fills in the repository owner and name from the origin
// remote URL when the configuration leaves them out
func (c *Config) ApplyRemote(originURL string) {
	if (c.GitHub.Owner != "" && c.GitHub.Name != "") || originURL == "" {
		return
	}
	info, err := github.ParseGitHubRemoteURL(originURL)
	if err != nil {
		return
	}
	if c.GitHub.Owner == "" {
		c.GitHub.Owner = info.Owner
	}
	if c.GitHub.Name == "" {
		c.GitHub.Name = info.Repo
	}
	if c.GitHub.Hostname == "github.com" && info.Hostname != "" {
		c.GitHub.Hostname = info.Hostname
	}
}
