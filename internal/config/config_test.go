package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/config"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/github"
)

const fullConfig = `github:
  owner: angular
  name: angular
  mainBranchName: main
pullRequest:
  githubApiMerge:
    default: rebase
    labels:
      - pattern: "merge: squash commits"
        method: squash
  targetLabelExemptScopes: [dev-infra]
  validators:
    assertPassingCi: false
release:
  representativeNpmPackage: "@angular/core"
  npmPackages: ["@angular/core", "@angular/common"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("TRAINLINE_GITHUB_TOKEN", "")

	t.Run("reads the repository config", func(t *testing.T) {
		cfg, err := config.Load(writeConfig(t, fullConfig), "", nil)
		require.NoError(t, err)

		require.Equal(t, "angular", cfg.GitHub.Owner)
		require.Equal(t, "github.com", cfg.GitHub.Hostname)
		require.Equal(t, "main", cfg.GitHub.MainBranchName)

		require.NotNil(t, cfg.PullRequest)
		require.NotNil(t, cfg.PullRequest.GithubAPIMerge)
		require.Equal(t, github.MergeMethodRebase, cfg.PullRequest.GithubAPIMerge.Default)
		require.Equal(t, []config.MergeMethodLabel{{Pattern: "merge: squash commits", Method: github.MergeMethodSquash}},
			cfg.PullRequest.GithubAPIMerge.Labels)
		require.Equal(t, []string{"dev-infra"}, cfg.PullRequest.TargetLabelExemptScopes)
		require.Equal(t, "action: merge", cfg.PullRequest.MergeReadyLabel)
		require.False(t, cfg.PullRequest.ValidatorEnabled("assertPassingCi"))
		require.True(t, cfg.PullRequest.ValidatorEnabled("assertNotDraft"))

		require.NotNil(t, cfg.Release)
		require.Equal(t, "@angular/core", cfg.Release.RepresentativeNpmPackage)
		require.Equal(t, "package.json", cfg.Release.ManifestPath)
		require.Equal(t, config.DefaultExceptionalMinorDistTag, cfg.Release.ExceptionalMinorNpmDistTag)
		require.Equal(t, "https://registry.npmjs.org", cfg.Release.RegistryURL)

		require.NoError(t, cfg.Validate(true))
	})

	t.Run("missing default file yields defaults", func(t *testing.T) {
		cfg, err := config.Load(t.TempDir(), "", nil)
		require.NoError(t, err)
		require.Equal(t, "main", cfg.GitHub.MainBranchName)
		require.Nil(t, cfg.PullRequest)
		require.Nil(t, cfg.Release)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := config.Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
	})

	t.Run("rejects unknown merge methods", func(t *testing.T) {
		dir := writeConfig(t, "pullRequest:\n  githubApiMerge:\n    default: fast-forward\n")
		_, err := config.Load(dir, "", nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid merge method")
	})

	t.Run("token from environment", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "from-env")
		cfg, err := config.Load(writeConfig(t, fullConfig), "", nil)
		require.NoError(t, err)
		require.Equal(t, "from-env", cfg.GitHubToken)
	})

	t.Run("token flag wins over environment", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "from-env")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("github-token", "", "")
		require.NoError(t, flags.Parse([]string{"--github-token", "from-flag"}))

		cfg, err := config.Load(writeConfig(t, fullConfig), "", flags)
		require.NoError(t, err)
		require.Equal(t, "from-flag", cfg.GitHubToken)
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("TRAINLINE_GITHUB_MAINBRANCHNAME", "next")
		cfg, err := config.Load(writeConfig(t, fullConfig), "", nil)
		require.NoError(t, err)
		require.Equal(t, "next", cfg.GitHub.MainBranchName)
	})
}

func TestValidate(t *testing.T) {
	t.Run("reports every problem", func(t *testing.T) {
		cfg := &config.Config{Release: &config.ReleaseConfig{}}
		err := cfg.Validate(true)
		require.Error(t, err)
		require.Equal(t, trainerrors.KindConfig, trainerrors.KindOf(err))
		for _, key := range []string{"github.owner", "github.name", "pullRequest", "release.representativeNpmPackage"} {
			require.Contains(t, err.Error(), key)
		}
	})

	t.Run("pull request section only required on demand", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{Owner: "o", Name: "r"}}
		require.NoError(t, cfg.Validate(false))
		require.Error(t, cfg.Validate(true))
	})

	t.Run("invalid label pattern", func(t *testing.T) {
		cfg := &config.Config{
			GitHub: config.GitHubConfig{Owner: "o", Name: "r"},
			PullRequest: &config.PullRequestConfig{GithubAPIMerge: &config.GithubAPIMergeConfig{
				Labels: []config.MergeMethodLabel{{Pattern: "merge: (", Method: github.MergeMethodSquash}},
			}},
		}
		err := cfg.Validate(true)
		require.Error(t, err)
		require.Contains(t, err.Error(), "labels[0].pattern")
	})
}

func TestApplyRemote(t *testing.T) {
	cfg := &config.Config{GitHub: config.GitHubConfig{Hostname: "github.com"}}
	cfg.ApplyRemote("git@github.com:angular/dev-infra.git")
	require.Equal(t, "angular", cfg.GitHub.Owner)
	require.Equal(t, "dev-infra", cfg.GitHub.Name)

	cfg = &config.Config{GitHub: config.GitHubConfig{Owner: "fork", Name: "repo"}}
	cfg.ApplyRemote("git@github.com:angular/dev-infra.git")
	require.Equal(t, "fork", cfg.GitHub.Owner)
}
