package commit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/commit"
)

func TestParse(t *testing.T) {
	t.Run("parses a conventional header", func(t *testing.T) {
		c := commit.Parse("fix(core): handle empty input\n\nMore detail.")
		require.Equal(t, "fix", c.Type)
		require.Equal(t, "core", c.Scope)
		require.Equal(t, "handle empty input", c.Subject)
		require.Equal(t, "More detail.", c.Body)
		require.Empty(t, c.BreakingChanges)
	})

	t.Run("collects breaking change notes", func(t *testing.T) {
		c := commit.Parse("feat(router): drop legacy API\n\nBody.\n\nBREAKING CHANGE: the legacy API\nis gone.\n\nDEPRECATED: use the new API")
		require.Equal(t, []string{"the legacy API\nis gone."}, c.BreakingChanges)
		require.Equal(t, []string{"use the new API"}, c.Deprecations)
		require.Equal(t, "Body.", c.Body)
	})

	t.Run("treats the bang marker as breaking", func(t *testing.T) {
		c := commit.Parse("refactor(http)!: rename options")
		require.Equal(t, []string{"rename options"}, c.BreakingChanges)
	})

	t.Run("accepts the hyphenated keyword", func(t *testing.T) {
		c := commit.Parse("fix: x\n\nBREAKING-CHANGE: y")
		require.Equal(t, []string{"y"}, c.BreakingChanges)
	})

	t.Run("detects autosquash and revert commits", func(t *testing.T) {
		fixup := commit.Parse("fixup! fix(core): handle empty input")
		require.True(t, fixup.IsFixup)
		require.Equal(t, "fix", fixup.Type)
		require.Equal(t, "core", fixup.Scope)

		require.True(t, commit.Parse("squash! feat: x").IsSquash)
		require.True(t, commit.Parse(`Revert "feat: x"`).IsRevert)
		require.True(t, commit.Parse("revert: feat: x").IsRevert)
	})

	t.Run("leaves the type empty for free-form messages", func(t *testing.T) {
		c := commit.Parse("Update README")
		require.Empty(t, c.Type)
		require.Equal(t, "Update README", c.Header)
	})
}
