package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trainline.dev/trainline/internal/registry"
	"trainline.dev/trainline/testhelpers"
)

func TestFetchPackageInfo(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2022, 11, 16, 0, 0, 0, 0, time.UTC)
	server := testhelpers.NewMockRegistryServer(t, map[string]testhelpers.MockPackage{
		"@angular/core": {
			DistTags: map[string]string{"latest": "16.1.0", "v15-lts": "15.2.9"},
			Time:     map[string]time.Time{"15.0.0": published},
		},
	})
	client := registry.NewClient(server.URL)

	t.Run("reads dist tags and publish times of scoped packages", func(t *testing.T) {
		info, err := client.FetchPackageInfo(ctx, "@angular/core")
		require.NoError(t, err)
		require.Equal(t, "15.2.9", info.DistTags["v15-lts"])
		require.True(t, published.Equal(info.Time["15.0.0"]))
	})

	t.Run("caches repeated lookups", func(t *testing.T) {
		before := server.Requests()
		_, err := client.FetchPackageInfo(ctx, "@angular/core")
		require.NoError(t, err)
		require.Equal(t, before, server.Requests())
	})

	t.Run("fails for unknown packages", func(t *testing.T) {
		_, err := client.FetchPackageInfo(ctx, "does-not-exist")
		require.Error(t, err)
	})
}
