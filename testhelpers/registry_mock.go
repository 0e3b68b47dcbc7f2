package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// MockPackage is a package document served by the mock registry
type MockPackage struct {
	DistTags map[string]string
	Time     map[string]time.Time
}

// MockRegistry is an httptest npm registry
type MockRegistry struct {
	*httptest.Server
	requests atomic.Int32
}

// Requests returns how many package documents were served
func (m *MockRegistry) Requests() int {
	return int(m.requests.Load())
}

// NewMockRegistryServer serves the given packages keyed by package name.
// Responses carry a max-age so caching clients can be exercised.
func NewMockRegistryServer(t *testing.T, packages map[string]MockPackage) *MockRegistry {
	t.Helper()
	reg := &MockRegistry{}
	reg.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg, ok := packages[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
			return
		}
		reg.requests.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		writeJSON(w, http.StatusOK, map[string]any{
			"dist-tags": pkg.DistTags,
			"time":      pkg.Time,
		})
	}))
	t.Cleanup(reg.Close)
	return reg
}
