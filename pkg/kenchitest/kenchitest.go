// ABOUTME: Shared test helpers for kenchidb's core packages
// ABOUTME: Mirrors the pack's common/testutil idiom for throwaway file-backed tests

package kenchitest

import (
	"path/filepath"
	"testing"
)

// TempFile returns a path to a not-yet-created file inside a test-scoped
// temporary directory, suitable for opening with pkg/blockfile.
func TempFile(t *testing.T, name string) string {
	t.Helper()
	if name == "" {
		name = "kenchidb.dat"
	}
	return filepath.Join(t.TempDir(), name)
}
