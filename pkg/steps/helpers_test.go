package steps

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestFile writes content to dir/name and returns the path, failing the test on error.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}
