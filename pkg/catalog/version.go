package catalog

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
)

// BumpVersion increments the patch component: 2.3.1 becomes 2.3.2.
// Pre-release and build metadata are dropped.
func BumpVersion(current string) (string, error) {
	v, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", current, err)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()+1), nil
}

// latestVersionDir returns the name of the highest semver-named
// subdirectory of dir. Other entries are ignored.
func latestVersionDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing versions: %w", err)
	}

	var (
		best     *semver.Version
		bestName string
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := semver.NewVersion(e.Name())
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestName = v, e.Name()
		}
	}

	if best == nil {
		return "", fmt.Errorf("no version directories found in %q", dir)
	}
	return bestName, nil
}
