package processing

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects items by directory name. An empty Include matches every
// item; Exclude wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

// Validate checks that every pattern is well formed.
func (f Filter) Validate() error {
	for _, p := range slices.Concat(f.Include, f.Exclude) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid item pattern %q", p)
		}
	}
	return nil
}

// Match reports whether the item name passes the filter.
func (f Filter) Match(name string) bool {
	if matchAny(f.Exclude, name) {
		return false
	}
	return len(f.Include) == 0 || matchAny(f.Include, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// DiscoverItems returns the item directories of a train sorted by name.
// Hidden directories and anything that is not a directory are ignored.
func DiscoverItems(trainPath string, filter Filter) ([]string, error) {
	entries, err := os.ReadDir(trainPath)
	if err != nil {
		return nil, fmt.Errorf("listing train: %w", err)
	}

	var items []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !filter.Match(e.Name()) {
			continue
		}
		items = append(items, filepath.Join(trainPath, e.Name()))
	}

	// ReadDir already sorts by name; keep the order explicit
	slices.Sort(items)
	return items, nil
}
