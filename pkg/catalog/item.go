package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/registry"
	"github.com/systemstart/catalog-update/pkg/values"
)

// Item is a catalog item directory. Nothing about it is cached: every
// property is read from disk when asked for.
type Item struct {
	Path   string
	Layout string
	Tags   registry.TagLister
}

// NewItem returns an item rooted at path.
func NewItem(path, layout string, tags registry.TagLister) *Item {
	return &Item{Path: path, Layout: layout, Tags: tags}
}

// Name is the item's directory name.
func (i *Item) Name() string {
	return filepath.Base(i.Path)
}

func (i *Item) UpgradeInfoPath() string {
	return filepath.Join(i.Path, api.UpgradeInfoFilename)
}

func (i *Item) UpgradeStrategyPath() string {
	return filepath.Join(i.Path, api.UpgradeStrategyFilename)
}

// UpgradeInfoDefined reports whether upgrade_info.json is a regular file.
func (i *Item) UpgradeInfoDefined() bool {
	st, err := os.Stat(i.UpgradeInfoPath())
	return err == nil && st.Mode().IsRegular()
}

// UpgradeStrategyDefined reports whether upgrade_strategy is a regular file
// with an execute bit set.
func (i *Item) UpgradeStrategyDefined() bool {
	st, err := os.Stat(i.UpgradeStrategyPath())
	return err == nil && st.Mode().IsRegular() && st.Mode().Perm()&0o111 != 0
}

// UpgradeInfo loads and validates upgrade_info.json. It returns nil, nil when
// the item has none.
func (i *Item) UpgradeInfo() (*api.UpgradeInfo, error) {
	return api.LoadUpgradeInfo(i.UpgradeInfoPath())
}

// LatestVersion returns the item's current version: the highest
// version-named subdirectory, or the chart version for in-place items.
func (i *Item) LatestVersion() (string, error) {
	switch i.Layout {
	case api.LayoutVersioned:
		return latestVersionDir(i.Path)
	case api.LayoutInPlace:
		return chartVersion(filepath.Join(i.Path, api.ChartFilename))
	default:
		return "", fmt.Errorf("unknown layout: %s", i.Layout)
	}
}

// VersionPath returns the directory holding the current values and chart files.
func (i *Item) VersionPath(latest string) string {
	if i.Layout == api.LayoutVersioned {
		return filepath.Join(i.Path, latest)
	}
	return i.Path
}

func chartVersion(path string) (string, error) {
	doc, err := values.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%q could not be found", path)
		}
		return "", fmt.Errorf("reading chart metadata: %w", err)
	}
	v, ok := doc.String("version")
	if !ok || v == "" {
		return "", fmt.Errorf("%q has no version field", path)
	}
	return v, nil
}
