package steps

import (
	"fmt"
	"path/filepath"

	"github.com/systemstart/catalog-update/pkg/api"
)

const (
	StepCopyVersion = "copy-version"
	StepValues      = "values"
	StepTestValues  = "test-values"
	StepChart       = "chart"
)

// Target describes where an upgrade is written.
type Target struct {
	Layout        string
	ItemPath      string
	LatestVersion string
	NewVersion    string
}

// WorkDir returns the directory whose files are rewritten.
func (t Target) WorkDir() string {
	if t.Layout == api.LayoutVersioned {
		return filepath.Join(t.ItemPath, t.NewVersion)
	}
	return t.ItemPath
}

// Plan returns the ordered mutation steps for an upgrade.
func Plan(target Target, info *api.UpgradeInfo) ([]Step, error) {
	var plan []Step

	switch target.Layout {
	case api.LayoutVersioned:
		plan = append(plan, NewCopyVersionStep(
			StepCopyVersion,
			filepath.Join(target.ItemPath, target.LatestVersion),
			filepath.Join(target.ItemPath, target.NewVersion),
		))
	case api.LayoutInPlace:
	default:
		return nil, fmt.Errorf("unknown layout: %s", target.Layout)
	}

	plan = append(plan, NewValuesStep(StepValues, info.Filename, false))
	if info.TestFilename != "" {
		plan = append(plan, NewValuesStep(StepTestValues, info.TestFilename, true))
	}
	plan = append(plan, NewChartStep(StepChart, api.ChartFilename))

	return plan, nil
}
