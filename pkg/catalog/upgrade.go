package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/steps"
)

// PartialUpgradeNotice is appended to the error of an upgrade that failed
// after some files were already rewritten. Nothing is rolled back.
const PartialUpgradeNotice = "an interrupted upgrade may leave the item in a partially mutated state, rerun or inspect manually"

// Upgrade checks for an available upgrade and, if there is one, rewrites the
// item. The summary reports Upgraded only once every mutation step finished.
func (i *Item) Upgrade(ctx context.Context) *api.UpgradeSummary {
	summary, info := i.check(ctx)
	if summary.Error != "" {
		return summary
	}

	newVersion, err := BumpVersion(summary.LatestVersion)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.Details.NewVersion = newVersion

	target := steps.Target{
		Layout:        i.Layout,
		ItemPath:      i.Path,
		LatestVersion: summary.LatestVersion,
		NewVersion:    newVersion,
	}

	plan, err := steps.Plan(target, info)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}

	if i.Layout == api.LayoutVersioned {
		if _, err := os.Stat(target.WorkDir()); err == nil {
			slog.Warn("new version directory already exists, overwriting", "item", i.Name(), "path", target.WorkDir())
		}
	}

	if err := runSteps(plan, target.WorkDir(), &summary.Details); err != nil {
		summary.Error = err.Error()
		return summary
	}

	summary.Upgraded = true
	summary.Details.NewVersionPath = target.WorkDir()
	slog.Info("item upgraded", "item", i.Name(), "from", summary.LatestVersion, "to", newVersion)
	return summary
}

// runSteps executes the plan in order and stops at the first failure,
// recording every file written so far in details.Written.
func runSteps(plan []steps.Step, workDir string, details *api.UpgradeDetails) error {
	sctx := steps.StepContext{WorkDir: workDir, Details: details}

	for _, step := range plan {
		slog.Debug("running step", "step", step.Name(), "dir", workDir)

		result, err := step.Run(sctx)
		if result != nil {
			details.Written = append(details.Written, result.Written...)
		}
		if err != nil {
			slog.Error("upgrade step failed", "step", step.Name(), "written", details.Written, "error", err)
			if len(details.Written) > 0 {
				return fmt.Errorf("partially upgraded: step %q failed: %w; %s", step.Name(), err, PartialUpgradeNotice)
			}
			return fmt.Errorf("upgrade step %q failed: %w", step.Name(), err)
		}
	}
	return nil
}
