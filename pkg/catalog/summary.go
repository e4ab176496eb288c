package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/strategy"
	"github.com/systemstart/catalog-update/pkg/values"
)

// Summary checks whether an upgrade is available without writing anything.
func (i *Item) Summary(ctx context.Context) *api.UpgradeSummary {
	summary, _ := i.check(ctx)
	return summary
}

func newSummary() *api.UpgradeSummary {
	return &api.UpgradeSummary{
		Details: api.UpgradeDetails{Keys: make(map[string]*api.KeyOutcome)},
	}
}

// check runs every stage up to the upgrade decision. The returned info is
// nil whenever summary.Error is set.
func (i *Item) check(ctx context.Context) (*api.UpgradeSummary, *api.UpgradeInfo) {
	summary := newSummary()
	log := slog.With("item", i.Name())

	if err := i.requiredFiles(); err != nil {
		summary.Error = err.Error()
		return summary, nil
	}

	latest, err := i.LatestVersion()
	if err != nil {
		summary.Error = err.Error()
		return summary, nil
	}
	summary.LatestVersion = latest

	info, err := i.UpgradeInfo()
	if err != nil {
		summary.Error = err.Error()
		return summary, nil
	}
	if info == nil {
		// removed between the gate and the load
		summary.Error = (&api.ConfigurationError{Missing: []string{i.UpgradeInfoPath()}}).Error()
		return summary, nil
	}
	summary.Details.Filename = info.Filename

	doc, err := i.loadValues(latest, info)
	if err != nil {
		summary.Error = err.Error()
		return summary, nil
	}

	i.resolveKeys(ctx, doc, info.Keys, &summary.Details)

	req := strategy.NewRequest()
	for _, key := range summary.Details.KeyOrder {
		req.Add(key, summary.Details.Keys[key].AvailableTags)
	}

	log.Info("running upgrade strategy", "keys", len(req.Keys))
	out, err := strategy.Invoke(ctx, i.UpgradeStrategyPath(), i.Path, req)
	if err != nil {
		summary.Error = err.Error()
		return summary, nil
	}

	aggregate(summary, out)
	if !summary.UpgradeAvailable {
		summary.Error = api.ErrNoUpgradeAvailable.Error()
		return summary, nil
	}

	log.Info("upgrade available", "latestVersion", latest)
	return summary, info
}

// aggregate applies a validated strategy output to the key outcomes. Keys the
// item did not declare are ignored.
func aggregate(summary *api.UpgradeSummary, out *api.StrategyOutput) {
	for _, key := range summary.Details.KeyOrder {
		tag, ok := out.Tags[key]
		if !ok {
			continue
		}
		outcome := summary.Details.Keys[key]
		outcome.LatestTag = tag
		if outcome.Changed() {
			summary.UpgradeAvailable = true
		}
	}

	if out.AppVersion != nil {
		summary.Details.NewAppVersion = *out.AppVersion
	}
}

func (i *Item) requiredFiles() error {
	var missing []string
	if !i.UpgradeInfoDefined() {
		missing = append(missing, i.UpgradeInfoPath())
	}
	if !i.UpgradeStrategyDefined() {
		missing = append(missing, i.UpgradeStrategyPath())
	}
	if len(missing) > 0 {
		return &api.ConfigurationError{Missing: missing}
	}
	return nil
}

func (i *Item) loadValues(latest string, info *api.UpgradeInfo) (*values.Document, error) {
	path := filepath.Join(i.VersionPath(latest), info.Filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q could not be found", path)
		}
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	if len(info.Keys) == 0 {
		return nil, fmt.Errorf("no keys listed in %q for upgrade check", i.UpgradeInfoPath())
	}

	doc, err := values.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%q is an invalid yaml file", path)
	}
	return doc, nil
}
