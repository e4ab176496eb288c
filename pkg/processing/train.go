package processing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/catalog"
	"github.com/systemstart/catalog-update/pkg/registry"
)

// SkipValidationFailed is the skip reason of items rejected by the validator.
const SkipValidationFailed = "validation failed"

// Options configures a train run.
type Options struct {
	Layout    string
	Tags      registry.TagLister
	Validator Validator // defaults to a LayoutValidator for Layout
	Filter    Filter
}

// UpdateItemsInTrain upgrades every item of a train. Items are processed one
// at a time in name order and a failing item never stops the run. Only a
// missing train is returned as an error.
func UpdateItemsInTrain(ctx context.Context, trainPath string, opts Options) (*api.TrainSummary, error) {
	st, err := os.Stat(trainPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &api.TrainNotFoundError{Path: trainPath}
		}
		return nil, fmt.Errorf("reading train: %w", err)
	}
	if !st.IsDir() {
		return nil, &api.TrainNotFoundError{Path: trainPath}
	}

	if opts.Layout == "" {
		opts.Layout = api.LayoutVersioned
	}
	if opts.Validator == nil {
		opts.Validator = &LayoutValidator{Layout: opts.Layout}
	}

	items, err := DiscoverItems(trainPath, opts.Filter)
	if err != nil {
		return nil, err
	}

	slog.Info("discovered items", "train", trainPath, "count", len(items))

	summary := api.NewTrainSummary()
	for _, path := range items {
		if ctx.Err() != nil {
			slog.Warn("train run cancelled", "error", ctx.Err())
			break
		}
		runItem(ctx, path, opts, summary)
	}

	slog.Info("train processed", "upgraded", len(summary.Upgraded), "skipped", len(summary.Skipped))
	return summary, nil
}

func runItem(ctx context.Context, path string, opts Options, summary *api.TrainSummary) {
	item := catalog.NewItem(path, opts.Layout, opts.Tags)
	name := item.Name()
	log := slog.With("item", name)

	defer func() {
		if r := recover(); r != nil {
			log.Error("item processing panicked", "panic", r)
			summary.Skipped[name] = fmt.Sprintf("unexpected failure: %v", r)
		}
	}()

	if err := opts.Validator.Validate(ctx, path); err != nil {
		log.Warn("item failed validation", "error", err)
		summary.Skipped[name] = SkipValidationFailed
		return
	}

	log.Info("processing item")
	result := item.Upgrade(ctx)
	if !result.Upgraded {
		log.Info("item skipped", "reason", result.Error)
		summary.Skipped[name] = result.Error
		return
	}

	summary.Upgraded[name] = &api.UpgradedItem{
		OldVersion: result.LatestVersion,
		NewVersion: result.Details.NewVersion,
		ItemPath:   path,
	}
}
