package processing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/image"
	"github.com/systemstart/catalog-update/pkg/registry"
)

const (
	itemValues = "image:\n  repository: nginx\n  tag: \"1.24\"\n"
	itemChart  = "apiVersion: v2\nname: app\nversion: 1.0.0\n"
	itemInfo   = `{"filename": "values.yaml", "keys": ["image"]}`
)

func writeTestFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
}

// addItem creates a versioned item whose strategy always answers tag.
func addItem(t *testing.T, train, name, tag string) string {
	t.Helper()
	dir := filepath.Join(train, name)
	writeTestFile(t, filepath.Join(dir, "1.0.0", "values.yaml"), itemValues, 0o644)
	writeTestFile(t, filepath.Join(dir, "1.0.0", "Chart.yaml"), itemChart, 0o644)
	writeTestFile(t, filepath.Join(dir, api.UpgradeInfoFilename), itemInfo, 0o644)
	strategy := "#!/bin/sh\ncat > /dev/null\necho '{\"tags\":{\"image\":\"" + tag + "\"}}'\n"
	writeTestFile(t, filepath.Join(dir, api.UpgradeStrategyFilename), strategy, 0o755)
	return dir
}

func staticTags() registry.TagLister {
	return &registry.Static{Tags: map[string][]string{"docker.io/library/nginx": {"1.24", "1.25"}}}
}

type validatorFunc func(ctx context.Context, path string) error

func (f validatorFunc) Validate(ctx context.Context, path string) error { return f(ctx, path) }

func TestUpdateItemsInTrain_TrainNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "stable")

	_, err := UpdateItemsInTrain(context.Background(), missing, Options{Tags: staticTags()})

	var notFound *api.TrainNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected TrainNotFoundError, got %v", err)
	}
	if !strings.Contains(err.Error(), "unable to locate catalog train") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestUpdateItemsInTrain(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell strategies are not supported on windows")
	}

	train := t.TempDir()
	nginx := addItem(t, train, "nginx", "1.25")
	addItem(t, train, "current", "1.24")
	writeTestFile(t, filepath.Join(train, "broken", "README.md"), "no chart here", 0o644)
	writeTestFile(t, filepath.Join(train, "unconfigured", "1.0.0", "Chart.yaml"), itemChart, 0o644)
	writeTestFile(t, filepath.Join(train, "notes.txt"), "not an item", 0o644)
	addItem(t, train, ".hidden", "1.25")

	summary, err := UpdateItemsInTrain(context.Background(), train, Options{Tags: staticTags()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantUpgraded := map[string]*api.UpgradedItem{
		"nginx": {OldVersion: "1.0.0", NewVersion: "1.0.1", ItemPath: nginx},
	}
	if diff := cmp.Diff(wantUpgraded, summary.Upgraded); diff != "" {
		t.Errorf("upgraded (-want +got):\n%s", diff)
	}

	wantSkipped := map[string]string{
		"current": "no update available",
		"broken":  SkipValidationFailed,
		"unconfigured": "missing required file(s): " +
			filepath.Join(train, "unconfigured", api.UpgradeInfoFilename) + ", " +
			filepath.Join(train, "unconfigured", api.UpgradeStrategyFilename),
	}
	if diff := cmp.Diff(wantSkipped, summary.Skipped); diff != "" {
		t.Errorf("skipped (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(nginx, "1.0.1", "values.yaml")); err != nil {
		t.Errorf("new version not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(train, ".hidden", "1.0.1")); !errors.Is(err, os.ErrNotExist) {
		t.Error("hidden directories must be ignored")
	}
}

func TestUpdateItemsInTrain_Filter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell strategies are not supported on windows")
	}

	train := t.TempDir()
	for _, name := range []string{"nginx", "nginx-proxy", "redis"} {
		addItem(t, train, name, "1.25")
	}

	opts := Options{
		Tags:   staticTags(),
		Filter: Filter{Include: []string{"nginx*"}, Exclude: []string{"*-proxy"}},
	}
	summary, err := UpdateItemsInTrain(context.Background(), train, opts)
	if err != nil {
		t.Fatal(err)
	}

	if len(summary.Upgraded) != 1 || summary.Upgraded["nginx"] == nil {
		t.Errorf("expected only nginx to be upgraded, got %v", summary.Upgraded)
	}
	if len(summary.Skipped) != 0 {
		t.Errorf("filtered items must not be reported, got %v", summary.Skipped)
	}
}

func TestUpdateItemsInTrain_FailureIsolation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell strategies are not supported on windows")
	}

	train := t.TempDir()
	addItem(t, train, "a-panics", "1.25")
	addItem(t, train, "b-fine", "1.25")

	calls := 0
	opts := Options{
		Tags: &panicOnceLister{next: staticTags()},
		Validator: validatorFunc(func(context.Context, string) error {
			calls++
			return nil
		}),
	}
	summary, err := UpdateItemsInTrain(context.Background(), train, opts)
	if err != nil {
		t.Fatal(err)
	}

	if calls != 2 {
		t.Errorf("validator called %d times, want 2", calls)
	}
	if !strings.Contains(summary.Skipped["a-panics"], "registry client exploded") {
		t.Errorf("panic not recorded: %v", summary.Skipped)
	}
	if summary.Upgraded["b-fine"] == nil {
		t.Errorf("later item should still be upgraded: %v", summary.Skipped)
	}
}

// panicOnceLister panics on its first call, which belongs to the first item.
type panicOnceLister struct {
	next   registry.TagLister
	called bool
}

func (l *panicOnceLister) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	if !l.called {
		l.called = true
		panic("registry client exploded")
	}
	return l.next.ListTags(ctx, ref)
}

func TestUpdateItemsInTrain_ValidatorRejects(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell strategies are not supported on windows")
	}

	train := t.TempDir()
	dir := addItem(t, train, "nginx", "1.25")

	opts := Options{
		Tags: staticTags(),
		Validator: validatorFunc(func(context.Context, string) error {
			return errors.New("chart lint failed")
		}),
	}
	summary, err := UpdateItemsInTrain(context.Background(), train, opts)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Skipped["nginx"] != SkipValidationFailed {
		t.Errorf("skipped = %v", summary.Skipped)
	}
	if _, err := os.Stat(filepath.Join(dir, "1.0.1")); !errors.Is(err, os.ErrNotExist) {
		t.Error("a rejected item must not be upgraded")
	}
}
