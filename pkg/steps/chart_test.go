package steps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/systemstart/catalog-update/pkg/api"
)

const testChart = `apiVersion: v2
name: app
description: an app
version: 2.3.1
appVersion: "1.24"
`

func TestChartStep(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "Chart.yaml", testChart)

	details := &api.UpgradeDetails{NewVersion: "2.3.2"}
	if _, err := NewChartStep(StepChart, "Chart.yaml").Run(StepContext{WorkDir: dir, Details: details}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := readFile(t, filepath.Join(dir, "Chart.yaml"))
	if !strings.Contains(out, "version: 2.3.2") {
		t.Errorf("version not bumped:\n%s", out)
	}
	if !strings.Contains(out, `appVersion: "1.24"`) {
		t.Errorf("appVersion should be untouched:\n%s", out)
	}
	if !strings.Contains(out, "description: an app") {
		t.Errorf("other fields lost:\n%s", out)
	}
}

func TestChartStep_AppVersion(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "Chart.yaml", testChart)

	details := &api.UpgradeDetails{NewVersion: "2.3.2", NewAppVersion: "1.25"}
	if _, err := NewChartStep(StepChart, "Chart.yaml").Run(StepContext{WorkDir: dir, Details: details}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := readFile(t, filepath.Join(dir, "Chart.yaml"))
	if !strings.Contains(out, `appVersion: "1.25"`) {
		t.Errorf("appVersion not updated:\n%s", out)
	}
}

func TestChartStep_MissingFile(t *testing.T) {
	details := &api.UpgradeDetails{NewVersion: "2.3.2"}
	_, err := NewChartStep(StepChart, "Chart.yaml").Run(StepContext{WorkDir: t.TempDir(), Details: details})
	if err == nil {
		t.Fatal("expected error for missing chart file")
	}
}

func TestChartStep_NoVersion(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "Chart.yaml", testChart)

	_, err := NewChartStep(StepChart, "Chart.yaml").Run(StepContext{WorkDir: dir, Details: &api.UpgradeDetails{}})
	if err == nil || !strings.Contains(err.Error(), "no new version") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestCopyVersionStep(t *testing.T) {
	item := t.TempDir()
	src := filepath.Join(item, "1.0.0")
	if err := os.MkdirAll(filepath.Join(src, "templates"), 0o750); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, src, "Chart.yaml", testChart)
	writeTestFile(t, filepath.Join(src, "templates"), "deployment.yaml", "kind: Deployment\n")
	if runtime.GOOS != "windows" {
		if err := os.Symlink("Chart.yaml", filepath.Join(src, "chart-link.yaml")); err != nil {
			t.Fatal(err)
		}
	}

	dst := filepath.Join(item, "1.0.1")
	result, err := NewCopyVersionStep(StepCopyVersion, src, dst).Run(StepContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Written) != 1 || result.Written[0] != dst {
		t.Errorf("unexpected written paths: %v", result.Written)
	}

	if got := readFile(t, filepath.Join(dst, "templates", "deployment.yaml")); got != "kind: Deployment\n" {
		t.Errorf("unexpected copied content %q", got)
	}

	if runtime.GOOS != "windows" {
		link, err := os.Readlink(filepath.Join(dst, "chart-link.yaml"))
		if err != nil {
			t.Fatalf("expected symlink to be preserved: %v", err)
		}
		if link != "Chart.yaml" {
			t.Errorf("unexpected link target %q", link)
		}
	}
}

func TestCopyVersionStep_MissingSource(t *testing.T) {
	item := t.TempDir()
	_, err := NewCopyVersionStep(StepCopyVersion, filepath.Join(item, "nope"), filepath.Join(item, "1.0.1")).Run(StepContext{})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
