package steps

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/systemstart/catalog-update/pkg/values"
)

type chartStep struct {
	name     string
	filename string
}

// NewChartStep creates a step that sets version, and appVersion when the
// strategy reported one, in the chart metadata file.
func NewChartStep(name, filename string) Step {
	return &chartStep{name: name, filename: filename}
}

func (s *chartStep) Name() string { return s.name }

func (s *chartStep) Run(ctx StepContext) (*StepResult, error) {
	if ctx.Details.NewVersion == "" {
		return nil, fmt.Errorf("no new version computed")
	}

	path := filepath.Join(ctx.WorkDir, s.filename)
	doc, err := values.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := doc.SetString("", "version", ctx.Details.NewVersion); err != nil {
		return nil, fmt.Errorf("setting version in %s: %w", path, err)
	}

	if ctx.Details.NewAppVersion != "" {
		if err := doc.SetString("", "appVersion", ctx.Details.NewAppVersion); err != nil {
			return nil, fmt.Errorf("setting appVersion in %s: %w", path, err)
		}
	}

	if err := doc.Save(); err != nil {
		return nil, fmt.Errorf("saving %s: %w", path, err)
	}

	slog.Info("updated chart metadata", "step", s.name, "version", ctx.Details.NewVersion, "appVersion", ctx.Details.NewAppVersion)
	return &StepResult{Written: []string{path}}, nil
}
