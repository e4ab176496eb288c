package steps

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/systemstart/catalog-update/pkg/values"
)

type valuesStep struct {
	name     string
	filename string
	optional bool
}

// NewValuesStep creates a step that writes the new image tags into a values
// file. An optional step is skipped when the file does not exist and ignores
// keys the file does not contain.
func NewValuesStep(name, filename string, optional bool) Step {
	return &valuesStep{name: name, filename: filename, optional: optional}
}

func (s *valuesStep) Name() string { return s.name }

func (s *valuesStep) Run(ctx StepContext) (*StepResult, error) {
	path := filepath.Join(ctx.WorkDir, s.filename)

	if s.optional {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("optional values file not present", "step", s.name, "file", path)
			return &StepResult{}, nil
		}
	}

	doc, err := values.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	changed := 0
	for _, key := range ctx.Details.KeyOrder {
		outcome := ctx.Details.Keys[key]
		if outcome == nil || !outcome.Changed() {
			continue
		}

		v, ok, _ := doc.Lookup(key)
		if s.optional && !isImageMapping(v) {
			slog.Debug("key not present or not an image mapping, skipping", "step", s.name, "key", key)
			continue
		}
		if !ok {
			return nil, fmt.Errorf("key %q not found in %s", key, path)
		}

		if err := doc.SetString(key, "tag", outcome.LatestTag); err != nil {
			return nil, fmt.Errorf("setting tag for %q in %s: %w", key, path, err)
		}
		slog.Info("updated image tag", "step", s.name, "key", key, "from", outcome.CurrentTag, "to", outcome.LatestTag)
		changed++
	}

	if changed == 0 && s.optional {
		return &StepResult{}, nil
	}

	if err := doc.Save(); err != nil {
		return nil, fmt.Errorf("saving %s: %w", path, err)
	}
	return &StepResult{Written: []string{path}}, nil
}

// isImageMapping reports whether v is a non-empty mapping that a tag can be
// written into.
func isImageMapping(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) > 0
}
