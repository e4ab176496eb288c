package processing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/systemstart/catalog-update/pkg/api"
)

// Validator checks the structure of an item before it is upgraded.
type Validator interface {
	Validate(ctx context.Context, itemPath string) error
}

// CommandValidator runs an external command with the item path appended as
// its last argument. A nonzero exit fails the item with the command's stderr.
type CommandValidator struct {
	Command []string
}

func (v *CommandValidator) Validate(ctx context.Context, itemPath string) error {
	if len(v.Command) == 0 {
		return fmt.Errorf("no validator command configured")
	}
	if _, err := exec.LookPath(v.Command[0]); err != nil {
		return fmt.Errorf("%s binary not found in PATH: %w", v.Command[0], err)
	}

	args := append(slices.Clone(v.Command[1:]), itemPath)
	cmd := exec.CommandContext(ctx, v.Command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &api.ExternalToolError{Tool: v.Command[0], Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}

// LayoutValidator checks that an item holds at least one chart version.
type LayoutValidator struct {
	Layout string
}

func (v *LayoutValidator) Validate(_ context.Context, itemPath string) error {
	switch v.Layout {
	case api.LayoutInPlace:
		if !isFile(filepath.Join(itemPath, api.ChartFilename)) {
			return fmt.Errorf("%s not found at item root", api.ChartFilename)
		}
		return nil
	case api.LayoutVersioned, "":
		entries, err := os.ReadDir(itemPath)
		if err != nil {
			return fmt.Errorf("listing item: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, err := semver.NewVersion(e.Name()); err != nil {
				continue
			}
			if isFile(filepath.Join(itemPath, e.Name(), api.ChartFilename)) {
				return nil
			}
		}
		return fmt.Errorf("no version directory with a %s", api.ChartFilename)
	default:
		return fmt.Errorf("unknown layout: %s", v.Layout)
	}
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
