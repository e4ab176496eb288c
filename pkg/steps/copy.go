package steps

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type copyVersionStep struct {
	name string
	src  string
	dst  string
}

// NewCopyVersionStep creates a step that copies the current version directory
// of an item to the directory of the new version.
func NewCopyVersionStep(name, src, dst string) Step {
	return &copyVersionStep{name: name, src: src, dst: dst}
}

func (s *copyVersionStep) Name() string { return s.name }

func (s *copyVersionStep) Run(_ StepContext) (*StepResult, error) {
	slog.Info("copying version directory", "step", s.name, "from", s.src, "to", s.dst)

	if err := copyTree(s.src, s.dst); err != nil {
		return nil, err
	}
	return &StepResult{Written: []string{s.dst}}, nil
}

func copyTree(src, dst string) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk error at %s: %w", path, err)
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return fmt.Errorf("computing relative path for %s: %w", path, relErr)
		}
		return copyEntry(dst, rel, path, d)
	})
	if err != nil {
		return fmt.Errorf("copying tree: %w", err)
	}
	return nil
}

func copyEntry(dst, rel, srcPath string, d fs.DirEntry) error {
	target := filepath.Join(dst, rel)

	if d.IsDir() {
		if err := os.MkdirAll(target, 0o750); err != nil {
			return fmt.Errorf("creating directory %s: %w", target, err)
		}
		return nil
	}

	if d.Type()&fs.ModeSymlink != 0 {
		link, err := os.Readlink(srcPath)
		if err != nil {
			return fmt.Errorf("reading link %s: %w", srcPath, err)
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replacing %s: %w", target, err)
		}
		if err := os.Symlink(link, target); err != nil {
			return fmt.Errorf("creating link %s: %w", target, err)
		}
		return nil
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", srcPath, err)
	}

	if err := os.WriteFile(target, data, info.Mode()); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
