package steps

import "github.com/systemstart/catalog-update/pkg/api"

// StepContext provides the runtime context for a mutation step.
type StepContext struct {
	WorkDir string // directory holding the values and chart files being rewritten
	Details *api.UpgradeDetails
}

// StepResult holds what a step changed on disk.
type StepResult struct {
	Written []string // paths created or rewritten
}

// Step is the interface all mutation steps implement. Steps are not
// transactional: a failing step leaves earlier steps' writes in place.
type Step interface {
	Name() string
	Run(ctx StepContext) (*StepResult, error)
}
