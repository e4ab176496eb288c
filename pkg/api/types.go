package api

const (
	UpgradeInfoFilename     = "upgrade_info.json"
	UpgradeStrategyFilename = "upgrade_strategy"
	ChartFilename           = "Chart.yaml"

	LayoutVersioned = "versioned"
	LayoutInPlace   = "in-place"

	RegistryToolSkopeo = "skopeo"
	RegistryToolCrane  = "crane"
	RegistryToolStatic = "static"
)

// UpgradeInfo is the upgrade_info.json declaration of a catalog item.
type UpgradeInfo struct {
	Filename     string   `json:"filename"`
	Keys         []string `json:"keys"`
	TestFilename string   `json:"test_filename,omitempty"`
}

// ImageReference is the {repository, tag} mapping found at a key in a values file.
type ImageReference struct {
	Repository string `json:"repository" yaml:"repository"`
	Tag        string `json:"tag" yaml:"tag"`
}

// KeyState tags the resolution state of a single key.
type KeyState string

const (
	// KeyUnresolved is the initial state: the key was not found in the values file.
	KeyUnresolved KeyState = "unresolved"
	// KeyInvalid means the value at the key is not a valid image reference.
	KeyInvalid KeyState = "invalid"
	// KeyLookupFailed means the registry could not list tags for the image.
	KeyLookupFailed KeyState = "lookup-failed"
	// KeyResolved means available tags were retrieved.
	KeyResolved KeyState = "resolved"
)

// KeyNotFound is the error reported for a key that is still unresolved.
const KeyNotFound = "key not found in values file"

// KeyOutcome is the per-key result of an upgrade check.
type KeyOutcome struct {
	State         KeyState `json:"state" yaml:"state"`
	Value         any      `json:"value" yaml:"value"`
	CurrentTag    string   `json:"currentTag,omitempty" yaml:"currentTag,omitempty"`
	AvailableTags []string `json:"availableTags" yaml:"availableTags"`
	LatestTag     string   `json:"latestTag,omitempty" yaml:"latestTag,omitempty"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewKeyOutcome returns an outcome in its default, unresolved state.
func NewKeyOutcome() *KeyOutcome {
	return &KeyOutcome{State: KeyUnresolved, AvailableTags: []string{}, Error: KeyNotFound}
}

// Resolved reports whether the key made it through tag resolution.
func (o *KeyOutcome) Resolved() bool {
	return o.State == KeyResolved
}

// Changed reports whether the strategy picked a tag different from the current one.
func (o *KeyOutcome) Changed() bool {
	return o.Resolved() && o.LatestTag != "" && o.LatestTag != o.CurrentTag
}

// StrategyOutput is the validated response of an upgrade strategy program.
type StrategyOutput struct {
	Tags       map[string]string `json:"tags"`
	AppVersion *string           `json:"app_version"`
}

// UpgradeDetails holds the per-key results and the computed new versions.
type UpgradeDetails struct {
	Filename       string                 `json:"filename" yaml:"filename"`
	KeyOrder       []string               `json:"-" yaml:"-"`
	Keys           map[string]*KeyOutcome `json:"keys" yaml:"keys"`
	NewVersion     string                 `json:"newVersion,omitempty" yaml:"newVersion,omitempty"`
	NewAppVersion  string                 `json:"newAppVersion,omitempty" yaml:"newAppVersion,omitempty"`
	NewVersionPath string                 `json:"newVersionPath,omitempty" yaml:"newVersionPath,omitempty"`
	Written        []string               `json:"written,omitempty" yaml:"written,omitempty"`
}

// UpgradeSummary is the result of checking and upgrading one catalog item.
type UpgradeSummary struct {
	Error            string         `json:"error,omitempty" yaml:"error,omitempty"`
	LatestVersion    string         `json:"latestVersion" yaml:"latestVersion"`
	UpgradeAvailable bool           `json:"upgradeAvailable" yaml:"upgradeAvailable"`
	Upgraded         bool           `json:"upgraded" yaml:"upgraded"`
	Details          UpgradeDetails `json:"details" yaml:"details"`
}

// UpgradedItem records a successful upgrade in a train run.
type UpgradedItem struct {
	OldVersion string `json:"oldVersion" yaml:"oldVersion"`
	NewVersion string `json:"newVersion" yaml:"newVersion"`
	ItemPath   string `json:"itemPath" yaml:"itemPath"`
}

// TrainSummary accumulates the outcome of every item in a train.
type TrainSummary struct {
	Skipped  map[string]string        `json:"skipped" yaml:"skipped"`
	Upgraded map[string]*UpgradedItem `json:"upgraded" yaml:"upgraded"`
}

// NewTrainSummary returns an empty summary.
func NewTrainSummary() *TrainSummary {
	return &TrainSummary{
		Skipped:  make(map[string]string),
		Upgraded: make(map[string]*UpgradedItem),
	}
}
