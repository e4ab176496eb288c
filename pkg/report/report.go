package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/systemstart/catalog-update/pkg/api"
)

const textTemplate = `catalog train: {{ .train }}
upgraded: {{ len .upgraded }} item(s)
{{- range $name := keys .upgraded | sortAlpha }}
{{- $item := index $.upgraded $name }}
  {{ printf "%-30s" $name }} {{ $item.OldVersion }} -> {{ $item.NewVersion }}
{{- end }}
skipped: {{ len .skipped }} item(s)
{{- range $name := keys .skipped | sortAlpha }}
  {{ printf "%-30s" $name }} {{ index $.skipped $name | default "unknown reason" | trunc 200 }}
{{- end }}
`

var text = template.Must(template.New("report").Funcs(sprig.TxtFuncMap()).Parse(textTemplate))

// document is the machine readable report.
type document struct {
	Train    string                       `json:"train" yaml:"train"`
	Upgraded map[string]*api.UpgradedItem `json:"upgraded" yaml:"upgraded"`
	Skipped  map[string]string            `json:"skipped" yaml:"skipped"`
}

// Render writes the summary of a train run in the given format.
func Render(w io.Writer, format, train string, summary *api.TrainSummary) error {
	switch format {
	case api.OutputText, "":
		return renderText(w, train, summary)
	case api.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newDocument(train, summary)); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case api.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(train, summary)); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func newDocument(train string, summary *api.TrainSummary) document {
	return document{Train: train, Upgraded: summary.Upgraded, Skipped: summary.Skipped}
}

func renderText(w io.Writer, train string, summary *api.TrainSummary) error {
	// sprig's keys only accepts map[string]any
	upgraded := make(map[string]any, len(summary.Upgraded))
	for name, item := range summary.Upgraded {
		upgraded[name] = item
	}
	skipped := make(map[string]any, len(summary.Skipped))
	for name, reason := range summary.Skipped {
		skipped[name] = reason
	}

	data := map[string]any{
		"train":    train,
		"upgraded": upgraded,
		"skipped":  skipped,
	}
	if err := text.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
