package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/systemstart/catalog-update/pkg/api"
)

func testSummary() *api.TrainSummary {
	s := api.NewTrainSummary()
	s.Upgraded["nginx"] = &api.UpgradedItem{OldVersion: "2.3.1", NewVersion: "2.3.2", ItemPath: "/catalog/test/nginx"}
	s.Skipped["redis"] = "no update available"
	s.Skipped["broken"] = "validation failed"
	return s
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, api.OutputText, "/catalog/test", testSummary()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"catalog train: /catalog/test",
		"upgraded: 1 item(s)",
		"2.3.1 -> 2.3.2",
		"skipped: 2 item(s)",
		"validation failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in report:\n%s", want, out)
		}
	}

	if strings.Index(out, "broken") > strings.Index(out, "redis") {
		t.Errorf("skipped items should be sorted by name:\n%s", out)
	}
}

func TestRender_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, api.OutputText, "/catalog/test", api.NewTrainSummary()); err != nil {
		t.Fatal(err)
	}

	want := "catalog train: /catalog/test\nupgraded: 0 item(s)\nskipped: 0 item(s)\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, api.OutputJSON, "/catalog/test", testSummary()); err != nil {
		t.Fatal(err)
	}

	var got document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	want := newDocument("/catalog/test", testSummary())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"oldVersion": "2.3.1"`) {
		t.Errorf("expected camelCase keys:\n%s", buf.String())
	}
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, api.OutputYAML, "/catalog/test", testSummary()); err != nil {
		t.Fatal(err)
	}

	var got document
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if got.Skipped["broken"] != "validation failed" || got.Upgraded["nginx"].NewVersion != "2.3.2" {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, "xml", "/catalog/test", testSummary())
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected error, got %v", err)
	}
}
