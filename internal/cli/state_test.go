package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

func TestStateCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "state", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No stored nodes") {
		t.Errorf("empty list output:\n%s", out)
	}

	for _, args := range [][]string{
		{"state", "set-mode", "watch-1", "summary"},
		{"state", "set-mode", "watch-2", "raw"},
	} {
		if _, err := env.run(t, "", args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	out, err = env.run(t, "", "state", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := strings.Fields(out); len(got) != 2 || got[0] != "watch-1" || got[1] != "watch-2" {
		t.Errorf("list = %q, want [watch-1 watch-2]", got)
	}

	out, err = env.run(t, "", "state", "get", "watch-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, want := range []string{"watch-1", "Summary", "250 × 200", "properties"} {
		if !strings.Contains(out, want) {
			t.Errorf("get output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "", "state", "get", "watch-2", "--json")
	if err != nil {
		t.Fatalf("get --json: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("get --json output is not JSON: %v\n%s", err, out)
	}
	props, _ := doc["properties"].(map[string]any)
	if props["displayMode"] != "raw" {
		t.Errorf("stored document = %v, want displayMode raw", doc)
	}

	if _, err := env.run(t, "", "state", "reset", "watch-1", "watch-2"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	out, err = env.run(t, "", "state", "get", "watch-1")
	if err != nil {
		t.Fatalf("get after reset: %v", err)
	}
	if !strings.Contains(out, "No stored data") {
		t.Errorf("get after reset:\n%s", out)
	}
}

func TestStateErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad mode", []string{"state", "set-mode", "watch-1", "grid"}, errors.ErrCodeInvalidMode},
		{"bad node", []string{"state", "set-mode", "a/b", "raw"}, errors.ErrCodeInvalidNodeID},
		{"bad node get", []string{"state", "get", ".."}, errors.ErrCodeInvalidNodeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, "", tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestGeometryCommand(t *testing.T) {
	env := newTestEnv(t)
	node := writeFile(t, env.dir, "geometry.json", `{
  "label": "Slabs",
  "status": "success",
  "properties": {"elementType": "IfcSlab", "includeOpenings": "false"},
  "elements": [{}, {}]
}`)

	out, err := env.run(t, "", "geometry", node, "--width", "480")
	if err != nil {
		t.Fatalf("geometry: %v", err)
	}
	for _, want := range []string{"Slabs", "success", "IfcSlab", "Include Openings:", "No", "Extracted Elements:", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, `{"isLoading": true}`, "geometry", "-")
	if err != nil {
		t.Fatalf("geometry from stdin: %v", err)
	}
	if !strings.Contains(out, "Processing Geometry...") || strings.Contains(out, "Element Type") {
		t.Errorf("loading geometry node:\n%s", out)
	}

	if _, err := env.run(t, "", "geometry", node+".missing"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}
