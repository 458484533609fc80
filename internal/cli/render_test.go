package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
)

const wallsJSON = `[
  {"expressId": 1, "type": "IfcWall", "properties": {"Name": "North wall"}},
  {"expressId": 2, "type": "IfcWall", "properties": {"Name": "South wall"}},
  {"expressId": 3, "type": "IfcDoor", "properties": {"Name": "Main door"}}
]`

// testEnv is a config file with a file-backed state store in a temp dir.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	config := writeFile(t, dir, "config.toml", fmt.Sprintf(`
[display]
color = false

[state]
backend = "file"
dir = %q
`, filepath.Join(dir, "nodes")))
	return testEnv{dir: dir, config: config}
}

// run executes the CLI with args and returns stdout.
func (e testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.config}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	walls := writeFile(t, env.dir, "walls.json", wallsJSON)

	tests := []struct {
		name   string
		args   []string
		want   []string
		absent []string
	}{
		{
			name: "table",
			args: []string{walls},
			want: []string{"Watch Node", "Table", "3 items", "North wall", "Main door"},
		},
		{
			name: "summary",
			args: []string{walls, "--mode", "summary", "--label", "Walls"},
			want: []string{"Walls", "Summary", "Wall", "Door", "Total"},
		},
		{
			name: "raw",
			args: []string{walls, "-m", "raw"},
			want: []string{"JSON", `"expressId": 1`, inspect.CopyLabel},
		},
		{
			name:   "working",
			args:   []string{walls, "--status", "working", "--progress", "50", "--progress-message", "extracting"},
			want:   []string{"working", "50%", "extracting"},
			absent: []string{"North wall"},
		},
		{
			name:   "error implies status",
			args:   []string{walls, "--error", "boom"},
			want:   []string{"error", errorPrefix + "boom"},
			absent: []string{"North wall"},
		},
		{
			name: "kind override",
			args: []string{walls, "--kind", "object"},
			want: []string{"object"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, "", append([]string{"render"}, tt.args...)...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, absent := range tt.absent {
				if strings.Contains(out, absent) {
					t.Errorf("output should not contain %q:\n%s", absent, out)
				}
			}
		})
	}
}

func TestRenderStdin(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, `{"Name": "Slab", "Height": 0.3}`, "render", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Name", "Slab", "Height"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWidth(t *testing.T) {
	env := newTestEnv(t)
	walls := writeFile(t, env.dir, "walls.json", wallsJSON)

	// 400px at the default 8px cells.
	out, err := env.run(t, "", "render", walls, "--width", "400")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if w := lipgloss.Width(line); w != 50 {
			t.Errorf("line %d is %d cells wide, want 50: %q", i, w, line)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	env := newTestEnv(t)
	walls := writeFile(t, env.dir, "walls.json", wallsJSON)
	bad := writeFile(t, env.dir, "bad.json", `{"a": `)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"mode", []string{walls, "--mode", "grid"}, errors.ErrCodeInvalidMode},
		{"status", []string{walls, "--status", "done"}, errors.ErrCodeInvalidStatus},
		{"kind", []string{walls, "--kind", "blob"}, errors.ErrCodeInvalidPayload},
		{"bad json", []string{bad}, errors.ErrCodeInvalidPayload},
		{"node id", []string{walls, "--node", "../etc"}, errors.ErrCodeInvalidNodeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, "", append([]string{"render"}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("render error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderStatusFile(t *testing.T) {
	env := newTestEnv(t)
	walls := writeFile(t, env.dir, "walls.json", wallsJSON)
	status := writeFile(t, env.dir, "status.json", `{"status": "error", "error": "geometry failed"}`)

	out, err := env.run(t, "", "render", walls, "--status-file", status)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, errorPrefix+"geometry failed") {
		t.Errorf("output missing error text:\n%s", out)
	}

	missing := filepath.Join(env.dir, "absent.json")
	out, err = env.run(t, "", "render", walls, "--status-file", missing)
	if err != nil {
		t.Fatalf("render with missing status file: %v", err)
	}
	if !strings.Contains(out, "idle") || !strings.Contains(out, "North wall") {
		t.Errorf("missing status file should be idle:\n%s", out)
	}
}

func TestRenderUsesStoredMode(t *testing.T) {
	env := newTestEnv(t)
	walls := writeFile(t, env.dir, "walls.json", wallsJSON)

	if _, err := env.run(t, "", "state", "set-mode", "watch-1", "raw"); err != nil {
		t.Fatalf("set-mode: %v", err)
	}
	out, err := env.run(t, "", "render", walls, "--node", "watch-1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "JSON") || !strings.Contains(out, inspect.CopyLabel) {
		t.Errorf("stored raw mode not applied:\n%s", out)
	}

	// An explicit flag wins over the stored mode.
	out, err = env.run(t, "", "render", walls, "--node", "watch-1", "--mode", "summary")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Total") {
		t.Errorf("--mode should override the stored mode:\n%s", out)
	}
}

func TestStatusFromFlags(t *testing.T) {
	tests := []struct {
		name        string
		opts        renderOpts
		progressSet bool
		want        inspect.Status
		progress    bool
	}{
		{"default idle", renderOpts{}, false, inspect.StatusIdle, false},
		{"explicit", renderOpts{status: "success"}, false, inspect.StatusSuccess, false},
		{"error text", renderOpts{errText: "x"}, false, inspect.StatusError, false},
		{"error text keeps explicit status", renderOpts{status: "working", errText: "x"}, false, inspect.StatusWorking, false},
		{"progress", renderOpts{status: "working"}, true, inspect.StatusWorking, true},
		{"progress message", renderOpts{status: "working", progressMessage: "m"}, false, inspect.StatusWorking, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := statusFromFlags(tt.opts, tt.progressSet)
			if err != nil {
				t.Fatal(err)
			}
			if st.Status != tt.want {
				t.Errorf("status = %q, want %q", st.Status, tt.want)
			}
			if (st.Progress != nil) != tt.progress {
				t.Errorf("progress = %v, want set=%v", st.Progress, tt.progress)
			}
		})
	}
}

func TestRenderSamplePayloads(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join("..", "..", "examples", "payloads")

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"render", filepath.Join(dir, "walls.json")}, []string{"6 items", "North wall"}},
		{[]string{"render", filepath.Join(dir, "walls.yaml"), "--mode", "summary"}, []string{"Wall", "Total"}},
		{[]string{"render", filepath.Join(dir, "quantities.json")}, []string{"FireRating", "REI90"}},
		{[]string{"render", filepath.Join(dir, "walls.json"), "--status-file", filepath.Join(dir, "status.json")}, []string{"40%", "Extracting geometry"}},
		{[]string{"geometry", filepath.Join(dir, "geometry.json")}, []string{"Slab geometry", "IfcSlab", "3"}},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.args[1]), func(t *testing.T) {
			out, err := env.run(t, "", append(tt.args, "--width", "800")...)
			if err != nil {
				t.Fatalf("%v: %v", tt.args, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
