package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()

	if c.Display.Mode != string(inspect.ModeTable) {
		t.Errorf("mode = %q, want table", c.Display.Mode)
	}
	if !*c.Display.Color || !*c.Clipboard.Enabled || !*c.Clipboard.OSC52 {
		t.Error("color and clipboard should default to on")
	}
	if c.Node.Width != inspect.DefaultWidth || c.Node.Height != inspect.DefaultHeight {
		t.Errorf("node size = %dx%d, want %dx%d", c.Node.Width, c.Node.Height, inspect.DefaultWidth, inspect.DefaultHeight)
	}
	if c.State.Backend != nodestate.BackendFile {
		t.Errorf("backend = %q, want file", c.State.Backend)
	}
	if c.Feed.Addr != defaultFeedAddr {
		t.Errorf("feed addr = %q, want %q", c.Feed.Addr, defaultFeedAddr)
	}
	if err := c.validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[display]
mode = "summary"
color = false

[node]
width = 320

[state]
backend = "memory"

[clipboard]
osc52 = false

[feed]
cache_dir = "/var/cache/ifcwatch"
`)

	c, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if c.Display.Mode != "summary" {
		t.Errorf("mode = %q, want summary", c.Display.Mode)
	}
	if *c.Display.Color {
		t.Error("color should be off")
	}
	if c.Node.Width != 320 || c.Node.Height != inspect.DefaultHeight {
		t.Errorf("node size = %dx%d, want 320x%d", c.Node.Width, c.Node.Height, inspect.DefaultHeight)
	}
	if c.State.Backend != nodestate.BackendMemory {
		t.Errorf("backend = %q, want memory", c.State.Backend)
	}
	if !*c.Clipboard.Enabled || *c.Clipboard.OSC52 {
		t.Error("clipboard should be enabled without OSC 52")
	}
	if c.Feed.CacheDir != "/var/cache/ifcwatch" || c.Feed.Addr != defaultFeedAddr {
		t.Errorf("feed = %+v", c.Feed)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	c, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("implicit missing config should give defaults, got %v", err)
	}
	if c.Feed.Addr != defaultFeedAddr {
		t.Errorf("feed addr = %q, want default", c.Feed.Addr)
	}

	_, err = loadConfig(path, true)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing config: got %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[display\nmode = "},
		{"mode", "[display]\nmode = \"grid\""},
		{"width below minimum", "[node]\nwidth = 100"},
		{"height below minimum", "[node]\nheight = 149"},
		{"negative cell", "[node]\ncell_width = -1"},
		{"backend", "[state]\nbackend = \"sqlite\""},
		{"redis without addr", "[state]\nbackend = \"redis\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.toml", tt.content)
			_, err := loadConfig(path, true)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("loadConfig() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestStoreConfig(t *testing.T) {
	c := defaultConfig()
	c.State = StateConfig{Backend: "redis", RedisAddr: "localhost:6379", RedisDB: 2, RedisPrefix: "ifc:"}

	got := c.storeConfig()
	want := nodestate.Config{Backend: "redis", RedisAddr: "localhost:6379", RedisDB: 2, RedisPrefix: "ifc:"}
	if got != want {
		t.Errorf("storeConfig() = %+v, want %+v", got, want)
	}
}
