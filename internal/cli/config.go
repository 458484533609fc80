package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
)

// Defaults for values missing from the config file.
const (
	defaultFeedAddr   = "127.0.0.1:7373"
	defaultCellWidth  = 8
	defaultCellHeight = 16
)

// Config is the contents of config.toml.
type Config struct {
	Display   DisplayConfig   `toml:"display"`
	Node      NodeConfig      `toml:"node"`
	State     StateConfig     `toml:"state"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Feed      FeedConfig      `toml:"feed"`
}

// DisplayConfig controls how payloads are drawn.
type DisplayConfig struct {
	Mode        string `toml:"mode"`
	Color       *bool  `toml:"color"`
	SyntaxStyle string `toml:"syntax_style"`
}

// NodeConfig sets the initial node size and the pixel size of a terminal
// cell, used to map node sizes onto the terminal.
type NodeConfig struct {
	Width      int `toml:"width"`
	Height     int `toml:"height"`
	CellWidth  int `toml:"cell_width"`
	CellHeight int `toml:"cell_height"`
}

// StateConfig selects the node state backend.
type StateConfig struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	RedisAddr   string `toml:"redis_addr"`
	RedisDB     int    `toml:"redis_db"`
	RedisPrefix string `toml:"redis_prefix"`
}

// ClipboardConfig controls the copy action.
type ClipboardConfig struct {
	Enabled *bool `toml:"enabled"`
	OSC52   *bool `toml:"osc52"`
}

// FeedConfig configures the HTTP feed.
type FeedConfig struct {
	Addr string `toml:"addr"`
	// CacheDir keeps rendered frames on disk. Empty keeps them in memory.
	CacheDir string `toml:"cache_dir"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Display.Mode == "" {
		c.Display.Mode = string(inspect.DefaultMode)
	}
	if c.Display.Color == nil {
		c.Display.Color = boolPtr(true)
	}
	if c.Display.SyntaxStyle == "" {
		c.Display.SyntaxStyle = inspect.DefaultSyntaxStyle
	}
	if c.Node.Width == 0 {
		c.Node.Width = inspect.DefaultWidth
	}
	if c.Node.Height == 0 {
		c.Node.Height = inspect.DefaultHeight
	}
	if c.Node.CellWidth == 0 {
		c.Node.CellWidth = defaultCellWidth
	}
	if c.Node.CellHeight == 0 {
		c.Node.CellHeight = defaultCellHeight
	}
	if c.State.Backend == "" {
		c.State.Backend = nodestate.BackendFile
	}
	if c.Clipboard.Enabled == nil {
		c.Clipboard.Enabled = boolPtr(true)
	}
	if c.Clipboard.OSC52 == nil {
		c.Clipboard.OSC52 = boolPtr(true)
	}
	if c.Feed.Addr == "" {
		c.Feed.Addr = defaultFeedAddr
	}
}

// validate checks a config after defaults were applied.
func (c Config) validate() error {
	if _, err := inspect.ParseMode(c.Display.Mode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "display.mode")
	}
	if c.Node.Width < inspect.MinWidth {
		return errors.New(errors.ErrCodeInvalidConfig, "node.width must be at least %d, got %d", inspect.MinWidth, c.Node.Width)
	}
	if c.Node.Height < inspect.MinHeight {
		return errors.New(errors.ErrCodeInvalidConfig, "node.height must be at least %d, got %d", inspect.MinHeight, c.Node.Height)
	}
	if c.Node.CellWidth < 1 || c.Node.CellHeight < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "node.cell_width and node.cell_height must be positive")
	}
	switch c.State.Backend {
	case nodestate.BackendMemory, nodestate.BackendFile:
	case nodestate.BackendRedis:
		if c.State.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "state.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"unknown state.backend: %s (must be 'memory', 'file' or 'redis')", c.State.Backend)
	}
	return nil
}

// storeConfig converts the [state] section for nodestate.Open.
func (c Config) storeConfig() nodestate.Config {
	return nodestate.Config{
		Backend:     c.State.Backend,
		Dir:         c.State.Dir,
		RedisAddr:   c.State.RedisAddr,
		RedisDB:     c.State.RedisDB,
		RedisPrefix: c.State.RedisPrefix,
	}
}

// loadConfig reads path. A missing file yields the defaults unless the path
// was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	var c Config
	_, err := toml.DecodeFile(path, &c)
	switch {
	case os.IsNotExist(err) && !explicit:
		return defaultConfig(), nil
	case os.IsNotExist(err):
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// configPath returns the config file location using XDG standard
// (~/.config/ifcwatch/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// stateDir returns the directory for logs using XDG standard
// (~/.local/state/ifcwatch/).
func stateDir() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appName), nil
}

func boolPtr(b bool) *bool { return &b }
