package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/buildinfo"
	"github.com/matzehuels/ifcwatch/pkg/clipboard"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "ifcwatch"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg        Config
	configFile string
	logFile    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ifcwatch inspects IFC pipeline payloads in the terminal",
		Long: `ifcwatch hosts the watch and geometry nodes of an IFC processing pipeline in the terminal.

It classifies whatever a node receives (element lists, property aggregations,
plain objects, scalars), picks a table, summary or raw JSON view, and keeps the
node's display mode and size in a state store shared with other hosts.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/ifcwatch/config.toml)")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "log file used while the interactive node runs")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.geometryCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup runs before every command: it applies --verbose, loads the config
// file and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		registerLogHooks(c.Logger)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))

	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			c.Logger.Debug("no config dir, using defaults", "err", err)
			return nil
		}
		path = p
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", path, "backend", cfg.State.Backend)
	return nil
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// openStore opens the configured node state store. Connecting to redis may
// take a moment, so it shows a spinner on stderr.
func (c *CLI) openStore(ctx context.Context) (nodestate.Store, error) {
	cfg := c.cfg.storeConfig()
	if cfg.Backend != nodestate.BackendRedis {
		return nodestate.Open(ctx, cfg)
	}

	spin := newSpinner(ctx, os.Stderr, "Connecting to redis at "+cfg.RedisAddr+"...")
	spin.Start()
	store, err := nodestate.Open(ctx, cfg)
	if err != nil {
		spin.StopWithError("Could not connect to redis")
		return nil, err
	}
	spin.Stop()
	c.Logger.Debug("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return store, nil
}

// clipboardWriter returns the configured clipboard. out receives OSC 52
// sequences.
func (c *CLI) clipboardWriter(out io.Writer) clipboard.Writer {
	if !*c.cfg.Clipboard.Enabled {
		return clipboard.Disabled()
	}
	return clipboard.NewSystem(out, *c.cfg.Clipboard.OSC52)
}
