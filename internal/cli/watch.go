package cli

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
)

// statePollInterval is how often node data is re-read from stores that
// cannot be watched as files.
const statePollInterval = 2 * time.Second

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	node       string
	kind       string
	statusFile string
	label      string
}

func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch <payload>",
		Short: "Host an interactive watch node",
		Long: `Host an interactive watch node for a payload file.

The node reloads when the payload or status file changes and follows changes
to its stored data made by other hosts.

Keys:  m  cycle display mode (table → raw → summary)
       c  copy the full value to the clipboard
       ↑↓ scroll    q quit

Drag the ◢ grip with the mouse to resize the node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.node, "node", "", "node id (default derived from the payload file name)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "payload kind: array, object, primitive, propertyResults")
	cmd.Flags().StringVar(&opts.statusFile, "status-file", "", "read status from a JSON file and follow its changes")
	cmd.Flags().StringVar(&opts.label, "label", "", "node label (stored with the node)")

	_ = cmd.RegisterFlagCompletionFunc("node", c.completeNodes)
	_ = cmd.RegisterFlagCompletionFunc("kind", completeValues(kindNames))

	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, path string, opts watchOpts) error {
	if path == stdinPath {
		return errors.New(errors.ErrCodeInvalidInput, "watch needs a payload file, not stdin")
	}
	ctx := cmd.Context()

	in, err := loadInput(path, cmd.InOrStdin(), opts.kind)
	if err != nil {
		return err
	}
	status := inspect.StatusState{Status: inspect.StatusIdle}
	if opts.statusFile != "" {
		if status, err = loadStatus(opts.statusFile); err != nil {
			return err
		}
	}

	nodeID := opts.node
	if nodeID == "" {
		nodeID = nodeIDFromPath(path)
	}
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return err
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.label != "" {
		if _, err := store.Update(ctx, nodeID, nodestate.Merge(map[string]any{"label": opts.label})); err != nil {
			return err
		}
	}
	data, err := store.Get(ctx, nodeID)
	if err != nil {
		return err
	}

	// The terminal belongs to the node from here on.
	logFile, err := openLogFile(c.logFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	c.Logger.SetOutput(logFile)
	defer c.Logger.SetOutput(cmd.ErrOrStderr())
	logger := c.Logger.With("node", nodeID)
	ctx = withLogger(ctx, logger)
	logger.Info("watching", "payload", path, "status", opts.statusFile, "backend", c.cfg.State.Backend)

	model := newNodeModel(ctx, nodeConfig{
		nodeID:      nodeID,
		input:       in,
		status:      status,
		data:        data,
		store:       store,
		clipboard:   c.clipboardWriter(cmd.ErrOrStderr()),
		logger:      logger,
		color:       *c.cfg.Display.Color,
		syntaxStyle: c.cfg.Display.SyntaxStyle,
		cellWidth:   c.cfg.Node.CellWidth,
		cellHeight:  c.cfg.Node.CellHeight,
	})
	// Run also returns on context cancellation, which skips the model's
	// own quit handling.
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	feedCtx, stop := context.WithCancel(ctx)
	defer stop()
	sources := watchSources{
		payload: path,
		kind:    opts.kind,
		status:  opts.statusFile,
		nodeID:  nodeID,
		store:   store,
		logger:  logger,
	}
	if err := sources.start(feedCtx, p.Send); err != nil {
		return err
	}

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(*nodeModel); ok {
		printSuccess(cmd.OutOrStdout(), "Closed %s (%s)", nodeID, m.Value().mode.Label())
	}
	return nil
}

// nodeIDFromPath derives a node id from a payload file name, falling back
// to a random id when the name is not a valid node id.
func nodeIDFromPath(path string) string {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if errors.ValidateNodeID(id) != nil {
		return uuid.NewString()
	}
	return id
}

// watchSources turns file changes and stored data into node messages.
type watchSources struct {
	payload string
	kind    string
	status  string
	nodeID  string
	store   nodestate.Store
	logger  *log.Logger
}

// start watches the payload and status files, plus the node's state file
// when the store keeps one. Other stores are polled.
func (s watchSources) start(ctx context.Context, send func(tea.Msg)) error {
	payloadPath, err := filepath.Abs(s.payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", s.payload)
	}
	var statusPath, statePath string
	if s.status != "" {
		if statusPath, err = filepath.Abs(s.status); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", s.status)
		}
	}
	if fs, ok := s.store.(*nodestate.FileStore); ok {
		statePath = filepath.Join(fs.Path(), s.nodeID+".json")
	} else {
		go s.poll(ctx, send)
	}

	fw, err := newFileWatcher(s.logger, defaultDebounce, payloadPath, statusPath, statePath)
	if err != nil {
		return err
	}
	go fw.Run(ctx)
	go func() {
		defer fw.Close()
		for ev := range fw.Events() {
			switch ev.path {
			case payloadPath:
				if ev.removed {
					send(removedMsg{path: s.payload})
					continue
				}
				in, err := loadInput(s.payload, nil, s.kind)
				if err != nil {
					s.logger.Warn("reload payload", "err", err)
					continue
				}
				s.logger.Debug("payload reloaded", "kind", in.Kind)
				send(inputMsg{input: in})

			case statusPath:
				st, err := loadStatus(s.status)
				if err != nil {
					s.logger.Warn("reload status", "err", err)
					continue
				}
				send(statusMsg{status: st})

			case statePath:
				s.sendData(ctx, send)
			}
		}
	}()
	return nil
}

// poll re-reads node data until ctx is cancelled.
func (s watchSources) poll(ctx context.Context, send func(tea.Msg)) {
	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendData(ctx, send)
		}
	}
}

func (s watchSources) sendData(ctx context.Context, send func(tea.Msg)) {
	data, err := s.store.Get(ctx, s.nodeID)
	if err != nil {
		s.logger.Warn("read node data", "err", err)
		return
	}
	send(dataMsg{data: data})
}
