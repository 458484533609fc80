package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/inspect"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	mode            string  // display mode: table, raw, summary
	kind            string  // payload kind override
	width           int     // node width in canvas pixels; 0 sizes to content
	height          int     // node height in canvas pixels; 0 shows everything
	status          string  // node status
	progress        float64 // progress percentage, only used when set
	progressMessage string
	errText         string
	statusFile      string
	label           string
	node            string // read label, mode and size from this node's state
	noColor         bool
}

// frameSpec is a resolved render request.
type frameSpec struct {
	node     watchNode
	visual   inspect.VisualState
	sized    bool // visual is set; otherwise the frame sizes to its content
	clip     bool // clip the content region to the node height
	color    bool
	selected bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <payload|->",
		Short: "Print one frame of a watch node",
		Long: `Print one frame of a watch node for a payload file (JSON or YAML).

The payload is either a bare document or an envelope {"type", "value", "count"}.
Status flags (or --status-file) decide whether the payload, a loading indicator
or an error is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "display mode: table (default), raw, summary")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "payload kind: array, object, primitive, propertyResults")
	cmd.Flags().IntVar(&opts.width, "width", 0, "node width in canvas pixels (0 sizes to content)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "node height in canvas pixels (0 shows all content)")
	cmd.Flags().StringVar(&opts.status, "status", "", "node status: idle, working, success, error")
	cmd.Flags().Float64Var(&opts.progress, "progress", 0, "progress percentage of a working node")
	cmd.Flags().StringVar(&opts.progressMessage, "progress-message", "", "progress message of a working node")
	cmd.Flags().StringVar(&opts.errText, "error", "", "error text of a failed node")
	cmd.Flags().StringVar(&opts.statusFile, "status-file", "", "read status from a JSON file")
	cmd.Flags().StringVar(&opts.label, "label", "", "node label")
	cmd.Flags().StringVar(&opts.node, "node", "", "use label, mode and size stored for this node")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colors")

	_ = cmd.RegisterFlagCompletionFunc("mode", completeValues(modeNames))
	_ = cmd.RegisterFlagCompletionFunc("kind", completeValues(kindNames))
	_ = cmd.RegisterFlagCompletionFunc("status", completeValues(statusNames))
	_ = cmd.RegisterFlagCompletionFunc("node", c.completeNodes)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newStopwatch(logger)

	in, err := loadInput(path, cmd.InOrStdin(), opts.kind)
	if err != nil {
		return err
	}
	st, err := statusFromFlags(opts, cmd.Flags().Changed("progress"))
	if err != nil {
		return err
	}

	fr := frameSpec{
		node:  watchNode{label: opts.label, input: in, status: st},
		color: *c.cfg.Display.Color && !opts.noColor,
	}
	var data map[string]any
	if opts.node != "" {
		if data, err = c.nodeData(ctx, opts.node); err != nil {
			return err
		}
		fr.visual, fr.sized = inspect.VisualStateFrom(data), true
		if fr.node.label == "" {
			fr.node.label, _ = data["label"].(string)
		}
	}

	fr.node.mode, err = c.resolveMode(opts.mode, data)
	if err != nil {
		return err
	}
	if opts.width > 0 || opts.height > 0 {
		if !fr.sized {
			fr.visual = inspect.VisualState{Width: c.cfg.Node.Width, Height: c.cfg.Node.Height}
			fr.sized = true
		}
		if opts.width > 0 {
			fr.visual.Width = opts.width
		}
		if opts.height > 0 {
			fr.visual.Height = opts.height
			fr.clip = true
		}
		fr.visual = fr.visual.Clamp()
	}

	if !fr.color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, c.frame(ctx, fr))
	prog.done(fmt.Sprintf("Rendered %s as %s", describePath(path), fr.node.mode.Label()))
	return nil
}

// resolveMode picks the display mode: an explicit flag wins over stored
// node data, which wins over the configured default.
func (c *CLI) resolveMode(flag string, data map[string]any) (inspect.Mode, error) {
	if flag != "" {
		return inspect.ParseMode(flag)
	}
	if data != nil {
		return inspect.ModeFromNodeData(data), nil
	}
	return inspect.ParseMode(c.cfg.Display.Mode)
}

// nodeData reads a node's persisted data from the configured store.
func (c *CLI) nodeData(ctx context.Context, nodeID string) (map[string]any, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	data, err := store.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// statusFromFlags builds the status from --status-file or the status flags.
func statusFromFlags(opts renderOpts, progressSet bool) (inspect.StatusState, error) {
	if opts.statusFile != "" {
		return loadStatus(opts.statusFile)
	}
	status, err := inspect.ParseStatus(opts.status)
	if err != nil {
		return inspect.StatusState{}, err
	}
	if opts.errText != "" && opts.status == "" {
		status = inspect.StatusError
	}
	st := inspect.StatusState{Status: status, Error: opts.errText}
	if progressSet || opts.progressMessage != "" {
		st.Progress = &inspect.Progress{Percentage: opts.progress, Message: opts.progressMessage}
	}
	return st, nil
}

// frame draws a static watch node as described by fr.
func (c *CLI) frame(ctx context.Context, fr frameSpec) string {
	o := drawOptions{
		color:       fr.color,
		syntaxStyle: c.cfg.Display.SyntaxStyle,
		selected:    fr.selected,
	}
	if fr.sized {
		o.width = c.cells(fr.visual.Width)
	}
	if fr.clip {
		o.contentLines = c.lines(fr.visual.ContentHeight())
	}
	return drawWatch(ctx, fr.node, o)
}

// cells converts a width in canvas pixels to terminal cells.
func (c *CLI) cells(px int) int {
	return max(px/c.cfg.Node.CellWidth, 1)
}

// lines converts a height in canvas pixels to terminal lines.
func (c *CLI) lines(px int) int {
	return max(px/c.cfg.Node.CellHeight, 1)
}

// clipLines keeps the first n lines of s, marking the cut with an ellipsis.
func clipLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	kept := lines[:max(n-1, 0)]
	return strings.Join(append(kept, StyleDim.Render("⋯")), "\n")
}

func describePath(path string) string {
	if path == stdinPath {
		return "stdin"
	}
	return path
}

// renderText is the feed's RenderFunc: the same frame render prints, sized
// to the requested width in cells.
func (c *CLI) renderText(ctx context.Context, node watchNode, width int) string {
	return drawWatch(ctx, node, drawOptions{
		width:       width,
		syntaxStyle: c.cfg.Display.SyntaxStyle,
	})
}
