package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/ifcwatch/pkg/clipboard"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// saveTimeout bounds a mode write from the interactive node.
const saveTimeout = 2 * time.Second

// Rows above the content region: top border, header, subheader.
const contentTop = 3

// =============================================================================
// Messages
// =============================================================================

// inputMsg delivers a new payload.
type inputMsg struct{ input payload.Input }

// statusMsg delivers a new node status.
type statusMsg struct{ status inspect.StatusState }

// dataMsg delivers node data read back from the store.
type dataMsg struct{ data map[string]any }

// removedMsg reports that the payload file went away.
type removedMsg struct{ path string }

// copyDoneMsg reports the outcome of a clipboard write.
type copyDoneMsg struct {
	bytes int
	err   error
}

// copyResetMsg expires the copied flag set by the Mark that returned token.
type copyResetMsg struct{ token uint64 }

// modeSavedMsg reports the outcome of persisting the display mode.
type modeSavedMsg struct {
	mode inspect.Mode
	err  error
}

// =============================================================================
// Key bindings
// =============================================================================

type nodeKeys struct {
	Mode key.Binding
	Copy key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func defaultNodeKeys() nodeKeys {
	return nodeKeys{
		Mode: key.NewBinding(key.WithKeys("m", "tab"), key.WithHelp("m", "mode")),
		Copy: key.NewBinding(key.WithKeys("c", "y"), key.WithHelp("c", "copy")),
		Up:   key.NewBinding(key.WithKeys("up", "k", "pgup"), key.WithHelp("↑", "scroll up")),
		Down: key.NewBinding(key.WithKeys("down", "j", "pgdown"), key.WithHelp("↓", "scroll down")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k nodeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Mode, k.Copy, k.Up, k.Down, k.Quit}
}

func (k nodeKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// =============================================================================
// nodeModel - Interactive watch node
// =============================================================================

// nodeConfig is everything the interactive node needs from the CLI.
type nodeConfig struct {
	nodeID      string
	label       string
	input       payload.Input
	status      inspect.StatusState
	data        map[string]any // stored node data; nil for a new node
	store       nodestate.Store
	clipboard   clipboard.Writer
	logger      *log.Logger
	color       bool
	syntaxStyle string
	cellWidth   int
	cellHeight  int
}

// nodeModel hosts one watch node in the terminal. It owns the copy and
// resize state machines; payload, status and stored data arrive as
// messages.
type nodeModel struct {
	ctx context.Context
	cfg nodeConfig

	node   watchNode
	copy   inspect.CopyFlag
	bus    *pointerBus
	resize *inspect.ResizeController
	drag   *inspect.ResizeHandle

	viewport viewport.Model
	spinner  spinner.Model
	bar      progress.Model
	help     help.Model
	keys     nodeKeys

	termWidth  int
	termHeight int
	focused    bool
	quitting   bool
}

func newNodeModel(ctx context.Context, cfg nodeConfig) *nodeModel {
	if cfg.logger == nil {
		cfg.logger = loggerFromContext(ctx)
	}
	visual := inspect.DefaultVisualState()
	mode := inspect.ModeTable
	if cfg.data != nil {
		visual = inspect.VisualStateFrom(cfg.data)
		mode = inspect.ModeFromNodeData(cfg.data)
		if cfg.label == "" {
			cfg.label, _ = cfg.data["label"].(string)
		}
	}

	bus := newPointerBus()
	updater := nodestate.NewUpdater(cfg.store, 0, nil)
	m := &nodeModel{
		ctx: ctx,
		cfg: cfg,
		node: watchNode{
			label:  cfg.label,
			input:  cfg.input,
			mode:   mode,
			status: cfg.status,
		},
		bus:      bus,
		resize:   inspect.NewResizeController(cfg.nodeID, visual, bus, updater),
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleIconSpinner)),
		help:     help.New(),
		keys:     defaultNodeKeys(),
		focused:  true,
	}
	m.resize.OnError(func(err error) {
		cfg.logger.Warn("resize write-back failed", "node", cfg.nodeID, "err", err)
	})
	m.bar = newProgressBar(m.layout().innerWidth())
	m.refresh()
	return m
}

func (m *nodeModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *nodeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.FocusMsg:
		m.focused = true
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		return m, m.endDrag()

	case inputMsg:
		m.node.input = msg.input
		m.refresh()
		return m, nil

	case statusMsg:
		m.node.status = msg.status
		m.refresh()
		return m, nil

	case dataMsg:
		m.adopt(msg.data)
		return m, nil

	case removedMsg:
		// The node lost its input: an active drag must not outlive it.
		cmd := m.endDrag()
		m.node.input = payload.Input{}
		m.refresh()
		m.cfg.logger.Info("payload removed", "path", msg.path)
		return m, cmd

	case copyDoneMsg:
		if msg.err != nil {
			m.cfg.logger.Warn("copy failed", "node", m.cfg.nodeID, "err", msg.err)
			return m, nil
		}
		m.cfg.logger.Debug("copied", "node", m.cfg.nodeID, "bytes", msg.bytes)
		token := m.copy.Mark()
		m.refresh()
		return m, tea.Tick(inspect.CopyResetDelay, func(time.Time) tea.Msg {
			return copyResetMsg{token: token}
		})

	case copyResetMsg:
		if m.copy.Expire(msg.token) {
			m.refresh()
		}
		return m, nil

	case modeSavedMsg:
		if msg.err != nil {
			m.cfg.logger.Warn("save display mode failed", "node", m.cfg.nodeID, "mode", msg.mode, "err", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if !inspect.Project(m.node.status, "").ShowData() {
			m.refresh()
		}
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd
	}
	return m, nil
}

func (m *nodeModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.endDrag()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Mode):
		m.node.mode = m.node.mode.Next()
		m.refresh()
		return m, m.saveMode(m.node.mode)

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyValue()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleMouse starts a drag on a press over the resize grip and feeds
// motion and release to the pointer bus. Mouse tracking switches to all
// motion while the drag is active.
func (m *nodeModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.onGrip(msg.X, msg.Y) {
		if m.drag != nil && !m.drag.Ended() {
			return nil
		}
		h, err := m.resize.Begin(m.point(msg.X, msg.Y))
		if err != nil {
			m.cfg.logger.Debug("resize not started", "err", err)
			return nil
		}
		m.drag = h
		m.refresh()
		return tea.EnableMouseAllMotion
	}
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		m.viewport, _ = m.viewport.Update(msg)
		return nil
	}
	if !m.bus.Listening() {
		return nil
	}
	m.bus.Dispatch(msg, m.point)
	m.refresh()
	if m.drag != nil && m.drag.Ended() {
		m.drag = nil
		return tea.EnableMouseCellMotion
	}
	return nil
}

// Close releases a drag that is still active once the program has stopped.
func (m *nodeModel) Close() {
	m.resize.Abort()
	m.drag = nil
}

// endDrag aborts an active resize and returns to cell-motion tracking.
func (m *nodeModel) endDrag() tea.Cmd {
	dragging := m.drag != nil
	m.resize.Abort()
	m.drag = nil
	m.refresh()
	if !dragging {
		return nil
	}
	return tea.EnableMouseCellMotion
}

// adopt applies node data read back from the store.
func (m *nodeModel) adopt(data map[string]any) {
	if data == nil {
		return
	}
	m.node.mode = inspect.ModeFromNodeData(data)
	if label, ok := data["label"].(string); ok && label != "" {
		m.node.label = label
	}
	m.resize.Sync(inspect.VisualStateFrom(data))
	m.refresh()
}

// saveMode persists mode into the node's properties.
func (m *nodeModel) saveMode(mode inspect.Mode) tea.Cmd {
	store, nodeID := m.cfg.store, m.cfg.nodeID
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, saveTimeout)
		defer cancel()
		_, err := store.Update(ctx, nodeID, func(data map[string]any) map[string]any {
			return inspect.WithMode(data, mode)
		})
		return modeSavedMsg{mode: mode, err: err}
	}
}

// copyValue writes the full payload to the clipboard. It does nothing when
// the current view offers no copy affordance.
func (m *nodeModel) copyValue() tea.Cmd {
	if !m.copyable() {
		return nil
	}
	ctx, clip, v := m.ctx, m.cfg.clipboard, m.node.input.Value
	return func() tea.Msg {
		n, err := inspect.Copy(ctx, clip, v)
		return copyDoneMsg{bytes: n, err: err}
	}
}

func (m *nodeModel) copyable() bool {
	if !inspect.Project(m.node.status, "").ShowData() {
		return false
	}
	return inspect.Render(m.node.input, m.node.mode, inspect.Options{}).Copyable
}

// =============================================================================
// Layout
// =============================================================================

// layout derives the draw options from the node size and the terminal.
func (m *nodeModel) layout() drawOptions {
	v := m.resize.State()
	width := max(v.Width/m.cfg.cellWidth, 1)
	if m.termWidth > 0 {
		width = min(width, m.termWidth)
	}
	return drawOptions{
		width:       width,
		color:       m.cfg.color,
		syntaxStyle: m.cfg.syntaxStyle,
		spinner:     m.spinner.View(),
		bar:         &m.bar,
		grip:        true,
		resizing:    m.resize.Resizing(),
		selected:    m.focused,
	}
}

// contentLines is the height of the scrollable content region.
func (m *nodeModel) contentLines() int {
	n := max(m.resize.State().ContentHeight()/m.cfg.cellHeight, 1)
	if m.termHeight > 0 {
		// Leave room for the frame rows and the help line.
		n = min(n, max(m.termHeight-contentTop-3, 1))
	}
	return n
}

// refresh re-renders the body into the viewport.
func (m *nodeModel) refresh() {
	o := m.layout()
	m.node.copied = m.copy.Copied()
	m.viewport.Width = o.innerWidth()
	m.viewport.Height = m.contentLines()
	m.viewport.SetContent(watchBody(m.ctx, m.node, o))
}

// onGrip reports whether the cell at x, y is the resize grip. The grip sits
// on the row below the content region, at the right edge inside the border.
func (m *nodeModel) onGrip(x, y int) bool {
	o := m.layout()
	row := contentTop + m.contentLines()
	col := o.width - 2
	return abs(y-row) <= 1 && abs(x-col) <= 1
}

// point converts a cell position to canvas pixels.
func (m *nodeModel) point(x, y int) inspect.Point {
	return inspect.Point{X: x * m.cfg.cellWidth, Y: y * m.cfg.cellHeight}
}

func (m *nodeModel) View() string {
	if m.quitting {
		return ""
	}
	o := m.layout()
	label := m.node.label
	if label == "" {
		label = defaultWatchLabel
	}
	box := nodeBox(o,
		nodeHeader(label, inspect.Project(m.node.status, ""), o),
		watchSubheader(m.node, o),
		m.viewport.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, box, " "+m.help.View(m.keys))
}

// Value returns the node's current state for tests and the final summary.
func (m *nodeModel) Value() watchNode {
	n := m.node
	n.copied = m.copy.Copied()
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
