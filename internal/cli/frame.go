package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/ifcwatch/pkg/format"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/observability"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

const (
	defaultWatchLabel = "Watch Node"
	resizeGrip        = "◢"
	errorPrefix       = "Error: "
)

var (
	styleNodeBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorCyan)
	styleNodeSelected = styleNodeBox.BorderForeground(colorGreen)
	styleNodeHeader   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorCyan).Padding(0, 1)
	styleSubheader    = lipgloss.NewStyle().Foreground(colorGray)
	styleLoading      = lipgloss.NewStyle().Foreground(colorGray)
	styleErrorText    = lipgloss.NewStyle().Foreground(colorRed)
	styleGrip         = lipgloss.NewStyle().Foreground(colorDim)
	styleGripActive   = lipgloss.NewStyle().Foreground(colorCyan)

	badgeStyles = map[inspect.BadgeVariant]lipgloss.Style{
		inspect.BadgeNeutral: lipgloss.NewStyle().Foreground(colorGray),
		inspect.BadgeActive:  lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
		inspect.BadgeSuccess: lipgloss.NewStyle().Foreground(colorGreen),
		inspect.BadgeFailure: lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)

// watchNode is what the host knows about a watch node when drawing it.
type watchNode struct {
	label  string
	input  payload.Input
	mode   inspect.Mode
	status inspect.StatusState
	copied bool
}

// drawOptions carries the terminal side of drawing: sizes in cells and the
// live widgets of an interactive host.
type drawOptions struct {
	width        int // outer width in cells; 0 sizes to content
	color        bool
	syntaxStyle  string
	spinner      string          // current spinner frame; empty draws a static one
	bar          *progress.Model // nil draws a static bar
	grip         bool            // draw the resize grip
	contentLines int             // clip the content region; 0 shows all of it
	resizing     bool
	selected     bool
}

// innerWidth is the content width inside the node border.
func (o drawOptions) innerWidth() int {
	if o.width <= 0 {
		return 0
	}
	return max(o.width-2, 1)
}

// watchBody draws the region below the header: the loading indicator, the
// error text or the payload, whichever the status projection selects.
func watchBody(ctx context.Context, n watchNode, o drawOptions) string {
	proj := inspect.Project(n.status, "")
	if !proj.ShowData() {
		observability.Render().OnStatus(ctx, string(proj.Status), proj.Visible.String())
		return statusBody(proj, o)
	}
	block := inspect.RenderContext(ctx, n.input, n.mode, inspect.Options{Formatter: format.Formatter{}})
	painter := inspect.Painter{
		Width:       o.innerWidth(),
		Color:       o.color,
		SyntaxStyle: o.syntaxStyle,
		Copied:      n.copied,
	}
	return painter.Paint(block)
}

// statusBody draws a projection that hides the data.
func statusBody(proj inspect.Projection, o drawOptions) string {
	if proj.Visible == inspect.VisibleError {
		return styleErrorText.Render(wrap(errorPrefix+proj.ErrorText, o.innerWidth()))
	}
	return loadingView(proj.Loading, o)
}

// loadingView draws a spinner with its message and, when the producer
// reported one, a progress bar.
func loadingView(args inspect.LoadingArgs, o drawOptions) string {
	frame := o.spinner
	if frame == "" {
		frame = spinner.Dot.Frames[0]
	}
	line := styleIconSpinner.Render(frame)
	if args.Message != "" {
		line += " " + styleLoading.Render(args.Message)
	}
	lines := []string{line}

	if args.Percentage != nil {
		bar := o.bar
		if bar == nil {
			b := newProgressBar(o.innerWidth())
			bar = &b
		}
		lines = append(lines, bar.ViewAs(*args.Percentage/100))
		if args.ProgressMessage != "" {
			lines = append(lines, StyleDim.Render(format.Truncate(args.ProgressMessage, o.innerWidth())))
		}
	}
	return strings.Join(lines, "\n")
}

// newProgressBar creates the bar used by loading views.
func newProgressBar(width int) progress.Model {
	bar := progress.New(progress.WithSolidFill(string(colorCyan)))
	if width > 0 {
		bar.Width = width
	} else {
		bar.Width = 30
	}
	return bar
}

// nodeHeader draws the label bar with the status badge on its right.
func nodeHeader(label string, proj inspect.Projection, o drawOptions) string {
	badge := badgeStyles[proj.Badge].Render(string(proj.Status))
	if o.innerWidth() == 0 {
		return styleNodeHeader.Render(label) + " " + badge
	}
	avail := o.innerWidth() - lipgloss.Width(badge) - 1
	title := styleNodeHeader.Render(format.Truncate(label, max(avail-2, 1)))
	return spread(title, badge, o.innerWidth())
}

// watchSubheader draws "<mode>    <input label>".
func watchSubheader(n watchNode, o drawOptions) string {
	left := styleSubheader.Render(n.mode.Label())
	right := StyleDim.Render(n.input.Label())
	if o.innerWidth() == 0 {
		return left + StyleDim.Render(" · ") + right
	}
	return spread(left, right, o.innerWidth())
}

// nodeBox frames header and content with the node border.
func nodeBox(o drawOptions, parts ...string) string {
	if o.grip {
		g := styleGrip
		if o.resizing {
			g = styleGripActive
		}
		grip := g.Render(resizeGrip)
		if w := o.innerWidth(); w > 0 {
			grip = lipgloss.PlaceHorizontal(w, lipgloss.Right, grip)
		}
		parts = append(parts, grip)
	}
	style := styleNodeBox
	if o.selected {
		style = styleNodeSelected
	}
	if w := o.innerWidth(); w > 0 {
		style = style.Width(w)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// drawWatch draws a complete watch node.
func drawWatch(ctx context.Context, n watchNode, o drawOptions) string {
	label := n.label
	if label == "" {
		label = defaultWatchLabel
	}
	body := watchBody(ctx, n, o)
	if o.contentLines > 0 {
		body = clipLines(body, o.contentLines)
	}
	return nodeBox(o,
		nodeHeader(label, inspect.Project(n.status, ""), o),
		watchSubheader(n, o),
		body,
	)
}

// drawGeometry draws a geometry-summary node.
func drawGeometry(v inspect.GeometryView, o drawOptions) string {
	parts := []string{nodeHeader(v.Label, v.Projection, o)}
	if !v.Projection.ShowData() {
		parts = append(parts, statusBody(v.Projection, o))
		return nodeBox(o, parts...)
	}

	keyWidth := 0
	for _, f := range v.Fields {
		keyWidth = max(keyWidth, runewidth.StringWidth(f.Label)+1)
	}
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(keyWidth)
	for _, f := range v.Fields {
		parts = append(parts, keyStyle.Render(f.Label+":")+" "+StyleValue.Render(f.Value))
	}
	if v.Note != "" {
		parts = append(parts, StyleWarning.Render(wrap(v.Note, o.innerWidth())))
	}
	return nodeBox(o, parts...)
}

// spread places left and right at the edges of a line of the given width.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// wrap breaks s at width cells; width 0 leaves it alone.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Wrap(s, width)
}
