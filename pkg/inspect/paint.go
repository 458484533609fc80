package inspect

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// DefaultSyntaxStyle is the chroma style used for raw JSON.
const DefaultSyntaxStyle = "monokai"

// Copy affordance labels.
const (
	CopyLabel   = "[c] copy"
	CopiedLabel = "✓ copied"
)

var (
	colorTeal   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorStripe = lipgloss.Color("252")
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorTeal).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
	styleStripe  = lipgloss.NewStyle().Foreground(colorStripe).Padding(0, 1)
	styleFooter  = lipgloss.NewStyle().Bold(true).Foreground(colorTeal).Padding(0, 1)
	styleBorder  = lipgloss.NewStyle().Foreground(colorDim)
	styleMessage = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	styleMore    = lipgloss.NewStyle().Foreground(colorDim)
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleBadge   = lipgloss.NewStyle().Foreground(colorTeal).Border(lipgloss.NormalBorder(), false, true).BorderForeground(colorDim).Padding(0, 1)
	styleCaption = lipgloss.NewStyle().Foreground(colorGray)
	styleChip    = lipgloss.NewStyle().Foreground(colorTeal)
	styleTrue    = lipgloss.NewStyle().Foreground(colorGreen)
	styleFalse   = lipgloss.NewStyle().Foreground(colorRed)
	styleCopy    = lipgloss.NewStyle().Foreground(colorGray)
	styleCopied  = lipgloss.NewStyle().Foreground(colorGreen)
	styleScalar  = lipgloss.NewStyle().Foreground(colorWhite)
)

// Painter turns blocks into terminal text.
type Painter struct {
	// Width is the content width in cells; 0 leaves lines unbounded.
	Width int
	// Color enables syntax highlighting of raw documents.
	Color bool
	// SyntaxStyle names a chroma style. Defaults to DefaultSyntaxStyle.
	SyntaxStyle string
	// Copied switches the copy affordance to its confirmation label.
	Copied bool
}

// Paint renders a block. The truncation indicator, when present, is always
// the last line.
func (p Painter) Paint(b Block) string {
	var parts []string
	switch b.Renderer {
	case RendererAggregation:
		parts = append(parts, p.aggregationHeader(b), p.table(b))
	case RendererRecordTable, RendererObjectTable, RendererSummary:
		parts = append(parts, p.table(b))
	case RendererRaw:
		parts = append(parts, p.copyAffordance(), p.highlight(b.Text))
	case RendererScalar:
		if b.Copyable {
			parts = append(parts, p.copyAffordance())
		}
		parts = append(parts, styleScalar.Render(b.Text))
	default:
		parts = append(parts, p.message(b.Text))
	}
	if b.More.Visible() {
		parts = append(parts, styleMore.Render(b.More.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (p Painter) table(b Block) string {
	rows := b.Rows
	footer := -1
	if b.Footer != nil {
		footer = len(rows)
		rows = append(rows[:len(rows):len(rows)], b.Footer)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleBorder).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Headers(b.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case row == footer:
				return styleFooter
			case row%2 == 1:
				return styleStripe
			}
			return styleCell
		})
	if p.Width > 0 {
		t = t.Width(p.Width)
	}
	return t.Render()
}

func (p Painter) aggregationHeader(b Block) string {
	title := styleTitle.Render(b.Title)
	if b.Badge != "" {
		title = lipgloss.JoinHorizontal(lipgloss.Center, title, " ", styleBadge.Render(b.Badge))
	}
	lines := []string{title, styleCaption.Render(b.Caption)}
	if len(b.Chips) > 0 {
		chips := make([]string, len(b.Chips))
		for i, c := range b.Chips {
			switch {
			case strings.HasPrefix(c, "✓"):
				chips[i] = styleTrue.Render(c)
			case strings.HasPrefix(c, "✗"):
				chips[i] = styleFalse.Render(c)
			default:
				chips[i] = styleChip.Render("‹" + c + "›")
			}
		}
		line := strings.Join(chips, " ")
		if p.Width > 0 {
			line = lipgloss.NewStyle().Width(p.Width).Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (p Painter) copyAffordance() string {
	label := styleCopy.Render(CopyLabel)
	if p.Copied {
		label = styleCopied.Render(CopiedLabel)
	}
	if p.Width > 0 {
		return lipgloss.PlaceHorizontal(p.Width, lipgloss.Right, label)
	}
	return label
}

func (p Painter) message(text string) string {
	s := styleMessage.Render(text)
	if p.Width > 0 {
		s = styleMessage.Width(p.Width).Align(lipgloss.Center).Render(text)
	}
	return s
}

// highlight applies JSON syntax highlighting when color is enabled. Any
// highlighter failure falls back to the plain text.
func (p Painter) highlight(text string) string {
	if !p.Color {
		return text
	}
	lexer := lexers.Get("json")
	if lexer == nil {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	name := p.SyntaxStyle
	if name == "" {
		name = DefaultSyntaxStyle
	}
	style := chromaStyles.Get(name)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return strings.TrimRight(buf.String(), "\n")
}
