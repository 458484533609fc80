package inspect

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/ifcwatch/pkg/format"
	"github.com/matzehuels/ifcwatch/pkg/observability"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// Messages shown by the empty and fallback renderers.
const (
	NoInputMessage   = "Connect an input to see data"
	FallbackMessage  = "Unable to display this data type. Try changing the display mode."
	emptyListMessage = "0 items"
)

// Cell widths handed to the formatter.
const (
	nameMaxLength      = 24
	objectValueLength  = 30
	aggregationValLen  = 20
	recordColumnID     = "ID"
	recordColumnType   = "Type"
	recordColumnName   = "Name"
	summaryColumnType  = "Type"
	summaryColumnCount = "Count"
)

// Formatter stringifies a single value, bounded to maxLength display cells
// (0 means unbounded).
type Formatter interface {
	Format(v any, maxLength int) string
}

// Options configures Render.
type Options struct {
	// Formatter stringifies table cells. Defaults to format.Formatter.
	Formatter Formatter
}

func (o Options) formatter() Formatter {
	if o.Formatter == nil {
		return format.Formatter{}
	}
	return o.Formatter
}

// TypeCount is one group of the statistical summary.
type TypeCount struct {
	Type  string // element type as it appears in the payload
	Label string // type with the domain prefix removed
	Count int
}

// Block is the presentation-neutral output of a renderer. Only the fields
// relevant to Renderer are set.
type Block struct {
	Renderer Renderer
	Category Category

	// Aggregation header.
	Title   string
	Badge   string
	Caption string
	Chips   []string

	// Tables.
	Columns []string
	Rows    [][]string
	Footer  []string

	// Summary groups, in display order.
	Groups []TypeCount
	Total  int

	// Raw document, scalar value or message.
	Text string

	More     More
	Copyable bool
}

// Render classifies a payload, selects a renderer for mode and runs it.
func Render(in payload.Input, mode Mode, opts Options) Block {
	return RenderContext(context.Background(), in, mode, opts)
}

// RenderContext is Render with a context passed to the render hooks.
func RenderContext(ctx context.Context, in payload.Input, mode Mode, opts Options) Block {
	start := time.Now()
	shape := Classify(in)
	sel := Select(shape, mode)
	b := build(shape, sel, opts.formatter())
	observability.Render().OnRender(ctx, b.Category.String(), b.Renderer.String(), time.Since(start))
	return b
}

func build(shape Shape, sel Selection, f Formatter) Block {
	var b Block
	switch sel.Renderer {
	case RendererEmpty:
		b = renderEmpty(shape.(Absent))
	case RendererAggregation:
		b = renderAggregation(shape.(Aggregation).Result, f)
	case RendererRaw:
		b = renderRaw(shapeValue(shape), sel.Sampled)
	case RendererSummary:
		b = renderSummary(shape.(Records).Items)
	case RendererRecordTable:
		b = renderRecordTable(shape.(Records).Items, f)
	case RendererObjectTable:
		b = renderObjectTable(shape.(Mapping).Value, f)
	case RendererScalar:
		b = renderScalar(shape.(Scalar).Value, f)
	default:
		b = Block{Text: FallbackMessage}
	}
	b.Renderer = sel.Renderer
	b.Category = shape.Category()
	b.Copyable = sel.Copyable
	return b
}

func shapeValue(shape Shape) any {
	switch s := shape.(type) {
	case Records:
		return s.Items
	case Aggregation:
		return s.Value
	case Mapping:
		return s.Value
	case Scalar:
		return s.Value
	}
	return nil
}

func renderEmpty(a Absent) Block {
	if a.Empty {
		return Block{Text: emptyListMessage}
	}
	return Block{Text: NoInputMessage}
}

func renderRecordTable(items []any, f Formatter) Block {
	visible, more := Truncate(items, TableCap)
	rows := make([][]string, 0, len(visible))
	for _, item := range visible {
		rec, ok := payload.AsRecord(item)
		if !ok {
			rows = append(rows, []string{format.Placeholder, format.Placeholder, format.Placeholder})
			continue
		}
		id, _ := rec.ID()
		typ, ok := rec.Type()
		if !ok {
			typ = format.Placeholder
		}
		name, _ := rec.Name()
		rows = append(rows, []string{
			f.Format(id, 0),
			typ,
			f.Format(name, nameMaxLength),
		})
	}
	return Block{
		Columns: []string{recordColumnID, recordColumnType, recordColumnName},
		Rows:    rows,
		More:    more,
	}
}

func renderObjectTable(v any, f Formatter) Block {
	var rows [][]string
	switch t := v.(type) {
	case *payload.Object:
		t.Each(func(key string, val any) bool {
			rows = append(rows, []string{key, f.Format(val, objectValueLength)})
			return true
		})
	case []any:
		for i, val := range t {
			rows = append(rows, []string{strconv.Itoa(i), f.Format(val, objectValueLength)})
		}
	}
	return Block{Columns: []string{"Key", "Value"}, Rows: rows}
}

func renderRaw(v any, sampled bool) Block {
	if sampled {
		if list, ok := v.([]any); ok {
			visible, more := Truncate(list, RawSampleCap)
			return Block{Text: payload.MustSerialize(visible), More: more}
		}
	}
	return Block{Text: payload.MustSerialize(v)}
}

func renderSummary(items []any) Block {
	counts := map[string]int{}
	for _, item := range items {
		rec, ok := payload.AsRecord(item)
		if !ok {
			continue
		}
		typ, ok := rec.Type()
		if !ok {
			continue
		}
		counts[typ]++
	}

	groups := make([]TypeCount, 0, len(counts))
	for typ, n := range counts {
		groups = append(groups, TypeCount{Type: typ, Label: TypeLabel(typ), Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		if groups[i].Label != groups[j].Label {
			return groups[i].Label < groups[j].Label
		}
		return groups[i].Type < groups[j].Type
	})

	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{g.Label, strconv.Itoa(g.Count)}
	}
	return Block{
		Columns: []string{summaryColumnType, summaryColumnCount},
		Rows:    rows,
		Groups:  groups,
		Total:   len(items),
		Footer:  []string{"Total", strconv.Itoa(len(items))},
	}
}

func renderAggregation(agg payload.Aggregation, f Formatter) Block {
	chips := make([]string, len(agg.UniqueValues))
	for i, v := range agg.UniqueValues {
		chips[i] = chipText(v, f)
	}

	visible, more := Truncate(agg.Elements, TableCap)
	rows := make([][]string, len(visible))
	for i, el := range visible {
		gid := el.GlobalID
		if gid == "" {
			gid = format.Placeholder
		}
		rows[i] = []string{elementLabel(el, f), gid, f.Format(el.Value, aggregationValLen)}
	}

	return Block{
		Title:   agg.PropertyName,
		Badge:   agg.PsetName,
		Caption: fmt.Sprintf("%d of %d elements", agg.ElementsWithProperty, agg.TotalElements),
		Chips:   chips,
		Columns: []string{"Element", "GlobalId", "Value"},
		Rows:    rows,
		More:    more,
	}
}

func renderScalar(v any, f Formatter) Block {
	return Block{Text: f.Format(v, 0)}
}

// chipText renders one distinct value. Booleans carry a check or cross.
func chipText(v any, f Formatter) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "✓ true"
		}
		return "✗ false"
	case nil:
		return "null"
	}
	return f.Format(v, aggregationValLen)
}

// elementLabel is "Wall (Name)" when the element is named, else "Wall id".
func elementLabel(el payload.AggregatedElement, f Formatter) string {
	label := TypeLabel(el.Type)
	if el.Name != nil {
		return label + " (" + f.Format(el.Name, nameMaxLength) + ")"
	}
	if el.ID != nil {
		return strings.TrimSpace(label + " " + f.Format(el.ID, 0))
	}
	return label
}

// TypeLabel strips the "Ifc"/"IFC" prefix from an element type.
func TypeLabel(typ string) string {
	for _, prefix := range []string{"Ifc", "IFC"} {
		if len(typ) > len(prefix) && strings.HasPrefix(typ, prefix) {
			return typ[len(prefix):]
		}
	}
	return typ
}
