package inspect

// Renderer identifies one of the presentation strategies.
type Renderer int

// Renderers.
const (
	RendererEmpty Renderer = iota
	RendererAggregation
	RendererRaw
	RendererSummary
	RendererRecordTable
	RendererObjectTable
	RendererScalar
	RendererFallback
)

var rendererNames = map[Renderer]string{
	RendererEmpty:       "empty",
	RendererAggregation: "aggregation",
	RendererRaw:         "raw",
	RendererSummary:     "summary",
	RendererRecordTable: "recordTable",
	RendererObjectTable: "objectTable",
	RendererScalar:      "scalar",
	RendererFallback:    "fallback",
}

func (r Renderer) String() string {
	if s, ok := rendererNames[r]; ok {
		return s
	}
	return "unknown"
}

// Selection is the outcome of Select.
type Selection struct {
	Renderer Renderer
	Sampled  bool // raw renderer shows a bounded sample of a record sequence
	Copyable bool // the copy affordance is offered
}

// Select picks the renderer for a shape and display mode. Rules, in order:
//
//  1. absent → empty state, whatever the mode
//  2. aggregation → aggregation renderer, unless the mode is raw
//  3. records + summary → statistical summary
//  4. records + raw → raw renderer over a bounded sample
//  5. records + table → record table (id, type, name)
//  6. mapping + table → key/value table
//  7. scalar → single value; copyable only in raw mode
//  8. anything else → fallback message
//
// A mapping in raw mode, and an aggregation in raw mode, serialize the full
// value.
func Select(shape Shape, mode Mode) Selection {
	mode = mode.orDefault()

	switch shape.(type) {
	case Absent:
		return Selection{Renderer: RendererEmpty}
	case Aggregation:
		if mode == ModeRaw {
			return Selection{Renderer: RendererRaw, Copyable: true}
		}
		return Selection{Renderer: RendererAggregation}
	case Records:
		switch mode {
		case ModeSummary:
			return Selection{Renderer: RendererSummary}
		case ModeRaw:
			return Selection{Renderer: RendererRaw, Sampled: true, Copyable: true}
		default:
			return Selection{Renderer: RendererRecordTable}
		}
	case Mapping:
		switch mode {
		case ModeTable:
			return Selection{Renderer: RendererObjectTable}
		case ModeRaw:
			return Selection{Renderer: RendererRaw, Copyable: true}
		}
	case Scalar:
		return Selection{Renderer: RendererScalar, Copyable: mode == ModeRaw}
	}
	return Selection{Renderer: RendererFallback}
}
