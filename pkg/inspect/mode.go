package inspect

import (
	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// Mode is the user's preferred rendering strategy.
type Mode string

// Display modes. The zero value behaves like ModeTable.
const (
	ModeTable   Mode = "table"
	ModeRaw     Mode = "raw"
	ModeSummary Mode = "summary"
)

// DefaultMode is used when the node data carries no display mode.
const DefaultMode = ModeTable

// ParseMode converts a string into a Mode. The empty string maps to the
// default mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return DefaultMode, nil
	case ModeTable, ModeRaw, ModeSummary:
		return Mode(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode,
		"invalid display mode: %s (must be 'table', 'raw' or 'summary')", s)
}

// orDefault maps unknown modes to the default.
func (m Mode) orDefault() Mode {
	switch m {
	case ModeTable, ModeRaw, ModeSummary:
		return m
	}
	return DefaultMode
}

// Label returns the header label for the mode.
func (m Mode) Label() string {
	switch m.orDefault() {
	case ModeRaw:
		return "JSON"
	case ModeSummary:
		return "Summary"
	default:
		return "Table"
	}
}

// Next cycles table → raw → summary → table.
func (m Mode) Next() Mode {
	switch m.orDefault() {
	case ModeTable:
		return ModeRaw
	case ModeRaw:
		return ModeSummary
	default:
		return ModeTable
	}
}

// ModeFromNodeData reads properties.displayMode from persisted node data.
// Missing or unknown values yield the default mode.
func ModeFromNodeData(data map[string]any) Mode {
	props, ok := data["properties"]
	if !ok {
		return DefaultMode
	}
	var raw any
	switch p := props.(type) {
	case map[string]any:
		raw = p["displayMode"]
	case *payload.Object:
		raw, _ = p.Get("displayMode")
	}
	s, _ := raw.(string)
	return Mode(s).orDefault()
}

// WithMode returns a copy of data whose properties.displayMode is m.
// Other properties are preserved.
func WithMode(data map[string]any, m Mode) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	props := map[string]any{}
	switch p := data["properties"].(type) {
	case map[string]any:
		for k, v := range p {
			props[k] = v
		}
	case *payload.Object:
		if p != nil {
			p.Each(func(k string, v any) bool {
				props[k] = v
				return true
			})
		}
	}
	props["displayMode"] = string(m.orDefault())
	out["properties"] = props
	return out
}
