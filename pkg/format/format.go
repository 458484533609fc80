// Package format stringifies individual payload values for table cells.
//
// It is the default implementation of the value-formatting collaborator the
// inspection engine consumes; hosts may substitute their own. Output is
// bounded by display width (not bytes), so wide runes and emoji are counted
// the way a terminal shows them.
package format

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// Ellipsis is appended to values cut at their maximum length.
const Ellipsis = "…"

// Placeholder is shown for absent values.
const Placeholder = "—"

// Options controls how a value is stringified.
type Options struct {
	// MaxLength bounds the display width of the result; 0 means unbounded.
	MaxLength int
}

// Formatter is the default value formatter.
type Formatter struct{}

// Format stringifies v and bounds it to maxLength display cells.
func (Formatter) Format(v any, maxLength int) string {
	return Value(v, Options{MaxLength: maxLength})
}

// Value stringifies a payload value.
//
//   - nil becomes the placeholder "—"
//   - booleans become "true"/"false"
//   - numbers use the shortest representation; NaN and infinities are
//     written as-is ("NaN", "+Inf", "-Inf")
//   - sequences are joined with ", "
//   - objects are written as compact JSON
func Value(v any, opts Options) string {
	s := stringify(v)
	if opts.MaxLength > 0 {
		s = Truncate(s, opts.MaxLength)
	}
	return s
}

// Truncate cuts s to at most width display cells, appending an ellipsis
// when something was removed. Newlines are flattened to spaces.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return Placeholder
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ", ")
	case *payload.Object:
		s, err := payload.Serialize(t)
		if err != nil {
			return "{…}"
		}
		return compactJSON(s)
	}
	return stringify(payload.Normalize(v))
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// compactJSON collapses the indented output of payload.Serialize onto one
// line.
func compactJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}
