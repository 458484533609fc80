package inspect

import "fmt"

// Visible caps. They are properties of the renderers, not user settings.
const (
	TableCap     = 5 // rows shown by the record, aggregation tables
	RawSampleCap = 3 // elements serialized by the raw renderer for record sequences
)

// More describes the elements a renderer left out.
type More struct {
	Count int
}

// Visible reports whether the indicator should be shown.
func (m More) Visible() bool { return m.Count > 0 }

// String returns "... and N more", or "" when nothing was left out.
func (m More) String() string {
	if m.Count <= 0 {
		return ""
	}
	return fmt.Sprintf("... and %d more", m.Count)
}

// Truncate returns the first min(len(items), k) items and an indicator for
// the remaining len(items)-k. A negative k is treated as zero.
func Truncate[T any](items []T, k int) ([]T, More) {
	if k < 0 {
		k = 0
	}
	if len(items) <= k {
		return items, More{}
	}
	return items[:k], More{Count: len(items) - k}
}
