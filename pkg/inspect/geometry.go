package inspect

import (
	"strconv"
)

// GeometryLoadingMessage is the loading text of the geometry node.
const GeometryLoadingMessage = "Processing Geometry..."

// GeometryProperties are the user settings of a geometry node.
type GeometryProperties struct {
	ElementType       string `json:"elementType,omitempty"`
	IncludeOpenings   string `json:"includeOpenings,omitempty"`
	UseActualGeometry bool   `json:"useActualGeometry,omitempty"`
}

// GeometryNode is the persisted state of a geometry-summary node.
type GeometryNode struct {
	Label      string             `json:"label,omitempty"`
	Status     Status             `json:"status,omitempty"`
	IsLoading  bool               `json:"isLoading,omitempty"`
	Progress   *Progress          `json:"progress,omitempty"`
	Error      string             `json:"error,omitempty"`
	Properties GeometryProperties `json:"properties"`
	Elements   []any              `json:"elements,omitempty"`
}

// StatusState collects the node's status fields.
func (n GeometryNode) StatusState() StatusState {
	st := StatusState{Status: n.Status, Progress: n.Progress, Error: n.Error}
	if n.IsLoading {
		st.Status = StatusWorking
	}
	return st
}

// Field is one labeled line of the geometry summary.
type Field struct {
	Label string
	Value string
}

// GeometryView is the render model of a geometry node.
type GeometryView struct {
	Label      string
	Projection Projection
	Fields     []Field
	Note       string
}

// Geometry node labels and defaults.
const (
	defaultGeometryLabel = "Geometry"
	defaultElementType   = "All"
	actualGeometryNote   = "Using simplified geometry (cuboid approximation)"
)

// RenderGeometry projects a geometry node. A set IsLoading flag forces the
// working state even if the status has not caught up yet.
func RenderGeometry(n GeometryNode) GeometryView {
	st := n.StatusState()

	label := n.Label
	if label == "" {
		label = defaultGeometryLabel
	}
	v := GeometryView{
		Label:      label,
		Projection: Project(st, GeometryLoadingMessage),
	}
	if !v.Projection.ShowData() {
		return v
	}

	elementType := n.Properties.ElementType
	if elementType == "" {
		elementType = defaultElementType
	}
	v.Fields = []Field{
		{Label: "Element Type", Value: elementType},
		{Label: "Include Openings", Value: yesNo(n.Properties.IncludeOpenings != "false")},
		{Label: "Use Actual Geometry", Value: onOff(n.Properties.UseActualGeometry)},
	}
	if n.Elements != nil {
		v.Fields = append(v.Fields, Field{Label: "Extracted Elements", Value: strconv.Itoa(len(n.Elements))})
	}
	if n.Properties.UseActualGeometry {
		v.Note = actualGeometryNote
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}
