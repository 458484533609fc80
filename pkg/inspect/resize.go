package inspect

import (
	"context"
	"sync"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/observability"
)

// Size bounds, in canvas pixels.
const (
	MinWidth      = 200
	MinHeight     = 150
	DefaultWidth  = 250
	DefaultHeight = 200

	// chromeHeight is the part of a node taken by header and footer.
	chromeHeight     = 80
	minContentHeight = 80
)

// VisualState is a node's on-canvas size.
type VisualState struct {
	Width    int
	Height   int
	Resizing bool
}

// DefaultVisualState is the size of a freshly created node.
func DefaultVisualState() VisualState {
	return VisualState{Width: DefaultWidth, Height: DefaultHeight}
}

// Clamp raises width and height to their floors.
func (v VisualState) Clamp() VisualState {
	v.Width = max(v.Width, MinWidth)
	v.Height = max(v.Height, MinHeight)
	return v
}

// ContentHeight is the height left for the content region.
func (v VisualState) ContentHeight() int {
	return max(v.Height-chromeHeight, minContentHeight)
}

// VisualStateFrom reads width and height from persisted node data. Missing
// or non-numeric values fall back to the defaults; stored values below the
// floors are clamped.
func VisualStateFrom(data map[string]any) VisualState {
	v := DefaultVisualState()
	if w, ok := numberField(data, "width"); ok {
		v.Width = w
	}
	if h, ok := numberField(data, "height"); ok {
		v.Height = h
	}
	return v.Clamp()
}

func numberField(data map[string]any, key string) (int, bool) {
	switch n := data[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Point is a pointer position in canvas pixels.
type Point struct {
	X, Y int
}

// Subscription is a registered pointer listener.
type Subscription interface {
	// Release removes the listener. It is safe to call more than once.
	Release()
}

// PointerEvents is the host's global pointer stream.
type PointerEvents interface {
	OnMove(fn func(Point)) Subscription
	OnRelease(fn func(Point)) Subscription
}

// NodeUpdater applies a merge to a node's persisted data. patch receives a
// copy of the existing data and returns the data to store.
type NodeUpdater interface {
	UpdateNode(nodeID string, patch func(data map[string]any) map[string]any) error
}

// ResizeController turns pointer drags on a node's resize handle into size
// updates. At most one drag is active at a time.
type ResizeController struct {
	nodeID  string
	events  PointerEvents
	updater NodeUpdater
	onError func(error)

	state  VisualState
	active *ResizeHandle
}

// NewResizeController creates a controller for one node.
func NewResizeController(nodeID string, initial VisualState, events PointerEvents, updater NodeUpdater) *ResizeController {
	initial.Resizing = false
	return &ResizeController{
		nodeID:  nodeID,
		events:  events,
		updater: updater,
		state:   initial.Clamp(),
	}
}

// OnError registers a callback for failed write-backs. Drags continue
// after a failure.
func (c *ResizeController) OnError(fn func(error)) {
	c.onError = fn
}

// State returns the current size.
func (c *ResizeController) State() VisualState {
	return c.state
}

// Resizing reports whether a drag is active.
func (c *ResizeController) Resizing() bool {
	return c.active != nil
}

// Sync adopts a size read back from the store. It is ignored during a drag,
// where the controller's own state is authoritative.
func (c *ResizeController) Sync(v VisualState) {
	if c.active != nil {
		return
	}
	v.Resizing = false
	c.state = v.Clamp()
}

// Begin starts a drag at start. It subscribes to the global pointer stream
// until the pointer is released or the returned handle is ended.
func (c *ResizeController) Begin(start Point) (*ResizeHandle, error) {
	if c.active != nil {
		return nil, errors.New(errors.ErrCodeResizeActive, "node %s is already resizing", c.nodeID)
	}
	h := &ResizeHandle{
		c:      c,
		start:  start,
		startW: c.state.Width,
		startH: c.state.Height,
	}
	c.active = h
	c.state.Resizing = true
	observability.Resize().OnResizeStart(context.Background(), c.nodeID, c.state.Width, c.state.Height)

	h.move = c.events.OnMove(func(p Point) { h.Move(p) })
	h.release = c.events.OnRelease(func(Point) { h.End() })
	return h, nil
}

// Abort ends the active drag, if any. Hosts call it when the node goes away
// mid-drag.
func (c *ResizeController) Abort() {
	if c.active != nil {
		c.active.End()
	}
}

func (c *ResizeController) write(v VisualState) {
	err := c.updater.UpdateNode(c.nodeID, func(data map[string]any) map[string]any {
		out := make(map[string]any, len(data)+2)
		for k, val := range data {
			out[k] = val
		}
		out["width"] = v.Width
		out["height"] = v.Height
		return out
	})
	observability.Resize().OnResizeMove(context.Background(), c.nodeID, v.Width, v.Height, err)
	if err != nil && c.onError != nil {
		c.onError(errors.Wrap(errors.ErrCodeStore, err, "resize node %s", c.nodeID))
	}
}

// ResizeHandle is one active drag.
type ResizeHandle struct {
	c              *ResizeController
	start          Point
	startW, startH int
	move, release  Subscription
	once           sync.Once
	ended          bool
}

// Move applies a pointer position: the size is the size at drag start plus
// the pointer delta, floored at the minimums. Every move writes the new
// size back through the updater. Moves after End are ignored.
func (h *ResizeHandle) Move(p Point) VisualState {
	if h.ended {
		return h.c.state
	}
	v := VisualState{
		Width:    h.startW + p.X - h.start.X,
		Height:   h.startH + p.Y - h.start.Y,
		Resizing: true,
	}.Clamp()
	h.c.state = v
	h.c.write(v)
	return v
}

// End finishes the drag and releases both pointer subscriptions. It is
// idempotent.
func (h *ResizeHandle) End() {
	h.once.Do(func() {
		h.ended = true
		if h.move != nil {
			h.move.Release()
		}
		if h.release != nil {
			h.release.Release()
		}
		if h.c.active == h {
			h.c.active = nil
		}
		h.c.state.Resizing = false
		observability.Resize().OnResizeEnd(context.Background(), h.c.nodeID, h.c.state.Width, h.c.state.Height)
	})
}

// Ended reports whether End has run.
func (h *ResizeHandle) Ended() bool {
	return h.ended
}
