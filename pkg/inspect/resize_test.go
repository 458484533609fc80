package inspect

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// fakeBus is a PointerEvents source driven by the test.
type fakeBus struct {
	moves    map[int]func(Point)
	releases map[int]func(Point)
	next     int
}

func newFakeBus() *fakeBus {
	return &fakeBus{moves: map[int]func(Point){}, releases: map[int]func(Point){}}
}

type fakeSub struct {
	release func()
}

func (s fakeSub) Release() { s.release() }

func (b *fakeBus) OnMove(fn func(Point)) Subscription {
	id := b.next
	b.next++
	b.moves[id] = fn
	return fakeSub{func() { delete(b.moves, id) }}
}

func (b *fakeBus) OnRelease(fn func(Point)) Subscription {
	id := b.next
	b.next++
	b.releases[id] = fn
	return fakeSub{func() { delete(b.releases, id) }}
}

func (b *fakeBus) move(p Point) {
	for _, fn := range b.moves {
		fn(p)
	}
}

func (b *fakeBus) release(p Point) {
	for _, fn := range b.releases {
		fn(p)
	}
}

func (b *fakeBus) listeners() int { return len(b.moves) + len(b.releases) }

// fakeUpdater keeps node data in memory.
type fakeUpdater struct {
	data   map[string]map[string]any
	writes int
	err    error
}

func (u *fakeUpdater) UpdateNode(id string, patch func(map[string]any) map[string]any) error {
	u.writes++
	if u.err != nil {
		return u.err
	}
	u.data[id] = patch(u.data[id])
	return nil
}

func newResizeFixture() (*ResizeController, *fakeBus, *fakeUpdater) {
	bus := newFakeBus()
	up := &fakeUpdater{data: map[string]map[string]any{
		"watch-1": {"label": "Walls", "properties": map[string]any{"displayMode": "raw"}},
	}}
	c := NewResizeController("watch-1", DefaultVisualState(), bus, up)
	return c, bus, up
}

func TestResizeDrag(t *testing.T) {
	c, bus, up := newResizeFixture()

	h, err := c.Begin(Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !c.Resizing() || !c.State().Resizing {
		t.Error("controller should report resizing")
	}

	bus.move(Point{X: 150, Y: 130})
	if got := c.State(); got.Width != 300 || got.Height != 230 {
		t.Errorf("state = %+v, want 300x230", got)
	}
	data := up.data["watch-1"]
	if data["width"] != 300 || data["height"] != 230 {
		t.Errorf("written data = %v", data)
	}
	if data["label"] != "Walls" || data["properties"] == nil {
		t.Errorf("existing data not preserved: %v", data)
	}

	bus.move(Point{X: 120, Y: 90})
	if got := c.State(); got.Width != 270 || got.Height != 190 {
		t.Errorf("state = %+v, want 270x190 (relative to drag start)", got)
	}
	if up.writes != 2 {
		t.Errorf("writes = %d, want one per move", up.writes)
	}

	bus.release(Point{})
	if !h.Ended() || c.Resizing() || c.State().Resizing {
		t.Error("release should end the drag")
	}
	if n := bus.listeners(); n != 0 {
		t.Errorf("%d listeners left after release", n)
	}
}

func TestResizeFloors(t *testing.T) {
	c, _, up := newResizeFixture()
	h, _ := c.Begin(Point{X: 500, Y: 500})
	defer h.End()

	got := h.Move(Point{X: 0, Y: 0})
	if got.Width != MinWidth || got.Height != MinHeight {
		t.Errorf("Move = %+v, want %dx%d", got, MinWidth, MinHeight)
	}
	if up.data["watch-1"]["width"] != MinWidth {
		t.Errorf("written width = %v", up.data["watch-1"]["width"])
	}
}

func TestResizeEndIsIdempotent(t *testing.T) {
	c, bus, up := newResizeFixture()
	h, _ := c.Begin(Point{})

	h.End()
	h.End()
	c.Abort()
	if bus.listeners() != 0 {
		t.Errorf("listeners = %d, want 0", bus.listeners())
	}

	h.Move(Point{X: 40, Y: 40})
	if up.writes != 0 {
		t.Errorf("move after End wrote %d times", up.writes)
	}
}

func TestResizeBeginWhileActive(t *testing.T) {
	c, _, _ := newResizeFixture()
	h, _ := c.Begin(Point{})
	defer h.End()

	if _, err := c.Begin(Point{}); !errors.Is(err, errors.ErrCodeResizeActive) {
		t.Errorf("second Begin error = %v, want RESIZE_ACTIVE", err)
	}
}

func TestResizeAbort(t *testing.T) {
	c, bus, _ := newResizeFixture()
	h, _ := c.Begin(Point{})

	c.Abort()
	if !h.Ended() || c.Resizing() {
		t.Error("Abort should end the active drag")
	}
	if bus.listeners() != 0 {
		t.Errorf("listeners = %d after Abort", bus.listeners())
	}

	// A new drag can start afterwards.
	if _, err := c.Begin(Point{}); err != nil {
		t.Errorf("Begin after Abort: %v", err)
	}
}

func TestResizeUpdaterFailure(t *testing.T) {
	c, bus, up := newResizeFixture()
	up.err = stderrors.New("store offline")
	var reported []error
	c.OnError(func(err error) { reported = append(reported, err) })

	h, _ := c.Begin(Point{})
	defer h.End()
	bus.move(Point{X: 10, Y: 10})
	bus.move(Point{X: 20, Y: 20})

	if len(reported) != 2 {
		t.Fatalf("reported %d errors, want 2", len(reported))
	}
	if !errors.Is(reported[0], errors.ErrCodeStore) {
		t.Errorf("error = %v, want STORE_ERROR", reported[0])
	}
	if got := c.State(); got.Width != 270 || !c.Resizing() {
		t.Errorf("drag should continue after a failed write, state = %+v", got)
	}
}

func TestResizeSyncIgnoredWhileDragging(t *testing.T) {
	c, _, _ := newResizeFixture()
	c.Sync(VisualState{Width: 400, Height: 100})
	if got := c.State(); got.Width != 400 || got.Height != MinHeight {
		t.Errorf("Sync = %+v, want 400x%d", got, MinHeight)
	}

	h, _ := c.Begin(Point{})
	c.Sync(VisualState{Width: 900, Height: 900})
	if c.State().Width != 400 {
		t.Error("Sync applied during a drag")
	}
	h.End()
}

func TestVisualStateFrom(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want VisualState
	}{
		{"empty", nil, VisualState{Width: DefaultWidth, Height: DefaultHeight}},
		{"stored", map[string]any{"width": 320, "height": 240}, VisualState{Width: 320, Height: 240}},
		{"json numbers", map[string]any{"width": float64(410), "height": int64(300)}, VisualState{Width: 410, Height: 300}},
		{"below floor", map[string]any{"width": 10, "height": 20}, VisualState{Width: MinWidth, Height: MinHeight}},
		{"wrong type", map[string]any{"width": "wide"}, VisualState{Width: DefaultWidth, Height: DefaultHeight}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VisualStateFrom(tt.data); got != tt.want {
				t.Errorf("VisualStateFrom() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContentHeight(t *testing.T) {
	tests := map[int]int{150: 80, 160: 80, 200: 120, 480: 400}
	for h, want := range tests {
		if got := (VisualState{Height: h}).ContentHeight(); got != want {
			t.Errorf("ContentHeight(%d) = %d, want %d", h, got, want)
		}
	}
}
