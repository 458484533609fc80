package cli

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/ifcwatch/pkg/inspect"
)

// pointerBus is the terminal's global pointer stream. The interactive node
// feeds it with mouse messages; resize drags subscribe to it.
type pointerBus struct {
	mu       sync.Mutex
	next     int
	moves    map[int]func(inspect.Point)
	releases map[int]func(inspect.Point)
}

func newPointerBus() *pointerBus {
	return &pointerBus{
		moves:    make(map[int]func(inspect.Point)),
		releases: make(map[int]func(inspect.Point)),
	}
}

func (b *pointerBus) OnMove(fn func(inspect.Point)) inspect.Subscription {
	return b.subscribe(b.moves, fn)
}

func (b *pointerBus) OnRelease(fn func(inspect.Point)) inspect.Subscription {
	return b.subscribe(b.releases, fn)
}

func (b *pointerBus) subscribe(set map[int]func(inspect.Point), fn func(inspect.Point)) inspect.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	set[id] = fn
	return &subscription{release: func() {
		b.mu.Lock()
		delete(set, id)
		b.mu.Unlock()
	}}
}

// Listening reports whether any drag is subscribed. The node enables
// all-motion mouse tracking only while this is true.
func (b *pointerBus) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.moves) > 0 || len(b.releases) > 0
}

// Move dispatches a pointer move.
func (b *pointerBus) Move(p inspect.Point) {
	for _, fn := range b.snapshot(b.moves) {
		fn(p)
	}
}

// Release dispatches a pointer release.
func (b *pointerBus) Release(p inspect.Point) {
	for _, fn := range b.snapshot(b.releases) {
		fn(p)
	}
}

// snapshot copies the listeners so they can unsubscribe while being called.
func (b *pointerBus) snapshot(set map[int]func(inspect.Point)) []func(inspect.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fns := make([]func(inspect.Point), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	return fns
}

// Dispatch routes a mouse message to the listeners. pos converts the cell
// position to canvas pixels.
func (b *pointerBus) Dispatch(msg tea.MouseMsg, pos func(x, y int) inspect.Point) {
	p := pos(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionMotion:
		b.Move(p)
	case tea.MouseActionRelease:
		b.Release(p)
	}
}

type subscription struct {
	once    sync.Once
	release func()
}

func (s *subscription) Release() {
	s.once.Do(s.release)
}

var _ inspect.PointerEvents = (*pointerBus)(nil)
