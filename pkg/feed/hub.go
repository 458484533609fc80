// Package feed delivers payloads and status updates to nodes over HTTP.
//
// A [Hub] holds the live inputs and statuses of the nodes it serves; their
// persisted data (display mode, size) lives in a nodestate.Store. Upstream
// producers push through the [Server] endpoints:
//
//   - POST /nodes                create a node, returns its generated ID
//   - GET  /nodes                list known node IDs
//   - PUT  /nodes/{id}/input     replace the payload (JSON or YAML body)
//   - PUT  /nodes/{id}/status    replace the status triple
//   - PUT  /nodes/{id}/mode      set the display mode
//   - PATCH /nodes/{id}          merge fields into the node data
//   - GET  /nodes/{id}           snapshot: input, status and data
//   - GET  /nodes/{id}/render    plain-text frame of the node
//   - GET  /nodes/{id}/export    the full serialized value
//   - GET  /healthz              liveness probe
//
// Interactive hosts [Hub.Subscribe] to a node and redraw on every change.
package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// Snapshot is everything a host needs to draw one node.
type Snapshot struct {
	NodeID  string
	Input   payload.Input
	Status  inspect.StatusState
	Data    map[string]any
	Version uint64 // increases on every change of input, status or data
}

type entry struct {
	input   payload.Input
	status  inspect.StatusState
	version uint64
	subs    map[int]chan Snapshot
}

// Hub holds live node inputs and fans changes out to subscribers.
// It is safe for concurrent use.
type Hub struct {
	id      string
	mu      sync.Mutex
	store   nodestate.Store
	nodes   map[string]*entry
	nextSub int
}

// NewHub creates a hub persisting node data in store.
func NewHub(store nodestate.Store) *Hub {
	return &Hub{id: uuid.NewString(), store: store, nodes: make(map[string]*entry)}
}

// ID identifies this hub instance. Versions restart with every hub, so
// anything keyed by version must include it.
func (h *Hub) ID() string {
	return h.id
}

// Store returns the hub's node-data store.
func (h *Hub) Store() nodestate.Store {
	return h.store
}

// entryLocked returns the entry for id, creating it. h.mu must be held.
func (h *Hub) entryLocked(id string) *entry {
	e, ok := h.nodes[id]
	if !ok {
		e = &entry{input: payload.Input{Kind: payload.KindUnknown}, subs: map[int]chan Snapshot{}}
		h.nodes[id] = e
	}
	return e
}

// Create registers a new node with a generated ID and the given label.
func (h *Hub) Create(ctx context.Context, label string) (string, error) {
	id := uuid.NewString()
	if label != "" {
		if _, err := h.store.Update(ctx, id, nodestate.Merge(map[string]any{"label": label})); err != nil {
			return "", err
		}
	}
	h.mu.Lock()
	h.entryLocked(id)
	h.mu.Unlock()
	return id, nil
}

// SetInput replaces a node's payload.
func (h *Hub) SetInput(ctx context.Context, id string, in payload.Input) error {
	if err := errors.ValidateNodeID(id); err != nil {
		return err
	}
	h.mu.Lock()
	e := h.entryLocked(id)
	e.input = in
	e.version++
	h.mu.Unlock()
	return h.publish(ctx, id)
}

// SetStatus replaces a node's status.
func (h *Hub) SetStatus(ctx context.Context, id string, st inspect.StatusState) error {
	if err := errors.ValidateNodeID(id); err != nil {
		return err
	}
	if _, err := inspect.ParseStatus(string(st.Status)); err != nil {
		return err
	}
	h.mu.Lock()
	e := h.entryLocked(id)
	e.status = st
	e.version++
	h.mu.Unlock()
	return h.publish(ctx, id)
}

// SetMode persists a node's display mode.
func (h *Hub) SetMode(ctx context.Context, id string, mode inspect.Mode) error {
	_, err := h.store.Update(ctx, id, func(data map[string]any) map[string]any {
		return inspect.WithMode(data, mode)
	})
	if err != nil {
		return err
	}
	return h.Touch(ctx, id)
}

// Merge sets fields in a node's persisted data.
func (h *Hub) Merge(ctx context.Context, id string, fields map[string]any) error {
	if _, err := h.store.Update(ctx, id, nodestate.Merge(fields)); err != nil {
		return err
	}
	return h.Touch(ctx, id)
}

// Touch announces that a node's persisted data changed elsewhere, for
// example through a resize write-back.
func (h *Hub) Touch(ctx context.Context, id string) error {
	h.mu.Lock()
	h.entryLocked(id).version++
	h.mu.Unlock()
	return h.publish(ctx, id)
}

// Snapshot returns the current state of a node. A node is known once it
// received an input or status, or has persisted data.
func (h *Hub) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return Snapshot{}, err
	}
	data, err := h.store.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	h.mu.Lock()
	e, ok := h.nodes[id]
	var snap Snapshot
	if ok {
		snap = Snapshot{NodeID: id, Input: e.input, Status: e.status, Version: e.version}
	}
	h.mu.Unlock()

	if !ok && data == nil {
		return Snapshot{}, errors.New(errors.ErrCodeNodeNotFound, "node %s not found", id)
	}
	if !ok {
		snap = Snapshot{NodeID: id, Input: payload.Input{Kind: payload.KindUnknown}}
	}
	if data == nil {
		data = map[string]any{}
	}
	snap.Data = data
	return snap, nil
}

// Nodes returns the IDs of all live and persisted nodes.
func (h *Hub) Nodes(ctx context.Context) ([]string, error) {
	ids, err := h.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	h.mu.Lock()
	for id := range h.nodes {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	h.mu.Unlock()
	sort.Strings(ids)
	return ids, nil
}

// Subscribe returns a channel that receives the node's latest snapshot after
// every change, starting with the current one. Slow readers only see the
// most recent snapshot. cancel closes the channel.
func (h *Hub) Subscribe(ctx context.Context, id string) (<-chan Snapshot, func(), error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, nil, err
	}
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	e := h.entryLocked(id)
	subID := h.nextSub
	h.nextSub++
	e.subs[subID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(e.subs, subID)
			h.mu.Unlock()
			close(ch)
		})
	}

	if snap, err := h.Snapshot(ctx, id); err == nil {
		offer(ch, snap)
	}
	return ch, cancel, nil
}

func (h *Hub) publish(ctx context.Context, id string) error {
	snap, err := h.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.nodes[id].subs {
		offer(ch, snap)
	}
	return nil
}

// offer replaces any unread snapshot in ch with snap. Callers hold h.mu or
// own ch exclusively.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
