package nodestate

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/observability"
)

// MemoryStore keeps node data in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	nodes map[string]map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[string]map[string]any)}
}

func (s *MemoryStore) Get(ctx context.Context, nodeID string) (map[string]any, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.nodes[nodeID]
	observability.Store().OnStoreGet(ctx, BackendMemory, nodeID, ok)
	if !ok {
		return nil, nil
	}
	return clone(data), nil
}

func (s *MemoryStore) Update(ctx context.Context, nodeID string, patch Patch) (Update, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return Update{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := apply(s.nodes[nodeID], patch)
	s.nodes[nodeID] = next
	observability.Store().OnStoreUpdate(ctx, BackendMemory, nodeID, nil)
	return Update{NodeID: nodeID, Data: clone(next)}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, nodeID)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
